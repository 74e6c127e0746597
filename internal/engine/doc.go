// Package engine resolves the final tag values of an audio file from the
// current template, the text rules, the feature toggles and the values
// already in the file.
//
// Resolve is a pure function of its inputs:
//
//	res := engine.Resolve(snapshot, engine.Input{
//	    Originals: map[model.FieldID]string{model.FieldArtist: "Old"},
//	    Title:     "Morning nasheed",
//	})
//	if res.Passthrough {
//	    // bot disabled, send the file back untouched
//	}
package engine
