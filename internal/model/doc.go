// Package model defines the data the tag bot works with: metadata fields,
// templates, replacement and footer rules, feature toggles, and the
// Snapshot that bundles them into one persisted configuration.
//
// # Fields
//
// Every metadata slot is a FieldID. Core fields (artist, album, year, ...)
// are always resolved; optional fields (comment, lyrics, ...) are only
// written when the current template mentions them. FieldTitle can be
// targeted by rules but never comes from a template.
//
// # Templates
//
// A Template maps fields to template strings. An empty string or the
// field's placeholder keeps the file's original value:
//
//	snap := model.DefaultSnapshot()
//	key, err := snap.AddTemplate("Friday", map[model.FieldID]string{
//	    model.FieldArtist: "$artist",
//	    model.FieldGenre:  "Nasheed",
//	})
//	_ = snap.SetCurrentTemplate(key)
//
// # Rules
//
// Replacement and footer rules live in a RuleSet. Ids are handed out in
// increasing order and never reused, and rules apply in id order:
//
//	fields := model.NewFieldSet(model.FieldTitle, model.FieldAlbum)
//	rule, err := snap.AddReplacementRule("fix spelling", "البوم", "ألبوم", fields)
//
// All mutations return errors wrapping ErrNotFound, ErrInvalidInput or
// ErrInvalidOperation and leave the snapshot untouched on failure.
package model
