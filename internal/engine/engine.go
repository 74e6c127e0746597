package engine

import (
	"strings"

	"github.com/handiism/tagbot/internal/model"
	"github.com/handiism/tagbot/internal/transform"
)

// Input is everything Resolve needs besides the snapshot.
type Input struct {
	// Template overrides the snapshot's current template when set.
	Template *model.Template

	// Originals holds the tag values read from the file. Missing keys
	// count as empty.
	Originals map[model.FieldID]string

	// Title is the raw title, usually the caption or the file name.
	Title string
}

// Result is the outcome of one resolution.
type Result struct {
	// Passthrough is true when the bot is disabled. The file must then be
	// returned without touching its tags, and Fields is empty.
	Passthrough bool

	// Fields holds the value to write for every resolved field. A field
	// missing from the map is left as it is in the file.
	Fields map[model.FieldID]string
}

// Value returns the resolved value of f.
func (r Result) Value(f model.FieldID) (string, bool) {
	v, ok := r.Fields[f]
	return v, ok
}

// Change describes one field whose value differs from the original.
type Change struct {
	Field model.FieldID `json:"field"`
	From  string        `json:"from"`
	To    string        `json:"to"`
}

// Changes lists the resolved fields whose values differ from originals,
// in display order.
func (r Result) Changes(originals map[model.FieldID]string) []Change {
	var out []Change
	for _, f := range model.RuleFields {
		v, ok := r.Fields[f]
		if !ok || v == originals[f] {
			continue
		}
		out = append(out, Change{Field: f, From: originals[f], To: v})
	}
	return out
}

// Resolve computes the final value of every output field.
//
// For each template field:
//   - an optional field the template does not mention is skipped;
//   - a core field the template does not mention counts as empty;
//   - an empty value or the field's placeholder keeps the original value,
//     and leaves the field unset when there is none;
//   - anything else goes through link removal, replacements and footers.
//
// The title always goes through the text rules, there is no "keep" case.
// Resolve never fails.
func Resolve(snap *model.Snapshot, in Input) Result {
	if !snap.Toggles.BotEnabled {
		return Result{Passthrough: true, Fields: map[model.FieldID]string{}}
	}

	tpl := snap.CurrentTemplate()
	if in.Template != nil {
		tpl = *in.Template
	}
	tr := transform.New(snap)

	fields := make(map[model.FieldID]string, len(model.RuleFields))
	for _, f := range model.TemplateFields {
		raw, present := tpl.Value(f)
		if !present && f.Kind() == model.KindOptional {
			continue
		}

		value := strings.TrimSpace(raw)
		if value == "" || value == f.Placeholder() {
			if orig := in.Originals[f]; orig != "" {
				fields[f] = orig
			}
			continue
		}
		fields[f] = tr.Apply(value, f)
	}

	fields[model.FieldTitle] = tr.Apply(in.Title, model.FieldTitle)

	return Result{Fields: fields}
}
