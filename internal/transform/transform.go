package transform

import (
	"regexp"
	"strings"

	"github.com/handiism/tagbot/internal/model"
)

var linkPatterns = []*regexp.Regexp{
	regexp.MustCompile(`https?://\S+`),
	regexp.MustCompile(`www\.\S+`),
	// Handles may be written in any script.
	regexp.MustCompile(`@[\p{L}\p{N}_]+`),
}

// RemoveLinks deletes URLs and "@mentions" from text. Surrounding
// whitespace and letter case are left alone.
func RemoveLinks(text string) string {
	for _, re := range linkPatterns {
		text = re.ReplaceAllString(text, "")
	}
	return text
}

// Transformer applies the text rules of one snapshot.
//
// A Transformer holds its own copy of the rules, so it stays valid after
// the snapshot it was built from is replaced.
type Transformer struct {
	toggles      model.Toggles
	replacements []model.ReplacementRule
	footers      []model.FooterRule
}

// New builds a Transformer from the rules and toggles of snap.
func New(snap *model.Snapshot) *Transformer {
	return &Transformer{
		toggles:      snap.Toggles,
		replacements: snap.Replacements.Clone().Rules,
		footers:      snap.Footers.Clone().Rules,
	}
}

// StripLinks removes links when link stripping is enabled.
func (t *Transformer) StripLinks(text string) string {
	if !t.toggles.LinkStripping {
		return text
	}
	return RemoveLinks(text)
}

// ApplyReplacements runs every replacement rule targeting field, in id
// order. Each rule replaces all occurrences of its original text.
func (t *Transformer) ApplyReplacements(text string, field model.FieldID) string {
	if !t.toggles.ReplacementEnabled {
		return text
	}
	for _, r := range t.replacements {
		if r.Original == "" || !r.Fields.Has(field) {
			continue
		}
		text = strings.ReplaceAll(text, r.Original, r.Replacement)
	}
	return text
}

// ApplyFooter appends the text of every footer targeting field, in id
// order.
func (t *Transformer) ApplyFooter(text string, field model.FieldID) string {
	if !t.toggles.FooterEnabled {
		return text
	}
	for _, f := range t.footers {
		if f.Fields.Has(field) {
			text += f.Text
		}
	}
	return text
}

// Apply strips links, then replaces, then appends footers.
func (t *Transformer) Apply(text string, field model.FieldID) string {
	text = t.StripLinks(text)
	text = t.ApplyReplacements(text, field)
	return t.ApplyFooter(text, field)
}
