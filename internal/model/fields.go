package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// FieldID identifies one metadata slot of an audio file.
//
// The set is closed: every template, rule and original-value lookup uses
// the same identifiers. Title is a FieldID so that rules can target it, but
// it is never read from a template.
type FieldID string

const (
	FieldTitle       FieldID = "title"
	FieldArtist      FieldID = "artist"
	FieldAlbumArtist FieldID = "album_artist"
	FieldAlbum       FieldID = "album"
	FieldGenre       FieldID = "genre"
	FieldYear        FieldID = "year"
	FieldPublisher   FieldID = "publisher"
	FieldCopyright   FieldID = "copyright"
	FieldComment     FieldID = "comment"
	FieldWebsite     FieldID = "website"
	FieldComposer    FieldID = "composer"
	FieldLyrics      FieldID = "lyrics"
	FieldDescription FieldID = "description"
)

// FieldKind tells whether a field is always written or may be absent
// from a template.
type FieldKind int

const (
	// KindCore fields are always resolved. A core field missing from a
	// template behaves like an empty value.
	KindCore FieldKind = iota

	// KindOptional fields are skipped entirely when missing from a template.
	KindOptional

	// KindTitle is reserved for FieldTitle.
	KindTitle
)

type fieldInfo struct {
	kind  FieldKind
	label string
}

var fieldInfos = map[FieldID]fieldInfo{
	FieldTitle:       {KindTitle, "Title"},
	FieldArtist:      {KindCore, "Artist"},
	FieldAlbumArtist: {KindCore, "Album artist"},
	FieldAlbum:       {KindCore, "Album"},
	FieldGenre:       {KindCore, "Genre"},
	FieldYear:        {KindCore, "Year"},
	FieldPublisher:   {KindCore, "Publisher"},
	FieldCopyright:   {KindCore, "Copyright"},
	FieldComment:     {KindOptional, "Comment"},
	FieldWebsite:     {KindOptional, "Website"},
	FieldComposer:    {KindOptional, "Composer"},
	FieldLyrics:      {KindOptional, "Lyrics"},
	FieldDescription: {KindOptional, "Description"},
}

// TemplateFields lists the fields a template can drive, core fields first,
// in display order.
var TemplateFields = []FieldID{
	FieldArtist,
	FieldAlbumArtist,
	FieldAlbum,
	FieldGenre,
	FieldYear,
	FieldPublisher,
	FieldCopyright,
	FieldComment,
	FieldWebsite,
	FieldComposer,
	FieldLyrics,
	FieldDescription,
}

// RuleFields lists the fields a replacement or footer rule can target.
var RuleFields = append([]FieldID{FieldTitle}, TemplateFields...)

// ParseFieldID converts a raw identifier into a FieldID.
func ParseFieldID(s string) (FieldID, error) {
	id := FieldID(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := fieldInfos[id]; !ok {
		return "", fmt.Errorf("%w: unknown field %q", ErrInvalidInput, s)
	}
	return id, nil
}

// Kind returns the field's kind.
func (f FieldID) Kind() FieldKind {
	return fieldInfos[f].kind
}

// Label returns a human readable name for the field.
func (f FieldID) Label() string {
	if info, ok := fieldInfos[f]; ok {
		return info.label
	}
	return string(f)
}

// Placeholder returns the reserved template value meaning "keep the
// original value", e.g. "$artist".
func (f FieldID) Placeholder() string {
	return "$" + string(f)
}

// Valid reports whether f is a known field.
func (f FieldID) Valid() bool {
	_, ok := fieldInfos[f]
	return ok
}

// FieldSet is the set of fields a rule applies to.
type FieldSet map[FieldID]struct{}

// NewFieldSet builds a set from the given fields.
func NewFieldSet(fields ...FieldID) FieldSet {
	set := make(FieldSet, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// Has reports whether f is in the set.
func (s FieldSet) Has(f FieldID) bool {
	_, ok := s[f]
	return ok
}

// Toggle adds f if absent and removes it otherwise.
func (s FieldSet) Toggle(f FieldID) {
	if s.Has(f) {
		delete(s, f)
		return
	}
	s[f] = struct{}{}
}

// Sorted returns the fields in RuleFields order.
func (s FieldSet) Sorted() []FieldID {
	out := make([]FieldID, 0, len(s))
	for _, f := range RuleFields {
		if s.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// Clone returns an independent copy.
func (s FieldSet) Clone() FieldSet {
	out := make(FieldSet, len(s))
	for f := range s {
		out[f] = struct{}{}
	}
	return out
}

// Labels returns the display labels of the set, comma separated.
func (s FieldSet) Labels() string {
	fields := s.Sorted()
	labels := make([]string, len(fields))
	for i, f := range fields {
		labels[i] = f.Label()
	}
	return strings.Join(labels, ", ")
}

// MarshalJSON encodes the set as a sorted list of identifiers.
func (s FieldSet) MarshalJSON() ([]byte, error) {
	ids := make([]string, 0, len(s))
	for f := range s {
		ids = append(ids, string(f))
	}
	sort.Strings(ids)
	return json.Marshal(ids)
}

// UnmarshalJSON decodes a list of identifiers, dropping unknown ones.
func (s *FieldSet) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	set := make(FieldSet, len(ids))
	for _, raw := range ids {
		if f, err := ParseFieldID(raw); err == nil {
			set[f] = struct{}{}
		}
	}
	*s = set
	return nil
}
