package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Template maps fields to template strings.
//
// A template string is either empty, the field's placeholder (e.g.
// "$artist"), or literal text. Empty and placeholder both mean "keep the
// original value". A key missing from Fields means the field is absent
// from the template, which matters for optional fields only.
//
// Example:
//
//	tpl := Template{
//	    Name: "Nasheed",
//	    Fields: map[FieldID]string{
//	        FieldArtist: "$artist", // keep whatever the file had
//	        FieldGenre:  "إنشاد",   // always overwrite
//	    },
//	}
type Template struct {
	// Name is the display name. Never empty.
	Name string `json:"name"`

	// Fields holds the template string of every field present in the
	// template. FieldTitle is never stored here.
	Fields map[FieldID]string `json:"fields"`
}

// Value returns the template string for f and whether f is present.
func (t Template) Value(f FieldID) (string, bool) {
	v, ok := t.Fields[f]
	return v, ok
}

// Clone returns an independent copy of the template.
func (t Template) Clone() Template {
	fields := make(map[FieldID]string, len(t.Fields))
	for k, v := range t.Fields {
		fields[k] = v
	}
	return Template{Name: t.Name, Fields: fields}
}

// NewTemplate returns a template pre-filled with starter values, the way a
// freshly created template is offered for editing before it is saved.
func NewTemplate(name string) Template {
	return Template{
		Name: strings.TrimSpace(name),
		Fields: map[FieldID]string{
			FieldArtist:      "فنان جديد",
			FieldAlbumArtist: "فنان الألبوم الجديد",
			FieldAlbum:       "ألبوم جديد",
			FieldGenre:       "نوع جديد",
			FieldYear:        "2025",
			FieldPublisher:   "ناشر جديد",
			FieldCopyright:   "© 2025 جميع الحقوق محفوظة",
			FieldComment:     "تعليق على الملف",
			FieldWebsite:     "https://example.com",
			FieldComposer:    "ملحن جديد",
			FieldLyrics:      "كلمات الأغنية هنا",
			FieldDescription: "وصف للملف الصوتي",
		},
	}
}

// clearTokens are inputs that mean "empty this field".
var clearTokens = map[string]struct{}{
	"-":     {},
	"فارغ":  {},
	"empty": {},
	"clear": {},
	"null":  {},
	"none":  {},
}

// NormalizeFieldInput trims raw user input for a template field and maps
// the clear tokens to the empty string. The second result reports whether
// the input was a clear request.
func NormalizeFieldInput(raw string) (string, bool) {
	v := strings.TrimSpace(raw)
	if _, ok := clearTokens[strings.ToLower(v)]; ok {
		return "", true
	}
	return v, v == ""
}

// TemplateKeys returns the template keys in sorted order.
func (s *Snapshot) TemplateKeys() []string {
	keys := make([]string, 0, len(s.Templates))
	for k := range s.Templates {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CurrentTemplate returns the template the engine uses.
func (s *Snapshot) CurrentTemplate() Template {
	return s.Templates[s.CurrentKey]
}

// AddTemplate stores tpl under a key derived from name. On collision a
// numeric suffix is appended ("name_1", "name_2", ...) until the key is
// unique. The store grows by exactly one entry.
func (s *Snapshot) AddTemplate(name string, fields map[FieldID]string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: template name is required", ErrInvalidInput)
	}

	tpl := Template{Name: name, Fields: make(map[FieldID]string, len(fields))}
	for f, v := range fields {
		if f == FieldTitle || !f.Valid() {
			continue
		}
		tpl.Fields[f] = v
	}

	base := norm.NFC.String(name)
	key := base
	for i := 1; ; i++ {
		if _, exists := s.Templates[key]; !exists {
			break
		}
		key = base + "_" + strconv.Itoa(i)
	}

	if s.Templates == nil {
		s.Templates = make(map[string]Template)
	}
	s.Templates[key] = tpl
	return key, nil
}

// DeleteTemplate removes a template. The current template and the last
// remaining template cannot be deleted.
func (s *Snapshot) DeleteTemplate(key string) error {
	if _, ok := s.Templates[key]; !ok {
		return fmt.Errorf("%w: template %q", ErrNotFound, key)
	}
	if key == s.CurrentKey {
		return fmt.Errorf("%w: cannot delete the current template", ErrInvalidOperation)
	}
	if len(s.Templates) <= 1 {
		return fmt.Errorf("%w: cannot delete the last template", ErrInvalidOperation)
	}
	delete(s.Templates, key)
	return nil
}

// SetCurrentTemplate repoints the current template.
func (s *Snapshot) SetCurrentTemplate(key string) error {
	if _, ok := s.Templates[key]; !ok {
		return fmt.Errorf("%w: template %q", ErrNotFound, key)
	}
	s.CurrentKey = key
	return nil
}

// SetTemplateField updates one field of an existing template. Clear
// tokens store an empty value, which keeps the original tag value.
func (s *Snapshot) SetTemplateField(key string, field FieldID, raw string) error {
	tpl, ok := s.Templates[key]
	if !ok {
		return fmt.Errorf("%w: template %q", ErrNotFound, key)
	}
	if field == FieldTitle || !field.Valid() {
		return fmt.Errorf("%w: field %q is not part of templates", ErrInvalidInput, field)
	}
	value, _ := NormalizeFieldInput(raw)

	tpl = tpl.Clone()
	tpl.Fields[field] = value
	s.Templates[key] = tpl
	return nil
}
