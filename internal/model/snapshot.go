package model

import (
	"fmt"
	"regexp"
	"strings"
)

// SnapshotVersion is the schema version written with every snapshot.
const SnapshotVersion = 2

// Snapshot is the complete persisted configuration of the bot.
//
// A Snapshot is a plain value: callers that share one (see package state)
// mutate a Clone and swap it in, so a failed mutation never leaves a
// half-applied change behind.
type Snapshot struct {
	Version int `json:"version"`

	// Templates maps a template key to its template.
	Templates map[string]Template `json:"templates"`

	// CurrentKey names the template the engine uses. Always present in
	// Templates.
	CurrentKey string `json:"current_template"`

	Replacements RuleSet[ReplacementRule] `json:"replacement_rules"`
	Footers      RuleSet[FooterRule]      `json:"footer_rules"`

	Toggles Toggles `json:"toggles"`

	// SourceChannel is the channel whose audio posts are processed. Empty
	// means none.
	SourceChannel string `json:"source_channel,omitempty"`

	// TargetChannel receives republished files. Empty means none.
	TargetChannel string `json:"target_channel,omitempty"`

	// CoverRef locates the stored album cover. Empty means no cover.
	CoverRef string `json:"album_cover,omitempty"`
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	out := *s
	out.Templates = make(map[string]Template, len(s.Templates))
	for k, t := range s.Templates {
		out.Templates[k] = t.Clone()
	}
	out.Replacements = s.Replacements.Clone()
	out.Footers = s.Footers.Clone()
	return &out
}

// Normalize repairs a snapshot decoded from storage so that its invariants
// hold: at least one template, a current key that resolves, valid rule ids.
// It returns true when anything had to change.
func (s *Snapshot) Normalize() bool {
	changed := false
	if s.Version != SnapshotVersion {
		s.Version = SnapshotVersion
		changed = true
	}
	if len(s.Templates) == 0 {
		def := ResetSnapshot()
		s.Templates = def.Templates
		s.CurrentKey = def.CurrentKey
		changed = true
	}
	for k, t := range s.Templates {
		if t.Fields == nil {
			t.Fields = map[FieldID]string{}
			s.Templates[k] = t
			changed = true
		}
		if strings.TrimSpace(t.Name) == "" {
			t.Name = k
			s.Templates[k] = t
			changed = true
		}
	}
	if _, ok := s.Templates[s.CurrentKey]; !ok {
		s.CurrentKey = s.TemplateKeys()[0]
		if _, ok := s.Templates[DefaultTemplateKey]; ok {
			s.CurrentKey = DefaultTemplateKey
		}
		changed = true
	}
	if s.Replacements.repair() {
		changed = true
	}
	if s.Footers.repair() {
		changed = true
	}
	return changed
}

var channelIDPattern = regexp.MustCompile(`^-?\d+$`)

// NormalizeChannel turns user input into a channel reference the chat API
// accepts. Numeric ids (such as "-1001234567890") and "@name" references
// are kept. Bare names get an "@" prefix. A t.me link is reduced to its
// name.
func NormalizeChannel(raw string) (string, error) {
	ref := strings.TrimSpace(raw)
	for _, prefix := range []string{"https://t.me/", "http://t.me/", "t.me/"} {
		ref = strings.TrimPrefix(ref, prefix)
	}
	ref = strings.TrimSuffix(ref, "/")
	if ref == "" || ref == "@" {
		return "", fmt.Errorf("%w: channel reference is required", ErrInvalidInput)
	}
	if strings.ContainsAny(ref, " \t\n") {
		return "", fmt.Errorf("%w: channel reference %q contains spaces", ErrInvalidInput, raw)
	}
	if strings.HasPrefix(ref, "@") || channelIDPattern.MatchString(ref) {
		return ref, nil
	}
	return "@" + ref, nil
}

// SetSourceChannel stores the normalized source channel reference.
func (s *Snapshot) SetSourceChannel(raw string) error {
	ref, err := NormalizeChannel(raw)
	if err != nil {
		return err
	}
	s.SourceChannel = ref
	return nil
}

// SetTargetChannel stores the normalized target channel reference.
func (s *Snapshot) SetTargetChannel(raw string) error {
	ref, err := NormalizeChannel(raw)
	if err != nil {
		return err
	}
	s.TargetChannel = ref
	return nil
}

// ClearSourceChannel forgets the source channel.
func (s *Snapshot) ClearSourceChannel() { s.SourceChannel = "" }

// ClearTargetChannel forgets the target channel.
func (s *Snapshot) ClearTargetChannel() { s.TargetChannel = "" }

// SetCover records where the album cover is stored.
func (s *Snapshot) SetCover(ref string) error {
	if strings.TrimSpace(ref) == "" {
		return fmt.Errorf("%w: cover reference is required", ErrInvalidInput)
	}
	s.CoverRef = ref
	return nil
}

// ClearCover forgets the album cover.
func (s *Snapshot) ClearCover() { s.CoverRef = "" }

// HasCover reports whether an album cover is configured.
func (s *Snapshot) HasCover() bool { return s.CoverRef != "" }

// IsSourceChannel reports whether a chat matches the configured source
// channel, either by numeric id or by "@username".
func (s *Snapshot) IsSourceChannel(chatID int64, username string) bool {
	if s.SourceChannel == "" {
		return false
	}
	if username != "" && strings.EqualFold(s.SourceChannel, "@"+strings.TrimPrefix(username, "@")) {
		return true
	}
	return s.SourceChannel == fmt.Sprintf("%d", chatID)
}
