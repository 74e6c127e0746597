package session

import (
	"encoding/json"
	"fmt"

	"github.com/handiism/tagbot/internal/model"
)

// Kind names a workflow.
type Kind string

const (
	KindSourceChannel Kind = "source_channel"
	KindTargetChannel Kind = "target_channel"
	KindReplacement   Kind = "replacement"
	KindFooter        Kind = "footer"
	KindAlbumCover    Kind = "album_cover"
	KindTemplate      Kind = "template"
	KindTemplateField Kind = "template_field"
	KindRuleField     Kind = "rule_field"
	KindReset         Kind = "reset"
)

// Scratch is the per-actor data of an unfinished workflow. Exactly one of
// the types below.
type Scratch interface {
	Kind() Kind

	// initial is the state a workflow starts in.
	initial() State
}

// ReplacementDraft collects a new replacement rule.
type ReplacementDraft struct {
	Name        string         `json:"name"`
	Original    string         `json:"original"`
	Replacement string         `json:"replacement"`
	Fields      model.FieldSet `json:"fields,omitempty"`
}

func (*ReplacementDraft) Kind() Kind     { return KindReplacement }
func (*ReplacementDraft) initial() State { return AwaitingReplacementName }

// FooterDraft collects a new footer rule.
type FooterDraft struct {
	Name   string         `json:"name"`
	Text   string         `json:"text"`
	Fields model.FieldSet `json:"fields,omitempty"`
}

func (*FooterDraft) Kind() Kind     { return KindFooter }
func (*FooterDraft) initial() State { return AwaitingFooterName }

// TemplateDraft collects a new template. Editing is the field currently
// being typed in, if any.
type TemplateDraft struct {
	Name    string                   `json:"name"`
	Fields  map[model.FieldID]string `json:"fields"`
	Editing model.FieldID            `json:"editing,omitempty"`
}

func (*TemplateDraft) Kind() Kind     { return KindTemplate }
func (*TemplateDraft) initial() State { return AwaitingTemplateName }

// TemplateFieldEdit changes one field of a stored template.
type TemplateFieldEdit struct {
	Key   string        `json:"key"`
	Field model.FieldID `json:"field"`
}

func (*TemplateFieldEdit) Kind() Kind     { return KindTemplateField }
func (*TemplateFieldEdit) initial() State { return AwaitingTemplateField }

// RuleKind tells which rule set a RuleFieldEdit targets.
type RuleKind string

const (
	RuleReplacement RuleKind = "replacement"
	RuleFooter      RuleKind = "footer"
)

// RuleFieldEdit changes one text part of a stored rule.
type RuleFieldEdit struct {
	Rule RuleKind       `json:"rule"`
	ID   int            `json:"id"`
	Part model.RulePart `json:"part"`
}

func (*RuleFieldEdit) Kind() Kind     { return KindRuleField }
func (*RuleFieldEdit) initial() State { return AwaitingRuleField }

// ChannelInput waits for a channel reference.
type ChannelInput struct {
	Target bool `json:"target"`
}

func (c *ChannelInput) Kind() Kind {
	if c.Target {
		return KindTargetChannel
	}
	return KindSourceChannel
}

func (c *ChannelInput) initial() State {
	if c.Target {
		return AwaitingTargetChannel
	}
	return AwaitingSourceChannel
}

// CoverInput waits for a photo.
type CoverInput struct{}

func (*CoverInput) Kind() Kind     { return KindAlbumCover }
func (*CoverInput) initial() State { return AwaitingAlbumCover }

// ResetConfirm waits for the reset to be confirmed.
type ResetConfirm struct{}

func (*ResetConfirm) Kind() Kind     { return KindReset }
func (*ResetConfirm) initial() State { return AwaitingResetConfirm }

func newScratch(kind Kind) (Scratch, error) {
	switch kind {
	case KindReplacement:
		return &ReplacementDraft{}, nil
	case KindFooter:
		return &FooterDraft{}, nil
	case KindTemplate:
		return &TemplateDraft{}, nil
	case KindTemplateField:
		return &TemplateFieldEdit{}, nil
	case KindRuleField:
		return &RuleFieldEdit{}, nil
	case KindSourceChannel:
		return &ChannelInput{}, nil
	case KindTargetChannel:
		return &ChannelInput{Target: true}, nil
	case KindAlbumCover:
		return &CoverInput{}, nil
	case KindReset:
		return &ResetConfirm{}, nil
	}
	return nil, fmt.Errorf("unknown workflow %q", kind)
}

func decodeScratch(kind Kind, raw json.RawMessage) (Scratch, error) {
	s, err := newScratch(kind)
	if err != nil {
		return nil, err
	}
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, s); err != nil {
			return nil, fmt.Errorf("decode %s scratch: %w", kind, err)
		}
	}
	return s, nil
}
