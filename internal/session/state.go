package session

import "fmt"

// State is the step an actor's workflow is waiting on.
type State int

const (
	Idle State = iota
	AwaitingSourceChannel
	AwaitingTargetChannel
	AwaitingReplacementName
	AwaitingReplacementOriginal
	AwaitingReplacementNew
	AwaitingReplacementFields
	AwaitingFooterName
	AwaitingFooterText
	AwaitingFooterFields
	AwaitingAlbumCover
	AwaitingTemplateName
	EditingTemplateDraft
	AwaitingTemplateField
	AwaitingRuleField
	AwaitingResetConfirm
)

var stateNames = map[State]string{
	Idle:                        "idle",
	AwaitingSourceChannel:       "awaiting_source_channel",
	AwaitingTargetChannel:       "awaiting_target_channel",
	AwaitingReplacementName:     "awaiting_replacement_name",
	AwaitingReplacementOriginal: "awaiting_replacement_original",
	AwaitingReplacementNew:      "awaiting_replacement_new",
	AwaitingReplacementFields:   "awaiting_replacement_fields",
	AwaitingFooterName:          "awaiting_footer_name",
	AwaitingFooterText:          "awaiting_footer_text",
	AwaitingFooterFields:        "awaiting_footer_fields",
	AwaitingAlbumCover:          "awaiting_album_cover",
	AwaitingTemplateName:        "awaiting_template_name",
	EditingTemplateDraft:        "editing_template_draft",
	AwaitingTemplateField:       "awaiting_template_field",
	AwaitingRuleField:           "awaiting_rule_field",
	AwaitingResetConfirm:        "awaiting_reset_confirm",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// SelectingFields reports whether the state is a multi-select of rule
// target fields.
func (s State) SelectingFields() bool {
	return s == AwaitingReplacementFields || s == AwaitingFooterFields
}

// ExpectsText reports whether the state waits for free text.
func (s State) ExpectsText() bool {
	switch s {
	case AwaitingSourceChannel, AwaitingTargetChannel,
		AwaitingReplacementName, AwaitingReplacementOriginal, AwaitingReplacementNew,
		AwaitingFooterName, AwaitingFooterText,
		AwaitingTemplateName, AwaitingTemplateField, AwaitingRuleField:
		return true
	}
	return false
}
