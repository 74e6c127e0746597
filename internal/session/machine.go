package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/handiism/tagbot/internal/model"
	"github.com/handiism/tagbot/internal/state"
)

// ErrUnauthorized is returned for every call made by someone other than
// the administrator.
var ErrUnauthorized = errors.New("unauthorized")

// ResetFunc wipes all stored configuration. Called when a reset is
// confirmed.
type ResetFunc func(ctx context.Context) error

// Step reports the effect of one input.
type Step struct {
	// State is the state after the input.
	State State

	// Scratch is a copy of the workflow data after the input. Nil once the
	// workflow finished.
	Scratch Scratch

	// Outcome is set when the input completed the workflow.
	Outcome *Outcome
}

// Done reports whether the workflow finished.
func (s Step) Done() bool { return s.Outcome != nil }

// Outcome describes a committed workflow.
type Outcome struct {
	Kind Kind

	// Key is the template key for template workflows.
	Key string

	// RuleID is the rule id for rule workflows.
	RuleID int

	// Value is the stored value: a channel reference, a cover reference,
	// or the new text of a field.
	Value string
}

// Machine drives the multi-step editing workflows of the administrator.
//
// Every call is keyed by actor id. Calls from anyone but the configured
// administrator fail with ErrUnauthorized and change nothing. Calls are
// serialized, so concurrent updates for one actor never interleave.
type Machine struct {
	admin int64
	store Store
	state *state.Manager
	reset ResetFunc

	mu  sync.Mutex
	now func() time.Time
}

// NewMachine creates a machine for the administrator admin.
func NewMachine(admin int64, store Store, mgr *state.Manager, reset ResetFunc) *Machine {
	return &Machine{
		admin: admin,
		store: store,
		state: mgr,
		reset: reset,
		now:   time.Now,
	}
}

// Authorized reports whether actor may use the machine.
func (m *Machine) Authorized(actor int64) bool {
	return actor != 0 && actor == m.admin
}

// Begin starts the workflow described by scratch. A workflow already in
// progress is discarded and discarded is true, so the caller can tell the
// actor.
func (m *Machine) Begin(ctx context.Context, actor int64, scratch Scratch) (discarded bool, err error) {
	if !m.Authorized(actor) {
		return false, ErrUnauthorized
	}
	if scratch == nil {
		return false, fmt.Errorf("%w: no workflow given", model.ErrInvalidInput)
	}
	if err := m.checkTarget(scratch); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	prev, err := m.store.Get(ctx, actor)
	if err != nil {
		return false, fmt.Errorf("load session: %w", err)
	}
	discarded = prev != nil && prev.State != Idle

	rec := &Record{Actor: actor, State: scratch.initial(), Scratch: scratch, UpdatedAt: m.now()}
	if err := m.store.Put(ctx, rec); err != nil {
		return false, fmt.Errorf("save session: %w", err)
	}
	return discarded, nil
}

// checkTarget makes sure edit workflows point at something that exists.
func (m *Machine) checkTarget(scratch Scratch) error {
	switch s := scratch.(type) {
	case *TemplateFieldEdit:
		snap := m.state.View()
		if _, ok := snap.Templates[s.Key]; !ok {
			return fmt.Errorf("%w: template %q", model.ErrNotFound, s.Key)
		}
		if s.Field == model.FieldTitle || !s.Field.Valid() {
			return fmt.Errorf("%w: field %q is not part of templates", model.ErrInvalidInput, s.Field)
		}
	case *RuleFieldEdit:
		snap := m.state.View()
		switch s.Rule {
		case RuleReplacement:
			if _, ok := snap.Replacements.Get(s.ID); !ok {
				return fmt.Errorf("%w: rule %d", model.ErrNotFound, s.ID)
			}
			if s.Part != model.PartName && s.Part != model.PartOriginal && s.Part != model.PartReplacement {
				return fmt.Errorf("%w: replacement rules have no %q", model.ErrInvalidInput, s.Part)
			}
		case RuleFooter:
			if _, ok := snap.Footers.Get(s.ID); !ok {
				return fmt.Errorf("%w: footer %d", model.ErrNotFound, s.ID)
			}
			if s.Part != model.PartName && s.Part != model.PartText {
				return fmt.Errorf("%w: footers have no %q", model.ErrInvalidInput, s.Part)
			}
		default:
			return fmt.Errorf("%w: unknown rule kind %q", model.ErrInvalidInput, s.Rule)
		}
	case *TemplateDraft:
		if s.Fields == nil {
			s.Fields = map[model.FieldID]string{}
		}
	}
	return nil
}

// Current returns the actor's workflow data and state. Scratch is nil when
// the actor is idle.
func (m *Machine) Current(ctx context.Context, actor int64) (Scratch, State, error) {
	if !m.Authorized(actor) {
		return nil, Idle, ErrUnauthorized
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.store.Get(ctx, actor)
	if err != nil {
		return nil, Idle, fmt.Errorf("load session: %w", err)
	}
	if rec == nil {
		return nil, Idle, nil
	}
	return rec.Scratch, rec.State, nil
}

// Cancel discards the actor's workflow. It reports whether there was one.
func (m *Machine) Cancel(ctx context.Context, actor int64) (bool, error) {
	if !m.Authorized(actor) {
		return false, ErrUnauthorized
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.store.Get(ctx, actor)
	if err != nil {
		return false, fmt.Errorf("load session: %w", err)
	}
	if err := m.store.Delete(ctx, actor); err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}
	return rec != nil && rec.State != Idle, nil
}

// Input feeds free text into the current step. Empty text fails with
// ErrInvalidInput and keeps the workflow as it was. So does a value the
// configuration rejects, letting the actor try again.
func (m *Machine) Input(ctx context.Context, actor int64, text string) (Step, error) {
	if !m.Authorized(actor) {
		return Step{}, ErrUnauthorized
	}
	if strings.TrimSpace(text) == "" {
		return Step{}, fmt.Errorf("%w: empty input", model.ErrInvalidInput)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.active(ctx, actor)
	if err != nil {
		return Step{}, err
	}
	trimmed := strings.TrimSpace(text)

	switch s := rec.Scratch.(type) {
	case *ChannelInput:
		var ref string
		err := m.state.Update(ctx, func(snap *model.Snapshot) error {
			if s.Target {
				if err := snap.SetTargetChannel(trimmed); err != nil {
					return err
				}
				ref = snap.TargetChannel
				return nil
			}
			if err := snap.SetSourceChannel(trimmed); err != nil {
				return err
			}
			ref = snap.SourceChannel
			return nil
		})
		if err != nil {
			return Step{}, err
		}
		return m.finish(ctx, actor, &Outcome{Kind: s.Kind(), Value: ref})

	case *ReplacementDraft:
		switch rec.State {
		case AwaitingReplacementName:
			s.Name = trimmed
			rec.State = AwaitingReplacementOriginal
		case AwaitingReplacementOriginal:
			s.Original = text
			rec.State = AwaitingReplacementNew
		case AwaitingReplacementNew:
			s.Replacement, _ = model.NormalizeFieldInput(text)
			if s.Replacement != "" {
				s.Replacement = text
			}
			s.Fields = model.NewFieldSet()
			rec.State = AwaitingReplacementFields
		default:
			return Step{}, fmt.Errorf("%w: choose the fields, then save", model.ErrInvalidOperation)
		}

	case *FooterDraft:
		switch rec.State {
		case AwaitingFooterName:
			s.Name = trimmed
			rec.State = AwaitingFooterText
		case AwaitingFooterText:
			s.Text = text
			s.Fields = model.NewFieldSet()
			rec.State = AwaitingFooterFields
		default:
			return Step{}, fmt.Errorf("%w: choose the fields, then save", model.ErrInvalidOperation)
		}

	case *TemplateDraft:
		switch rec.State {
		case AwaitingTemplateName:
			tpl := model.NewTemplate(trimmed)
			s.Name = tpl.Name
			s.Fields = tpl.Fields
			rec.State = EditingTemplateDraft
		case AwaitingTemplateField:
			value, _ := model.NormalizeFieldInput(text)
			if s.Fields == nil {
				s.Fields = map[model.FieldID]string{}
			}
			s.Fields[s.Editing] = value
			s.Editing = ""
			rec.State = EditingTemplateDraft
		default:
			return Step{}, fmt.Errorf("%w: choose a field to edit, or save", model.ErrInvalidOperation)
		}

	case *TemplateFieldEdit:
		err := m.state.Update(ctx, func(snap *model.Snapshot) error {
			return snap.SetTemplateField(s.Key, s.Field, text)
		})
		if err != nil {
			return Step{}, err
		}
		value, _ := model.NormalizeFieldInput(text)
		return m.finish(ctx, actor, &Outcome{Kind: s.Kind(), Key: s.Key, Value: value})

	case *RuleFieldEdit:
		var value string
		err := m.state.Update(ctx, func(snap *model.Snapshot) error {
			if s.Rule == RuleFooter {
				r, err := snap.UpdateFooterRule(s.ID, s.Part, text)
				value = r.Text
				if s.Part == model.PartName {
					value = r.Name
				}
				return err
			}
			r, err := snap.UpdateReplacementRule(s.ID, s.Part, text)
			switch s.Part {
			case model.PartName:
				value = r.Name
			case model.PartOriginal:
				value = r.Original
			default:
				value = r.Replacement
			}
			return err
		})
		if err != nil {
			return Step{}, err
		}
		return m.finish(ctx, actor, &Outcome{Kind: s.Kind(), RuleID: s.ID, Value: value})

	case *CoverInput:
		return Step{}, fmt.Errorf("%w: send a photo", model.ErrInvalidInput)

	case *ResetConfirm:
		return Step{}, fmt.Errorf("%w: confirm or cancel the reset", model.ErrInvalidOperation)

	default:
		return Step{}, fmt.Errorf("%w: unknown workflow", model.ErrInvalidOperation)
	}

	return m.save(ctx, rec)
}

// ToggleField adds or removes a target field in the rule being drafted
// and returns the resulting selection.
func (m *Machine) ToggleField(ctx context.Context, actor int64, field model.FieldID) (model.FieldSet, error) {
	if !m.Authorized(actor) {
		return nil, ErrUnauthorized
	}
	if !field.Valid() {
		return nil, fmt.Errorf("%w: unknown field %q", model.ErrInvalidInput, field)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.active(ctx, actor)
	if err != nil {
		return nil, err
	}
	if !rec.State.SelectingFields() {
		return nil, fmt.Errorf("%w: not choosing fields", model.ErrInvalidOperation)
	}

	var set model.FieldSet
	switch s := rec.Scratch.(type) {
	case *ReplacementDraft:
		if s.Fields == nil {
			s.Fields = model.NewFieldSet()
		}
		s.Fields.Toggle(field)
		set = s.Fields
	case *FooterDraft:
		if s.Fields == nil {
			s.Fields = model.NewFieldSet()
		}
		s.Fields.Toggle(field)
		set = s.Fields
	default:
		return nil, fmt.Errorf("%w: not choosing fields", model.ErrInvalidOperation)
	}

	if _, err := m.save(ctx, rec); err != nil {
		return nil, err
	}
	return set.Clone(), nil
}

// SelectField picks the field of the template draft to type a value for.
func (m *Machine) SelectField(ctx context.Context, actor int64, field model.FieldID) (Step, error) {
	if !m.Authorized(actor) {
		return Step{}, ErrUnauthorized
	}
	if field == model.FieldTitle || !field.Valid() {
		return Step{}, fmt.Errorf("%w: field %q is not part of templates", model.ErrInvalidInput, field)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.active(ctx, actor)
	if err != nil {
		return Step{}, err
	}
	draft, ok := rec.Scratch.(*TemplateDraft)
	if !ok || (rec.State != EditingTemplateDraft && rec.State != AwaitingTemplateField) {
		return Step{}, fmt.Errorf("%w: no template draft", model.ErrInvalidOperation)
	}
	draft.Editing = field
	rec.State = AwaitingTemplateField
	return m.save(ctx, rec)
}

// Save commits the draft of the current workflow. Rules without target
// fields fail with ErrInvalidInput and stay in the selection step.
func (m *Machine) Save(ctx context.Context, actor int64) (Outcome, error) {
	if !m.Authorized(actor) {
		return Outcome{}, ErrUnauthorized
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.active(ctx, actor)
	if err != nil {
		return Outcome{}, err
	}

	var out Outcome
	switch s := rec.Scratch.(type) {
	case *ReplacementDraft:
		if rec.State != AwaitingReplacementFields {
			return Outcome{}, fmt.Errorf("%w: the rule is not complete", model.ErrInvalidOperation)
		}
		if len(s.Fields) == 0 {
			return Outcome{}, fmt.Errorf("%w: select at least one field", model.ErrInvalidInput)
		}
		err = m.state.Update(ctx, func(snap *model.Snapshot) error {
			r, err := snap.AddReplacementRule(s.Name, s.Original, s.Replacement, s.Fields)
			out = Outcome{Kind: s.Kind(), RuleID: r.ID, Value: r.Name}
			return err
		})

	case *FooterDraft:
		if rec.State != AwaitingFooterFields {
			return Outcome{}, fmt.Errorf("%w: the footer is not complete", model.ErrInvalidOperation)
		}
		if len(s.Fields) == 0 {
			return Outcome{}, fmt.Errorf("%w: select at least one field", model.ErrInvalidInput)
		}
		err = m.state.Update(ctx, func(snap *model.Snapshot) error {
			r, err := snap.AddFooterRule(s.Name, s.Text, s.Fields)
			out = Outcome{Kind: s.Kind(), RuleID: r.ID, Value: r.Name}
			return err
		})

	case *TemplateDraft:
		if rec.State != EditingTemplateDraft && rec.State != AwaitingTemplateField {
			return Outcome{}, fmt.Errorf("%w: the template has no name yet", model.ErrInvalidOperation)
		}
		err = m.state.Update(ctx, func(snap *model.Snapshot) error {
			key, err := snap.AddTemplate(s.Name, s.Fields)
			out = Outcome{Kind: s.Kind(), Key: key, Value: s.Name}
			return err
		})

	case *ResetConfirm:
		if m.reset == nil {
			return Outcome{}, fmt.Errorf("%w: reset is not available", model.ErrInvalidOperation)
		}
		err = m.reset(ctx)
		out = Outcome{Kind: s.Kind()}

	default:
		return Outcome{}, fmt.Errorf("%w: nothing to save", model.ErrInvalidOperation)
	}
	if err != nil {
		return Outcome{}, err
	}

	if err := m.store.Delete(ctx, actor); err != nil {
		return Outcome{}, fmt.Errorf("delete session: %w", err)
	}
	return out, nil
}

// AcceptCover completes the cover workflow with a stored cover reference.
func (m *Machine) AcceptCover(ctx context.Context, actor int64, ref string) (Outcome, error) {
	if !m.Authorized(actor) {
		return Outcome{}, ErrUnauthorized
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.active(ctx, actor)
	if err != nil {
		return Outcome{}, err
	}
	s, ok := rec.Scratch.(*CoverInput)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: not waiting for a cover", model.ErrInvalidOperation)
	}

	err = m.state.Update(ctx, func(snap *model.Snapshot) error {
		return snap.SetCover(ref)
	})
	if err != nil {
		return Outcome{}, err
	}
	step, err := m.finish(ctx, actor, &Outcome{Kind: s.Kind(), Value: ref})
	if err != nil {
		return Outcome{}, err
	}
	return *step.Outcome, nil
}

// active loads the actor's record and fails when there is no workflow.
func (m *Machine) active(ctx context.Context, actor int64) (*Record, error) {
	rec, err := m.store.Get(ctx, actor)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if rec == nil || rec.State == Idle || rec.Scratch == nil {
		return nil, fmt.Errorf("%w: no workflow in progress", model.ErrInvalidOperation)
	}
	return rec, nil
}

func (m *Machine) save(ctx context.Context, rec *Record) (Step, error) {
	rec.UpdatedAt = m.now()
	if err := m.store.Put(ctx, rec); err != nil {
		return Step{}, fmt.Errorf("save session: %w", err)
	}
	return Step{State: rec.State, Scratch: rec.Scratch}, nil
}

func (m *Machine) finish(ctx context.Context, actor int64, out *Outcome) (Step, error) {
	if err := m.store.Delete(ctx, actor); err != nil {
		return Step{}, fmt.Errorf("delete session: %w", err)
	}
	return Step{State: Idle, Outcome: out}, nil
}
