package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handiism/tagbot/internal/model"
	"github.com/handiism/tagbot/internal/state"
)

const admin int64 = 1001

func newTestMachine(t *testing.T, snap *model.Snapshot) (*Machine, *state.Manager) {
	t.Helper()
	if snap == nil {
		snap = model.ResetSnapshot()
	}
	mgr := state.NewManager(snap, nil, nil)
	m := NewMachine(admin, NewMemoryStore(time.Hour), mgr, func(ctx context.Context) error {
		mgr.Replace(ctx, model.ResetSnapshot())
		return nil
	})
	return m, mgr
}

func TestMachine_RejectsNonAdmin(t *testing.T) {
	ctx := context.Background()
	m, mgr := newTestMachine(t, nil)
	before := mgr.View()

	_, err := m.Begin(ctx, 7, &ChannelInput{Target: true})
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = m.Input(ctx, 7, "@x")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = m.Save(ctx, 7)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = m.ToggleField(ctx, 7, model.FieldTitle)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = m.Cancel(ctx, 7)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, _, err = m.Current(ctx, 7)
	assert.ErrorIs(t, err, ErrUnauthorized)

	assert.Equal(t, before, mgr.View())
}

func TestMachine_ReplacementWorkflow(t *testing.T) {
	ctx := context.Background()
	m, mgr := newTestMachine(t, nil)

	discarded, err := m.Begin(ctx, admin, &ReplacementDraft{})
	require.NoError(t, err)
	assert.False(t, discarded)

	step, err := m.Input(ctx, admin, "fix")
	require.NoError(t, err)
	assert.Equal(t, AwaitingReplacementOriginal, step.State)

	_, err = m.Input(ctx, admin, "   ")
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	_, st, _ := m.Current(ctx, admin)
	assert.Equal(t, AwaitingReplacementOriginal, st, "empty input keeps the state")

	step, err = m.Input(ctx, admin, "الشيخ")
	require.NoError(t, err)
	assert.Equal(t, AwaitingReplacementNew, step.State)

	step, err = m.Input(ctx, admin, "الإمام")
	require.NoError(t, err)
	assert.Equal(t, AwaitingReplacementFields, step.State)

	_, err = m.Save(ctx, admin)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	_, st, _ = m.Current(ctx, admin)
	assert.Equal(t, AwaitingReplacementFields, st)
	assert.Equal(t, 0, mgr.View().Replacements.Len())

	set, err := m.ToggleField(ctx, admin, model.FieldArtist)
	require.NoError(t, err)
	assert.True(t, set.Has(model.FieldArtist))
	set, err = m.ToggleField(ctx, admin, model.FieldTitle)
	require.NoError(t, err)
	set, err = m.ToggleField(ctx, admin, model.FieldTitle)
	require.NoError(t, err)
	assert.Equal(t, []model.FieldID{model.FieldArtist}, set.Sorted())

	out, err := m.Save(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, KindReplacement, out.Kind)
	assert.Equal(t, 1, out.RuleID)

	rule, ok := mgr.View().Replacements.Get(1)
	require.True(t, ok)
	assert.Equal(t, "الشيخ", rule.Original)
	assert.Equal(t, "الإمام", rule.Replacement)

	scratch, st, err := m.Current(ctx, admin)
	require.NoError(t, err)
	assert.Nil(t, scratch)
	assert.Equal(t, Idle, st)
}

func TestMachine_ReplacementClearTokenDeletes(t *testing.T) {
	ctx := context.Background()
	m, mgr := newTestMachine(t, nil)

	_, _ = m.Begin(ctx, admin, &ReplacementDraft{})
	_, _ = m.Input(ctx, admin, "strip")
	_, _ = m.Input(ctx, admin, "[HQ]")
	_, err := m.Input(ctx, admin, "-")
	require.NoError(t, err)
	_, _ = m.ToggleField(ctx, admin, model.FieldTitle)
	_, err = m.Save(ctx, admin)
	require.NoError(t, err)

	rule, _ := mgr.View().Replacements.Get(1)
	assert.Equal(t, "", rule.Replacement)
}

func TestMachine_FooterWorkflow(t *testing.T) {
	ctx := context.Background()
	m, mgr := newTestMachine(t, nil)

	_, err := m.Begin(ctx, admin, &FooterDraft{})
	require.NoError(t, err)
	_, err = m.Input(ctx, admin, "year")
	require.NoError(t, err)
	step, err := m.Input(ctx, admin, " (2025)")
	require.NoError(t, err)
	assert.Equal(t, AwaitingFooterFields, step.State)

	_, err = m.Input(ctx, admin, "more text")
	assert.ErrorIs(t, err, model.ErrInvalidOperation)

	_, err = m.ToggleField(ctx, admin, model.FieldAlbum)
	require.NoError(t, err)
	out, err := m.Save(ctx, admin)
	require.NoError(t, err)

	rule, ok := mgr.View().Footers.Get(out.RuleID)
	require.True(t, ok)
	assert.Equal(t, " (2025)", rule.Text)
}

func TestMachine_FooterSaveNeedsFields(t *testing.T) {
	ctx := context.Background()
	m, mgr := newTestMachine(t, nil)

	_, _ = m.Begin(ctx, admin, &FooterDraft{})
	_, _ = m.Input(ctx, admin, "year")
	_, err := m.Input(ctx, admin, " (2025)")
	require.NoError(t, err)

	_, err = m.Save(ctx, admin)
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	scratch, st, err := m.Current(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, AwaitingFooterFields, st)
	draft, ok := scratch.(*FooterDraft)
	require.True(t, ok)
	assert.Equal(t, "year", draft.Name)
	assert.Equal(t, " (2025)", draft.Text)
	assert.Equal(t, 0, mgr.View().Footers.Len())
}

func TestMachine_BeginDiscardsUnfinished(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestMachine(t, nil)

	_, _ = m.Begin(ctx, admin, &FooterDraft{})
	_, _ = m.Input(ctx, admin, "half done")

	discarded, err := m.Begin(ctx, admin, &ChannelInput{Target: true})
	require.NoError(t, err)
	assert.True(t, discarded)

	scratch, st, _ := m.Current(ctx, admin)
	assert.Equal(t, AwaitingTargetChannel, st)
	assert.IsType(t, &ChannelInput{}, scratch)
}

func TestMachine_ChannelWorkflow(t *testing.T) {
	ctx := context.Background()
	m, mgr := newTestMachine(t, nil)

	_, _ = m.Begin(ctx, admin, &ChannelInput{Target: true})
	_, err := m.Input(ctx, admin, "two words")
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	_, st, _ := m.Current(ctx, admin)
	assert.Equal(t, AwaitingTargetChannel, st, "rejected value keeps the workflow")

	step, err := m.Input(ctx, admin, "mychannel")
	require.NoError(t, err)
	require.True(t, step.Done())
	assert.Equal(t, "@mychannel", step.Outcome.Value)
	assert.Equal(t, "@mychannel", mgr.View().TargetChannel)

	_, _ = m.Begin(ctx, admin, &ChannelInput{})
	_, err = m.Input(ctx, admin, "-1001234")
	require.NoError(t, err)
	assert.Equal(t, "-1001234", mgr.View().SourceChannel)
}

func TestMachine_TemplateWorkflow(t *testing.T) {
	ctx := context.Background()
	m, mgr := newTestMachine(t, nil)

	_, err := m.Begin(ctx, admin, &TemplateDraft{})
	require.NoError(t, err)

	_, err = m.Save(ctx, admin)
	assert.ErrorIs(t, err, model.ErrInvalidOperation, "a draft without a name cannot be saved")

	step, err := m.Input(ctx, admin, "Friday")
	require.NoError(t, err)
	assert.Equal(t, EditingTemplateDraft, step.State)

	_, err = m.SelectField(ctx, admin, model.FieldTitle)
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	step, err = m.SelectField(ctx, admin, model.FieldGenre)
	require.NoError(t, err)
	assert.Equal(t, AwaitingTemplateField, step.State)

	step, err = m.Input(ctx, admin, "Nasheed")
	require.NoError(t, err)
	assert.Equal(t, EditingTemplateDraft, step.State)

	_, _ = m.SelectField(ctx, admin, model.FieldComment)
	_, _ = m.Input(ctx, admin, "empty")

	out, err := m.Save(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, "Friday", out.Key)

	tpl := mgr.View().Templates["Friday"]
	assert.Equal(t, "Nasheed", tpl.Fields[model.FieldGenre])
	assert.Equal(t, "", tpl.Fields[model.FieldComment])
	assert.Equal(t, "فنان جديد", tpl.Fields[model.FieldArtist])
}

func TestMachine_TemplateFieldEdit(t *testing.T) {
	ctx := context.Background()
	m, mgr := newTestMachine(t, nil)

	_, err := m.Begin(ctx, admin, &TemplateFieldEdit{Key: "missing", Field: model.FieldGenre})
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = m.Begin(ctx, admin, &TemplateFieldEdit{Key: model.DefaultTemplateKey, Field: model.FieldTitle})
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = m.Begin(ctx, admin, &TemplateFieldEdit{Key: model.DefaultTemplateKey, Field: model.FieldYear})
	require.NoError(t, err)
	step, err := m.Input(ctx, admin, "2026")
	require.NoError(t, err)
	assert.True(t, step.Done())

	v, _ := mgr.View().Templates[model.DefaultTemplateKey].Value(model.FieldYear)
	assert.Equal(t, "2026", v)
}

func TestMachine_RuleFieldEdit(t *testing.T) {
	ctx := context.Background()
	m, mgr := newTestMachine(t, model.DefaultSnapshot())

	_, err := m.Begin(ctx, admin, &RuleFieldEdit{Rule: RuleFooter, ID: 1, Part: model.PartOriginal})
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	_, err = m.Begin(ctx, admin, &RuleFieldEdit{Rule: RuleReplacement, ID: 42, Part: model.PartName})
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = m.Begin(ctx, admin, &RuleFieldEdit{Rule: RuleFooter, ID: 2, Part: model.PartText})
	require.NoError(t, err)
	step, err := m.Input(ctx, admin, " [official]")
	require.NoError(t, err)
	assert.Equal(t, " [official]", step.Outcome.Value)

	f, _ := mgr.View().Footers.Get(2)
	assert.Equal(t, " [official]", f.Text)
}

func TestMachine_CoverWorkflow(t *testing.T) {
	ctx := context.Background()
	m, mgr := newTestMachine(t, nil)

	_, err := m.AcceptCover(ctx, admin, "covers/a.jpg")
	assert.ErrorIs(t, err, model.ErrInvalidOperation)

	_, _ = m.Begin(ctx, admin, &CoverInput{})
	_, err = m.Input(ctx, admin, "not a photo")
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	out, err := m.AcceptCover(ctx, admin, "covers/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, KindAlbumCover, out.Kind)
	assert.Equal(t, "covers/a.jpg", mgr.View().CoverRef)
}

func TestMachine_ResetWorkflow(t *testing.T) {
	ctx := context.Background()
	m, mgr := newTestMachine(t, model.DefaultSnapshot())

	_, _ = m.Begin(ctx, admin, &ResetConfirm{})
	_, err := m.Input(ctx, admin, "yes")
	assert.ErrorIs(t, err, model.ErrInvalidOperation)

	_, err = m.Save(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, 0, mgr.View().Footers.Len())
	assert.Len(t, mgr.View().Templates, 1)
}

func TestMachine_ResetFailureKeepsWorkflow(t *testing.T) {
	ctx := context.Background()
	mgr := state.NewManager(model.DefaultSnapshot(), nil, nil)
	m := NewMachine(admin, NewMemoryStore(time.Hour), mgr, func(context.Context) error {
		return errors.New("disk gone")
	})

	_, _ = m.Begin(ctx, admin, &ResetConfirm{})
	_, err := m.Save(ctx, admin)
	assert.Error(t, err)
	_, st, _ := m.Current(ctx, admin)
	assert.Equal(t, AwaitingResetConfirm, st)
}

func TestMachine_Cancel(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestMachine(t, nil)

	had, err := m.Cancel(ctx, admin)
	require.NoError(t, err)
	assert.False(t, had)

	_, _ = m.Begin(ctx, admin, &FooterDraft{})
	had, err = m.Cancel(ctx, admin)
	require.NoError(t, err)
	assert.True(t, had)

	_, err = m.Input(ctx, admin, "text")
	assert.ErrorIs(t, err, model.ErrInvalidOperation)
}
