package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/handiism/tagbot/internal/model"
)

func snapshotWith(t *testing.T, toggles model.Toggles) *model.Snapshot {
	t.Helper()
	snap := model.ResetSnapshot()
	snap.Toggles = toggles
	return snap
}

func TestRemoveLinks(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Song https://x.y/z", "Song "},
		{"Song http://a.b", "Song "},
		{"visit www.site.com now", "visit  now"},
		{"by @user", "by "},
		{"Plain Title", "Plain Title"},
		{"نشيد @channel الصباح", "نشيد  الصباح"},
		{"by @user_اسم end", "by  end"},
		{"نشيد @قناة_الإنشاد", "نشيد "},
		{"track @١٢٣", "track "},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, RemoveLinks(tt.input))
		})
	}
}

func TestStripLinks_Toggle(t *testing.T) {
	toggles := model.DefaultToggles()
	toggles.LinkStripping = false
	tr := New(snapshotWith(t, toggles))

	assert.Equal(t, "Song https://x.y/z", tr.StripLinks("Song https://x.y/z"))
}

func TestApplyReplacements(t *testing.T) {
	snap := snapshotWith(t, model.DefaultToggles())
	_, err := snap.AddReplacementRule("a", "foo", "bar", model.NewFieldSet(model.FieldTitle))
	assert.NoError(t, err)
	_, err = snap.AddReplacementRule("b", "bar", "baz", model.NewFieldSet(model.FieldTitle, model.FieldAlbum))
	assert.NoError(t, err)

	tr := New(snap)
	assert.Equal(t, "baz baz", tr.ApplyReplacements("foo bar", model.FieldTitle))
	assert.Equal(t, "foo baz", tr.ApplyReplacements("foo bar", model.FieldAlbum))
	assert.Equal(t, "foo bar", tr.ApplyReplacements("foo bar", model.FieldArtist))

	snap.Toggles.ReplacementEnabled = false
	assert.Equal(t, "foo bar", New(snap).ApplyReplacements("foo bar", model.FieldTitle))
}

func TestApplyFooter_InsertionOrder(t *testing.T) {
	snap := snapshotWith(t, model.DefaultToggles())
	fields := model.NewFieldSet(model.FieldAlbum)
	_, _ = snap.AddFooterRule("year", " (2025)", fields)
	_, _ = snap.AddFooterRule("letter", "A", fields)

	tr := New(snap)
	assert.Equal(t, "Album1 (2025)A", tr.ApplyFooter("Album1", model.FieldAlbum))
	assert.Equal(t, "Album1", tr.ApplyFooter("Album1", model.FieldTitle))

	snap.Toggles.FooterEnabled = false
	assert.Equal(t, "Album1", New(snap).ApplyFooter("Album1", model.FieldAlbum))
}

func TestApply_Order(t *testing.T) {
	snap := snapshotWith(t, model.DefaultToggles())
	title := model.NewFieldSet(model.FieldTitle)
	// The footer introduces text a replacement would match. Replacements run
	// first, so the footer text survives untouched.
	_, _ = snap.AddReplacementRule("r", "X", "Y", title)
	_, _ = snap.AddFooterRule("f", " X", title)

	tr := New(snap)
	assert.Equal(t, "Y  X", tr.Apply("X @me", model.FieldTitle))
}

func TestNew_CopiesRules(t *testing.T) {
	snap := snapshotWith(t, model.DefaultToggles())
	_, _ = snap.AddFooterRule("f", "!", model.NewFieldSet(model.FieldTitle))
	tr := New(snap)

	_ = snap.DeleteFooterRule(1)
	assert.Equal(t, "a!", tr.Apply("a", model.FieldTitle))
}
