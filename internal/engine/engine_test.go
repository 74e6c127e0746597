package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handiism/tagbot/internal/model"
)

func TestResolve_PlaceholderPreserves(t *testing.T) {
	snap := model.ResetSnapshot()
	key, err := snap.AddTemplate("p", map[model.FieldID]string{
		model.FieldArtist:  "$artist",
		model.FieldAlbum:   "  ",
		model.FieldComment: "$comment",
		model.FieldLyrics:  "",
	})
	require.NoError(t, err)
	require.NoError(t, snap.SetCurrentTemplate(key))
	// Rules must not touch preserved values.
	_, err = snap.AddFooterRule("f", "!", model.NewFieldSet(model.FieldArtist, model.FieldComment))
	require.NoError(t, err)

	res := Resolve(snap, Input{
		Originals: map[model.FieldID]string{
			model.FieldArtist:  "Ahmad https://x.y",
			model.FieldComment: "old comment",
		},
	})

	assert.False(t, res.Passthrough)
	v, ok := res.Value(model.FieldArtist)
	assert.True(t, ok)
	assert.Equal(t, "Ahmad https://x.y", v)
	v, _ = res.Value(model.FieldComment)
	assert.Equal(t, "old comment", v)

	_, ok = res.Value(model.FieldAlbum)
	assert.False(t, ok, "empty original leaves the core field unset")
	_, ok = res.Value(model.FieldLyrics)
	assert.False(t, ok, "empty original leaves the optional field unset")
}

func TestResolve_AbsentFields(t *testing.T) {
	snap := model.ResetSnapshot()
	key, err := snap.AddTemplate("sparse", map[model.FieldID]string{model.FieldGenre: "G"})
	require.NoError(t, err)
	require.NoError(t, snap.SetCurrentTemplate(key))

	res := Resolve(snap, Input{
		Originals: map[model.FieldID]string{
			model.FieldArtist:  "A",
			model.FieldComment: "C",
		},
		Title: "T",
	})

	assert.Equal(t, "A", res.Fields[model.FieldArtist], "absent core field behaves like empty")
	_, ok := res.Value(model.FieldComment)
	assert.False(t, ok, "absent optional field is skipped")
	assert.Equal(t, "G", res.Fields[model.FieldGenre])
	assert.Equal(t, "T", res.Fields[model.FieldTitle])
}

func TestResolve_BotDisabled(t *testing.T) {
	snap := model.DefaultSnapshot()
	_, err := snap.Toggles.Flip(model.FeatureBot)
	require.NoError(t, err)

	res := Resolve(snap, Input{
		Originals: map[model.FieldID]string{model.FieldArtist: "A"},
		Title:     "T",
	})
	assert.True(t, res.Passthrough)
	assert.Empty(t, res.Fields)

	_, err = snap.Toggles.Flip(model.FeatureBot)
	require.NoError(t, err)
	res = Resolve(snap, Input{Title: "T"})
	assert.False(t, res.Passthrough)
	assert.NotEmpty(t, res.Fields)
}

func TestResolve_TransformOrder(t *testing.T) {
	snap := model.ResetSnapshot()
	key, err := snap.AddTemplate("order", map[model.FieldID]string{
		model.FieldArtist: "see https://x.co Artist",
	})
	require.NoError(t, err)
	require.NoError(t, snap.SetCurrentTemplate(key))
	artist := model.NewFieldSet(model.FieldArtist)
	_, err = snap.AddReplacementRule("r", "Artist", "المنشد", artist)
	require.NoError(t, err)
	_, err = snap.AddFooterRule("f", " - Prod", artist)
	require.NoError(t, err)

	res := Resolve(snap, Input{})
	assert.Equal(t, "see  المنشد - Prod", res.Fields[model.FieldArtist])
}

func TestResolve_DefaultTemplateScenario(t *testing.T) {
	snap := model.ResetSnapshot()

	res := Resolve(snap, Input{
		Originals: map[model.FieldID]string{model.FieldArtist: "Ahmad"},
		Title:     "track",
	})

	assert.Equal(t, "Ahmad", res.Fields[model.FieldArtist])
	assert.Equal(t, "إنشاد", res.Fields[model.FieldGenre])
	assert.Equal(t, "2025", res.Fields[model.FieldYear])
	website, ok := res.Value(model.FieldWebsite)
	assert.True(t, ok)
	assert.Empty(t, website, "link removal applies to the website field too")
	_, ok = res.Value(model.FieldAlbum)
	assert.False(t, ok)
}

func TestResolve_MultiFooter(t *testing.T) {
	snap := model.ResetSnapshot()
	key, err := snap.AddTemplate("album", map[model.FieldID]string{model.FieldAlbum: "Album1"})
	require.NoError(t, err)
	require.NoError(t, snap.SetCurrentTemplate(key))
	album := model.NewFieldSet(model.FieldAlbum)
	_, err = snap.AddFooterRule("year", " (2025)", album)
	require.NoError(t, err)
	_, err = snap.AddFooterRule("letter", "A", album)
	require.NoError(t, err)

	res := Resolve(snap, Input{})
	assert.Equal(t, "Album1 (2025)A", res.Fields[model.FieldAlbum])
}

func TestResolve_TitleAlwaysTransformed(t *testing.T) {
	snap := model.ResetSnapshot()
	_, err := snap.AddReplacementRule("r", "$title", "x", model.NewFieldSet(model.FieldTitle))
	require.NoError(t, err)

	res := Resolve(snap, Input{Title: "$title @chan"})
	assert.Equal(t, "x ", res.Fields[model.FieldTitle])
}

func TestResolve_TemplateOverride(t *testing.T) {
	snap := model.DefaultSnapshot()
	tpl := model.Template{Name: "o", Fields: map[model.FieldID]string{model.FieldGenre: "Override"}}

	res := Resolve(snap, Input{Template: &tpl})
	assert.Equal(t, "Override", res.Fields[model.FieldGenre])
}

func TestResult_Changes(t *testing.T) {
	res := Result{Fields: map[model.FieldID]string{
		model.FieldTitle:  "New",
		model.FieldArtist: "Same",
	}}
	changes := res.Changes(map[model.FieldID]string{model.FieldArtist: "Same", model.FieldTitle: "Old"})
	require.Len(t, changes, 1)
	assert.Equal(t, Change{Field: model.FieldTitle, From: "Old", To: "New"}, changes[0])
}
