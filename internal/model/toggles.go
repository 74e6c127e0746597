package model

import "fmt"

// Feature names one switch of Toggles.
type Feature string

const (
	FeatureBot           Feature = "bot"
	FeatureReplacement   Feature = "replacement"
	FeatureFooter        Feature = "footer"
	FeatureLinkStripping Feature = "links"
	FeatureAlbumCover    Feature = "album_cover"
)

// Features lists every feature in display order.
var Features = []Feature{
	FeatureBot,
	FeatureReplacement,
	FeatureFooter,
	FeatureLinkStripping,
	FeatureAlbumCover,
}

// Label returns a human readable name for the feature.
func (f Feature) Label() string {
	switch f {
	case FeatureBot:
		return "Bot"
	case FeatureReplacement:
		return "Replacements"
	case FeatureFooter:
		return "Footers"
	case FeatureLinkStripping:
		return "Link removal"
	case FeatureAlbumCover:
		return "Album cover"
	default:
		return string(f)
	}
}

// Toggles holds the feature switches gating each pipeline stage.
type Toggles struct {
	// BotEnabled is the global kill switch. When false no field is derived
	// and files pass through unmodified.
	BotEnabled bool `json:"bot_enabled"`

	ReplacementEnabled bool `json:"replacement_enabled"`
	FooterEnabled      bool `json:"footer_enabled"`
	LinkStripping      bool `json:"remove_links_enabled"`
	AlbumCover         bool `json:"album_cover_enabled"`
}

// DefaultToggles returns every feature enabled.
func DefaultToggles() Toggles {
	return Toggles{
		BotEnabled:         true,
		ReplacementEnabled: true,
		FooterEnabled:      true,
		LinkStripping:      true,
		AlbumCover:         true,
	}
}

// Enabled reports the state of one feature.
func (t Toggles) Enabled(f Feature) bool {
	switch f {
	case FeatureBot:
		return t.BotEnabled
	case FeatureReplacement:
		return t.ReplacementEnabled
	case FeatureFooter:
		return t.FooterEnabled
	case FeatureLinkStripping:
		return t.LinkStripping
	case FeatureAlbumCover:
		return t.AlbumCover
	}
	return false
}

// Flip inverts one feature and returns its new state. Flipping twice
// restores the original value.
func (t *Toggles) Flip(f Feature) (bool, error) {
	var p *bool
	switch f {
	case FeatureBot:
		p = &t.BotEnabled
	case FeatureReplacement:
		p = &t.ReplacementEnabled
	case FeatureFooter:
		p = &t.FooterEnabled
	case FeatureLinkStripping:
		p = &t.LinkStripping
	case FeatureAlbumCover:
		p = &t.AlbumCover
	default:
		return false, fmt.Errorf("%w: unknown feature %q", ErrInvalidInput, f)
	}
	*p = !*p
	return *p, nil
}
