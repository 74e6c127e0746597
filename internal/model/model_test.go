package model

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"normal-file", "normal-file"},
		{"file:with:colons", "file_with_colons"},
		{"file<with>brackets", "file_with_brackets"},
		{"file/with\\slashes", "file_with_slashes"},
		{"file|with|pipes", "file_with_pipes"},
		{"file?with*wildcards", "file_with_wildcards"},
		{"trailing dots...", "trailing dots"},
		{"multiple   spaces", "multiple spaces"},
		{"  نشيد الصباح  ", "نشيد الصباح"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := SanitizeFileName(tt.input)
			if got != tt.want {
				t.Errorf("SanitizeFileName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestAudioItem_TitleInput(t *testing.T) {
	tests := []struct {
		name string
		item AudioItem
		want string
	}{
		{"caption wins", AudioItem{Caption: " Morning ", FileName: "x.mp3"}, "Morning"},
		{"file name stem", AudioItem{FileName: "track 01.mp3"}, "track 01"},
		{"local path", AudioItem{LocalPath: "/tmp/song.mp3"}, "song"},
		{"fallback", AudioItem{}, DefaultTitle},
		{"extension only", AudioItem{FileName: ".mp3"}, DefaultTitle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.item.TitleInput(); got != tt.want {
				t.Errorf("TitleInput() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAudioItem_OutputFileName(t *testing.T) {
	item := AudioItem{FileName: "in.OGG"}
	if got := item.OutputFileName("a/b"); got != "a_b.ogg" {
		t.Errorf("OutputFileName = %q, want %q", got, "a_b.ogg")
	}

	item = AudioItem{}
	if got := item.OutputFileName(""); got != DefaultTitle+".mp3" {
		t.Errorf("OutputFileName = %q", got)
	}

	long := strings.Repeat("ن", 200)
	got := item.OutputFileName(long)
	if len(got) > 255 {
		t.Errorf("OutputFileName length = %d, want <= 255", len(got))
	}
	if !strings.HasSuffix(got, ".mp3") {
		t.Errorf("OutputFileName = %q, want .mp3 suffix", got)
	}
}

func TestParseFieldID(t *testing.T) {
	if f, err := ParseFieldID(" Album_Artist "); err != nil || f != FieldAlbumArtist {
		t.Errorf("ParseFieldID = %q, %v", f, err)
	}
	if _, err := ParseFieldID("bpm"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("ParseFieldID(bpm) error = %v, want ErrInvalidInput", err)
	}
	if FieldComment.Kind() != KindOptional || FieldArtist.Kind() != KindCore || FieldTitle.Kind() != KindTitle {
		t.Error("unexpected field kinds")
	}
	if FieldArtist.Placeholder() != "$artist" {
		t.Errorf("Placeholder = %q", FieldArtist.Placeholder())
	}
}

func TestFieldSet_JSON(t *testing.T) {
	set := NewFieldSet(FieldAlbum, FieldTitle)
	data, err := json.Marshal(set)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `["album","title"]` {
		t.Errorf("Marshal = %s", data)
	}

	var back FieldSet
	if err := json.Unmarshal([]byte(`["album","bogus","title"]`), &back); err != nil {
		t.Fatal(err)
	}
	if len(back) != 2 || !back.Has(FieldAlbum) || !back.Has(FieldTitle) {
		t.Errorf("Unmarshal = %v", back.Sorted())
	}
}

func TestToggles_Flip(t *testing.T) {
	toggles := DefaultToggles()
	for _, f := range Features {
		before := toggles.Enabled(f)
		after, err := toggles.Flip(f)
		if err != nil {
			t.Fatalf("Flip(%s): %v", f, err)
		}
		if after == before {
			t.Errorf("Flip(%s) did not change the value", f)
		}
		if again, _ := toggles.Flip(f); again != before {
			t.Errorf("double Flip(%s) = %v, want %v", f, again, before)
		}
	}
	if _, err := toggles.Flip(Feature("nope")); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Flip(nope) error = %v", err)
	}
}

func TestAddTemplate_KeyCollision(t *testing.T) {
	snap := ResetSnapshot()
	before := len(snap.Templates)

	k1, err := snap.AddTemplate("Friday", nil)
	if err != nil {
		t.Fatal(err)
	}
	k2, _ := snap.AddTemplate("Friday", nil)
	k3, _ := snap.AddTemplate("  Friday ", nil)

	if k1 != "Friday" || k2 != "Friday_1" || k3 != "Friday_2" {
		t.Errorf("keys = %q %q %q", k1, k2, k3)
	}
	if len(snap.Templates) != before+3 {
		t.Errorf("templates = %d, want %d", len(snap.Templates), before+3)
	}

	if _, err := snap.AddTemplate("   ", nil); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty name error = %v", err)
	}
}

func TestAddTemplate_DropsTitle(t *testing.T) {
	snap := ResetSnapshot()
	key, err := snap.AddTemplate("t", map[FieldID]string{FieldTitle: "x", FieldGenre: "g"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := snap.Templates[key].Value(FieldTitle); ok {
		t.Error("title must never be stored in a template")
	}
}

func TestDeleteTemplate(t *testing.T) {
	snap := DefaultSnapshot()

	if err := snap.DeleteTemplate(snap.CurrentKey); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("deleting current: %v", err)
	}
	if err := snap.DeleteTemplate("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleting missing: %v", err)
	}
	if err := snap.DeleteTemplate(NasheedTemplateKey); err != nil {
		t.Errorf("deleting other: %v", err)
	}
	if len(snap.Templates) != 1 {
		t.Errorf("templates = %d", len(snap.Templates))
	}
}

func TestSetCurrentTemplate(t *testing.T) {
	snap := DefaultSnapshot()
	if err := snap.SetCurrentTemplate(NasheedTemplateKey); err != nil {
		t.Fatal(err)
	}
	if snap.CurrentTemplate().Name != "قالب الأناشيد" {
		t.Errorf("current = %q", snap.CurrentTemplate().Name)
	}
	if err := snap.SetCurrentTemplate("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v", err)
	}
	if snap.CurrentKey != NasheedTemplateKey {
		t.Error("failed SetCurrentTemplate changed the current key")
	}
}

func TestSetTemplateField_ClearTokens(t *testing.T) {
	for _, token := range []string{"-", "فارغ", "empty", "CLEAR", "null", "None"} {
		snap := DefaultSnapshot()
		if err := snap.SetTemplateField(DefaultTemplateKey, FieldGenre, token); err != nil {
			t.Fatalf("%s: %v", token, err)
		}
		if v, ok := snap.Templates[DefaultTemplateKey].Value(FieldGenre); !ok || v != "" {
			t.Errorf("%s: genre = %q, %v", token, v, ok)
		}
	}

	snap := DefaultSnapshot()
	if err := snap.SetTemplateField(DefaultTemplateKey, FieldTitle, "x"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("title: %v", err)
	}
	if err := snap.SetTemplateField("missing", FieldGenre, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing: %v", err)
	}
}

func TestAddReplacementRule_Validation(t *testing.T) {
	snap := ResetSnapshot()

	tests := []struct {
		name     string
		ruleName string
		original string
		fields   FieldSet
	}{
		{"no fields", "r", "a", NewFieldSet()},
		{"no name", " ", "a", NewFieldSet(FieldTitle)},
		{"no original", "r", "  ", NewFieldSet(FieldTitle)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := snap.AddReplacementRule(tt.ruleName, tt.original, "b", tt.fields)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("error = %v, want ErrInvalidInput", err)
			}
		})
	}
	if snap.Replacements.Len() != 0 {
		t.Errorf("rules = %d, want 0", snap.Replacements.Len())
	}

	// An empty replacement deletes the substring and is allowed.
	if _, err := snap.AddReplacementRule("strip", "x", "", NewFieldSet(FieldTitle)); err != nil {
		t.Errorf("empty replacement: %v", err)
	}
}

func TestAddFooterRule_Validation(t *testing.T) {
	snap := ResetSnapshot()

	tests := []struct {
		name     string
		ruleName string
		text     string
		fields   FieldSet
	}{
		{"no fields", "f", " (2025)", NewFieldSet()},
		{"nil fields", "f", " (2025)", nil},
		{"no name", "", " (2025)", NewFieldSet(FieldAlbum)},
		{"no text", "f", "", NewFieldSet(FieldAlbum)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := snap.AddFooterRule(tt.ruleName, tt.text, tt.fields)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("error = %v, want ErrInvalidInput", err)
			}
		})
	}
	if snap.Footers.Len() != 0 {
		t.Errorf("footers = %d, want 0", snap.Footers.Len())
	}
}

func TestRuleIDs_Monotonic(t *testing.T) {
	snap := ResetSnapshot()
	fields := NewFieldSet(FieldAlbum)

	a, _ := snap.AddFooterRule("a", "1", fields)
	b, _ := snap.AddFooterRule("b", "2", fields)
	if err := snap.DeleteFooterRule(b.ID); err != nil {
		t.Fatal(err)
	}
	c, _ := snap.AddFooterRule("c", "3", fields)

	if a.ID != 1 || b.ID != 2 || c.ID != 3 {
		t.Errorf("ids = %d %d %d, want 1 2 3", a.ID, b.ID, c.ID)
	}
	if err := snap.DeleteFooterRule(b.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: %v", err)
	}

	var order []int
	for _, r := range snap.Footers.Rules {
		order = append(order, r.ID)
	}
	if len(order) != 2 || order[0] != 1 || order[1] != 3 {
		t.Errorf("order = %v", order)
	}
}

func TestUpdateRules(t *testing.T) {
	snap := DefaultSnapshot()

	r, err := snap.UpdateReplacementRule(1, PartReplacement, "الإمام الجليل")
	if err != nil || r.Replacement != "الإمام الجليل" {
		t.Errorf("update replacement = %+v, %v", r, err)
	}
	if _, err := snap.UpdateReplacementRule(1, PartOriginal, " "); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty original: %v", err)
	}
	if got, _ := snap.Replacements.Get(1); got.Original != "الشيخ" {
		t.Errorf("failed update changed the rule: %+v", got)
	}
	if _, err := snap.UpdateReplacementRule(1, PartText, "x"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("wrong part: %v", err)
	}
	if _, err := snap.UpdateFooterRule(99, PartText, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing footer: %v", err)
	}
	if f, err := snap.UpdateFooterRule(2, PartText, " [HQ]"); err != nil || f.Text != " [HQ]" {
		t.Errorf("update footer = %+v, %v", f, err)
	}
}

func TestNormalizeChannel(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"@channel", "@channel", false},
		{"channel", "@channel", false},
		{"-1001234567890", "-1001234567890", false},
		{"https://t.me/channel", "@channel", false},
		{"  ", "", true},
		{"@", "", true},
		{"two words", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := NormalizeChannel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("NormalizeChannel(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSnapshot_IsSourceChannel(t *testing.T) {
	snap := ResetSnapshot()
	if snap.IsSourceChannel(-100, "x") {
		t.Error("no source channel configured")
	}
	_ = snap.SetSourceChannel("MyChannel")
	if !snap.IsSourceChannel(-100, "mychannel") {
		t.Error("username match")
	}
	_ = snap.SetSourceChannel("-1001")
	if !snap.IsSourceChannel(-1001, "") {
		t.Error("id match")
	}
}

func TestSnapshot_CloneIsDeep(t *testing.T) {
	snap := DefaultSnapshot()
	clone := snap.Clone()

	_ = clone.SetTemplateField(DefaultTemplateKey, FieldGenre, "changed")
	clone.Replacements.Rules[0].Fields.Toggle(FieldTitle)
	_, _ = clone.AddFooterRule("x", "y", NewFieldSet(FieldAlbum))

	if v, _ := snap.Templates[DefaultTemplateKey].Value(FieldGenre); v != "إنشاد" {
		t.Errorf("original template changed: %q", v)
	}
	if snap.Replacements.Rules[0].Fields.Has(FieldTitle) {
		t.Error("original rule field set changed")
	}
	if snap.Footers.Len() != 2 {
		t.Errorf("original footers = %d", snap.Footers.Len())
	}
}

func TestSnapshot_JSONRoundTripKeepsNextID(t *testing.T) {
	snap := ResetSnapshot()
	r, _ := snap.AddReplacementRule("a", "b", "c", NewFieldSet(FieldTitle))
	_ = snap.DeleteReplacementRule(r.ID)

	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatal(err)
	}
	var back Snapshot
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	back.Normalize()
	next, _ := back.AddReplacementRule("d", "e", "f", NewFieldSet(FieldTitle))
	if next.ID != 2 {
		t.Errorf("id after reload = %d, want 2", next.ID)
	}
}

func TestSnapshot_Normalize(t *testing.T) {
	snap := &Snapshot{
		Templates:  map[string]Template{"x": {Name: "", Fields: nil}},
		CurrentKey: "gone",
		Replacements: RuleSet[ReplacementRule]{
			Rules: []ReplacementRule{{ID: 7, Name: "n", Original: "o", Fields: NewFieldSet(FieldTitle)}},
		},
	}
	if !snap.Normalize() {
		t.Fatal("Normalize reported no change")
	}
	if snap.CurrentKey != "x" || snap.Templates["x"].Name != "x" {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.Replacements.NextID != 8 {
		t.Errorf("NextID = %d, want 8", snap.Replacements.NextID)
	}
	if snap.Normalize() {
		t.Error("second Normalize reported a change")
	}
}

func TestResetSnapshot(t *testing.T) {
	snap := ResetSnapshot()
	if len(snap.Templates) != 1 || snap.CurrentKey != DefaultTemplateKey {
		t.Errorf("templates = %v", snap.TemplateKeys())
	}
	if snap.Replacements.Len() != 0 || snap.Footers.Len() != 0 {
		t.Error("reset must not carry rules")
	}
	if snap.HasCover() || snap.TargetChannel != "" || snap.SourceChannel != "" {
		t.Error("reset must clear cover and channels")
	}
	for _, f := range Features {
		if !snap.Toggles.Enabled(f) {
			t.Errorf("feature %s disabled after reset", f)
		}
	}
}
