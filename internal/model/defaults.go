package model

// Built-in template keys.
const (
	DefaultTemplateKey = "افتراضي"
	NasheedTemplateKey = "إنشاد"
)

func defaultTemplate() Template {
	return Template{
		Name: "القالب الافتراضي",
		Fields: map[FieldID]string{
			FieldArtist:      "$artist",
			FieldAlbumArtist: "$album_artist",
			FieldAlbum:       "$album",
			FieldGenre:       "إنشاد",
			FieldYear:        "2025",
			FieldPublisher:   "الناشر الافتراضي",
			FieldCopyright:   "© 2025 جميع الحقوق محفوظة",
			FieldComment:     "تم المعالجة بواسطة بوت معالجة الصوتيات",
			FieldWebsite:     "https://t.me/EchoAlMasirah",
			FieldComposer:    "ملحن افتراضي",
			FieldLyrics:      "كلمات الأغنية الافتراضية",
			FieldDescription: "وصف للملف الصوتي",
		},
	}
}

func nasheedTemplate() Template {
	return Template{
		Name: "قالب الأناشيد",
		Fields: map[FieldID]string{
			FieldArtist:      "منشد",
			FieldAlbumArtist: "فرقة الإنشاد",
			FieldAlbum:       "ألبوم الأناشيد",
			FieldGenre:       "إنشاد ديني",
			FieldYear:        "2025",
			FieldPublisher:   "دار النشر الإسلامية",
			FieldCopyright:   "© 2025 جميع الحقوق محفوظة",
			FieldComment:     "إنتاج فرقة الإنشاد الإسلامية",
			FieldWebsite:     "https://t.me/EchoAlMasirah",
			FieldComposer:    "فرقة الإنشاد",
			FieldLyrics:      "بسم الله الرحمن الرحيم",
			FieldDescription: "إنشاد ديني",
		},
	}
}

// DefaultSnapshot returns the configuration used on first boot, when
// neither the database nor the backup file holds anything. It ships two
// templates, two replacement rules and two footers as working examples.
func DefaultSnapshot() *Snapshot {
	s := &Snapshot{
		Version: SnapshotVersion,
		Templates: map[string]Template{
			DefaultTemplateKey: defaultTemplate(),
			NasheedTemplateKey: nasheedTemplate(),
		},
		CurrentKey: DefaultTemplateKey,
		Toggles:    DefaultToggles(),
	}

	s.Replacements = RuleSet[ReplacementRule]{
		NextID: 3,
		Rules: []ReplacementRule{
			{
				ID:          1,
				Name:        "استبدال الأخطاء الشائعة",
				Original:    "الشيخ",
				Replacement: "الإمام",
				Fields:      NewFieldSet(FieldArtist, FieldAlbumArtist),
			},
			{
				ID:          2,
				Name:        "تصحيح اسم الألبوم",
				Original:    "البوم",
				Replacement: "ألبوم",
				Fields:      NewFieldSet(FieldAlbum),
			},
		},
	}
	s.Footers = RuleSet[FooterRule]{
		NextID: 3,
		Rules: []FooterRule{
			{
				ID:     1,
				Name:   "تذييل الفنان",
				Text:   " - منتجات دار الإنشاد",
				Fields: NewFieldSet(FieldArtist, FieldAlbumArtist),
			},
			{
				ID:     2,
				Name:   "تذييل الألبوم",
				Text:   " (الإصدار الرسمي)",
				Fields: NewFieldSet(FieldAlbum),
			},
		},
	}
	return s
}

// ResetSnapshot returns the configuration installed by an explicit reset:
// only the default template, no rules, every feature on, no channels and
// no cover.
func ResetSnapshot() *Snapshot {
	return &Snapshot{
		Version: SnapshotVersion,
		Templates: map[string]Template{
			DefaultTemplateKey: defaultTemplate(),
		},
		CurrentKey:   DefaultTemplateKey,
		Replacements: RuleSet[ReplacementRule]{NextID: 1},
		Footers:      RuleSet[FooterRule]{NextID: 1},
		Toggles:      DefaultToggles(),
	}
}
