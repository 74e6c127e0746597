package bot

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/handiism/tagbot/internal/model"
	"github.com/handiism/tagbot/internal/session"
)

// view is a message body with an optional inline keyboard.
type view struct {
	text   string
	markup *tgbotapi.InlineKeyboardMarkup
}

func withKeyboard(text string, rows ...[]tgbotapi.InlineKeyboardButton) view {
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return view{text: text, markup: &kb}
}

func button(text, data string) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(text, data)
}

func row(buttons ...tgbotapi.InlineKeyboardButton) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(buttons...)
}

func backRow(menu string) []tgbotapi.InlineKeyboardButton {
	return row(button("↩️ Back", cb(actMenu, menu)))
}

func onOff(on bool) string {
	if on {
		return "✅ on"
	}
	return "❌ off"
}

func toggleButton(t model.Toggles, f model.Feature) tgbotapi.InlineKeyboardButton {
	verb := "Enable"
	if t.Enabled(f) {
		verb = "Disable"
	}
	return button(fmt.Sprintf("%s %s", verb, strings.ToLower(f.Label())), cb(actToggle, string(f)))
}

func orNone(s string) string {
	if s == "" {
		return "not set"
	}
	return s
}

func mainMenu(snap *model.Snapshot) view {
	text := fmt.Sprintf("🎛 Control panel\n\nBot: %s\nTemplate: %s\nSource channel: %s\nTarget channel: %s",
		onOff(snap.Toggles.BotEnabled),
		snap.CurrentTemplate().Name,
		orNone(snap.SourceChannel),
		orNone(snap.TargetChannel))
	return withKeyboard(text,
		row(button("📥 Set source channel", cb(actChannel, "src")), button("📤 Set target channel", cb(actChannel, "dst"))),
		row(button("📋 Channels", cb(actMenu, menuChannels))),
		row(button("🎛 Templates", cb(actMenu, menuTemplates))),
		row(button("🔄 Replacements", cb(actMenu, menuReplacements))),
		row(button("📝 Footers", cb(actMenu, menuFooters))),
		row(button("🔗 Link removal", cb(actMenu, menuLinks))),
		row(button("🖼️ Album cover", cb(actMenu, menuCover))),
		row(toggleButton(snap.Toggles, model.FeatureBot)),
	)
}

func channelsMenu(snap *model.Snapshot) view {
	text := fmt.Sprintf("📋 Channels\n\nSource: %s\nTarget: %s\n\nAudio posted in the source channel is tagged and republished to the target channel.",
		orNone(snap.SourceChannel), orNone(snap.TargetChannel))
	return withKeyboard(text,
		row(button("Clear source", cb(actChannel, "clrsrc")), button("Clear target", cb(actChannel, "clrdst"))),
		backRow(menuMain),
	)
}

func templatesMenu(snap *model.Snapshot) view {
	text := fmt.Sprintf("🎛 Templates\n\nCurrent: %s (%d stored)", snap.CurrentTemplate().Name, len(snap.Templates))
	return withKeyboard(text,
		row(button("📋 List", cb(actTemplate, "list")), button("📌 Current", cb(actTemplate, "cur"))),
		row(button("🔄 Switch", cb(actTemplate, "switch")), button("➕ Add", cb(actTemplate, "add"))),
		row(button("✏️ Edit", cb(actTemplate, "edit")), button("🗑️ Delete", cb(actTemplate, "del"))),
		backRow(menuMain),
	)
}

func templateList(snap *model.Snapshot) view {
	var b strings.Builder
	b.WriteString("📋 Templates\n")
	for _, key := range snap.TemplateKeys() {
		marker := "•"
		if key == snap.CurrentKey {
			marker = "📌"
		}
		fmt.Fprintf(&b, "\n%s %s (%s)", marker, snap.Templates[key].Name, key)
	}
	return withKeyboard(b.String(), backRow(menuTemplates))
}

func describeFields(fields map[model.FieldID]string) string {
	var b strings.Builder
	for _, f := range model.TemplateFields {
		v, ok := fields[f]
		switch {
		case !ok && f.Kind() == model.KindOptional:
			continue
		case strings.TrimSpace(v) == "" || strings.TrimSpace(v) == f.Placeholder():
			v = "(keep original)"
		}
		fmt.Fprintf(&b, "\n%s: %s", f.Label(), v)
	}
	return b.String()
}

func templateDetail(snap *model.Snapshot, key string, back string) view {
	tpl := snap.Templates[key]
	text := fmt.Sprintf("📌 %s\nKey: %s\n%s", tpl.Name, key, describeFields(tpl.Fields))
	return withKeyboard(text, backRow(back))
}

// templatePicker lists templates as buttons carrying op.
func templatePicker(snap *model.Snapshot, title, op string) view {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, key := range snap.TemplateKeys() {
		label := snap.Templates[key].Name
		if key == snap.CurrentKey {
			label = "📌 " + label
		}
		rows = append(rows, row(button(label, cb(actTemplate, op, templateToken(key)))))
	}
	rows = append(rows, backRow(menuTemplates))
	return withKeyboard(title, rows...)
}

// templateEditor shows one stored template with a button per field.
func templateEditor(snap *model.Snapshot, key string) view {
	tpl := snap.Templates[key]
	tok := templateToken(key)
	text := fmt.Sprintf("✏️ %s\n%s\n\nChoose a field to change.", tpl.Name, describeFields(tpl.Fields))
	return withKeyboard(text, fieldRows(model.TemplateFields, func(f model.FieldID) (string, string) {
		return f.Label(), cb(actTemplate, "field", tok, string(f))
	}, row(button("↩️ Back", cb(actTemplate, "edit"))))...)
}

// draftEditor shows a template being created.
func draftEditor(d *session.TemplateDraft) view {
	text := fmt.Sprintf("🆕 %s\n%s\n\nChoose a field to change, then save.", d.Name, describeFields(d.Fields))
	return withKeyboard(text, fieldRows(model.TemplateFields, func(f model.FieldID) (string, string) {
		return f.Label(), cb(actDraft, "field", string(f))
	}, row(button("✅ Save template", cb(actDraft, "save")), button("❌ Cancel", cb(actCancel))))...)
}

// fieldSelector is the multi-select keyboard for rule target fields.
func fieldSelector(title string, selected model.FieldSet) view {
	text := fmt.Sprintf("%s\n\nSelected: %s", title, orNone(selected.Labels()))
	return withKeyboard(text, fieldRows(model.RuleFields, func(f model.FieldID) (string, string) {
		mark := "⬜"
		if selected.Has(f) {
			mark = "✅"
		}
		return mark + " " + f.Label(), cb(actSelect, string(f))
	}, row(button("✅ Save", cb(actSelect, "save")), button("❌ Cancel", cb(actCancel))))...)
}

// fieldRows lays fields out two per row and appends tail.
func fieldRows(fields []model.FieldID, label func(model.FieldID) (string, string), tail ...[]tgbotapi.InlineKeyboardButton) [][]tgbotapi.InlineKeyboardButton {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i := 0; i < len(fields); i += 2 {
		var r []tgbotapi.InlineKeyboardButton
		for _, f := range fields[i:min(i+2, len(fields))] {
			text, data := label(f)
			r = append(r, button(text, data))
		}
		rows = append(rows, r)
	}
	return append(rows, tail...)
}

func ruleKindMenu(kind session.RuleKind) string {
	if kind == session.RuleFooter {
		return menuFooters
	}
	return menuReplacements
}

func replacementsMenu(snap *model.Snapshot) view {
	text := fmt.Sprintf("🔄 Replacements: %s\n\n%s", onOff(snap.Toggles.ReplacementEnabled), replacementList(snap))
	return withKeyboard(text, ruleMenuRows(session.RuleReplacement, snap.Toggles, model.FeatureReplacement)...)
}

func footersMenu(snap *model.Snapshot) view {
	text := fmt.Sprintf("📝 Footers: %s\n\n%s", onOff(snap.Toggles.FooterEnabled), footerList(snap))
	return withKeyboard(text, ruleMenuRows(session.RuleFooter, snap.Toggles, model.FeatureFooter)...)
}

func ruleMenuRows(kind session.RuleKind, t model.Toggles, f model.Feature) [][]tgbotapi.InlineKeyboardButton {
	k := string(kind)
	return [][]tgbotapi.InlineKeyboardButton{
		row(button("➕ Add", cb(actRule, k, "add")), button("✏️ Edit", cb(actRule, k, "edit"))),
		row(button("➖ Delete", cb(actRule, k, "del"))),
		row(toggleButton(t, f)),
		backRow(menuMain),
	}
}

func replacementList(snap *model.Snapshot) string {
	if snap.Replacements.Len() == 0 {
		return "No replacement rules."
	}
	var b strings.Builder
	for i, r := range snap.Replacements.Rules {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "#%d %s\n%q → %q\nFields: %s", r.ID, r.Name, r.Original, r.Replacement, r.Fields.Labels())
	}
	return b.String()
}

func footerList(snap *model.Snapshot) string {
	if snap.Footers.Len() == 0 {
		return "No footers."
	}
	var b strings.Builder
	for i, r := range snap.Footers.Rules {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "#%d %s\n%q\nFields: %s", r.ID, r.Name, r.Text, r.Fields.Labels())
	}
	return b.String()
}

// rulePicker lists the rules of one kind as buttons carrying op.
func rulePicker(snap *model.Snapshot, kind session.RuleKind, title, op string) view {
	var rows [][]tgbotapi.InlineKeyboardButton
	add := func(id int, name string) {
		rows = append(rows, row(button(fmt.Sprintf("#%d %s", id, name), cb(actRule, string(kind), op, strconv.Itoa(id)))))
	}
	if kind == session.RuleFooter {
		for _, r := range snap.Footers.Rules {
			add(r.ID, r.Name)
		}
	} else {
		for _, r := range snap.Replacements.Rules {
			add(r.ID, r.Name)
		}
	}
	if len(rows) == 0 {
		title += "\n\nNothing here yet."
	}
	rows = append(rows, backRow(ruleKindMenu(kind)))
	return withKeyboard(title, rows...)
}

// ruleParts offers the editable parts of one rule.
func ruleParts(kind session.RuleKind, id int) view {
	parts := []model.RulePart{model.PartName, model.PartOriginal, model.PartReplacement}
	if kind == session.RuleFooter {
		parts = []model.RulePart{model.PartName, model.PartText}
	}
	var buttons []tgbotapi.InlineKeyboardButton
	for _, p := range parts {
		buttons = append(buttons, button(string(p), cb(actRule, string(kind), "part", strconv.Itoa(id), string(p))))
	}
	return withKeyboard(fmt.Sprintf("✏️ Rule #%d\n\nWhich part do you want to change?", id),
		row(buttons...),
		backRow(ruleKindMenu(kind)),
	)
}

func linksMenu(snap *model.Snapshot) view {
	text := fmt.Sprintf("🔗 Link removal: %s\n\nRemoves http(s) links, www. addresses and @mentions from every field.",
		onOff(snap.Toggles.LinkStripping))
	return withKeyboard(text, row(toggleButton(snap.Toggles, model.FeatureLinkStripping)), backRow(menuMain))
}

func coverMenu(snap *model.Snapshot) view {
	status := "no cover set"
	if snap.HasCover() {
		status = "cover set"
	}
	text := fmt.Sprintf("🖼️ Album cover: %s, %s", onOff(snap.Toggles.AlbumCover), status)
	return withKeyboard(text,
		row(button("🖼️ Set", cb(actCover, "set")), button("👁️ View", cb(actCover, "view")), button("➖ Delete", cb(actCover, "del"))),
		row(toggleButton(snap.Toggles, model.FeatureAlbumCover)),
		backRow(menuMain),
	)
}

func resetConfirm() view {
	text := "⚠️ Reset everything?\n\nThis deletes the channels, every template except the default one, " +
		"all replacement rules and footers, and the album cover. It cannot be undone."
	return withKeyboard(text, row(button("✅ Confirm", cb(actReset, "yes")), button("❌ Cancel", cb(actReset, "no"))))
}

// menuFor renders a menu by name.
func menuFor(name string, snap *model.Snapshot) view {
	switch name {
	case menuChannels:
		return channelsMenu(snap)
	case menuTemplates:
		return templatesMenu(snap)
	case menuReplacements:
		return replacementsMenu(snap)
	case menuFooters:
		return footersMenu(snap)
	case menuLinks:
		return linksMenu(snap)
	case menuCover:
		return coverMenu(snap)
	default:
		return mainMenu(snap)
	}
}

// featureMenu is the menu a feature's toggle lives on.
func featureMenu(f model.Feature) string {
	switch f {
	case model.FeatureReplacement:
		return menuReplacements
	case model.FeatureFooter:
		return menuFooters
	case model.FeatureLinkStripping:
		return menuLinks
	case model.FeatureAlbumCover:
		return menuCover
	default:
		return menuMain
	}
}

// prompt is the instruction shown when a workflow waits in state.
func prompt(st session.State, scratch session.Scratch) string {
	switch st {
	case session.AwaitingSourceChannel:
		return "📥 Send the source channel: @name, a t.me link or a numeric id such as -1001234567890."
	case session.AwaitingTargetChannel:
		return "📤 Send the target channel: @name, a t.me link or a numeric id such as -1001234567890."
	case session.AwaitingReplacementName:
		return "🔄 Send a name for the new replacement rule."
	case session.AwaitingReplacementOriginal:
		return "Send the text to look for."
	case session.AwaitingReplacementNew:
		return "Send the replacement text. Send - to delete the matched text."
	case session.AwaitingFooterName:
		return "📝 Send a name for the new footer."
	case session.AwaitingFooterText:
		return "Send the footer text. It is appended as is, so start it with a space if needed."
	case session.AwaitingTemplateName:
		return "🆕 Send a name for the new template."
	case session.AwaitingTemplateField:
		if d, ok := scratch.(*session.TemplateDraft); ok {
			return fieldPrompt(d.Editing)
		}
		if e, ok := scratch.(*session.TemplateFieldEdit); ok {
			return fieldPrompt(e.Field)
		}
	case session.AwaitingRuleField:
		if e, ok := scratch.(*session.RuleFieldEdit); ok {
			return fmt.Sprintf("Send the new %s for rule #%d.", e.Part, e.ID)
		}
	case session.AwaitingAlbumCover:
		return "🖼️ Send the album cover as a photo."
	case session.AwaitingResetConfirm:
		return "Confirm or cancel the reset."
	}
	return "Send /cancel to stop the current operation."
}

func fieldPrompt(f model.FieldID) string {
	return fmt.Sprintf("Send the value for %s.\nUse %s or - to keep the file's original value.", f.Label(), f.Placeholder())
}
