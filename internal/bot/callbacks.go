package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/handiism/tagbot/internal/model"
	"github.com/handiism/tagbot/internal/session"
)

// press is one button press being handled.
type press struct {
	chatID    int64
	messageID int
	actor     int64
	cb        callback
}

func (b *Bot) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	if q.Message == nil || q.Message.Chat == nil || q.From == nil {
		b.answer(q.ID, "", false)
		return
	}
	if !b.machine.Authorized(q.From.ID) {
		b.answer(q.ID, errorText(session.ErrUnauthorized), true)
		return
	}

	p := press{
		chatID:    q.Message.Chat.ID,
		messageID: q.Message.MessageID,
		actor:     q.From.ID,
		cb:        parseCallback(q.Data),
	}
	notice, err := b.dispatch(ctx, p)
	if err != nil {
		b.logger.Debug("callback failed", "data", q.Data, "error", err)
		b.answer(q.ID, errorText(err), true)
		return
	}
	b.answer(q.ID, notice, false)
}

// answer acknowledges a button press, optionally with a toast or alert.
func (b *Bot) answer(id, text string, alert bool) {
	cfg := tgbotapi.NewCallback(id, text)
	cfg.ShowAlert = alert
	if _, err := b.api.Request(cfg); err != nil {
		b.logger.Debug("callback answer failed", "error", err)
	}
}

// dispatch runs a button press and returns a short notice for the toast.
func (b *Bot) dispatch(ctx context.Context, p press) (string, error) {
	switch p.cb.action {
	case actMenu:
		b.showView(p.chatID, p.messageID, menuFor(p.cb.arg(0), b.state.View()))
		return "", nil
	case actToggle:
		return b.onToggle(ctx, p)
	case actChannel:
		return b.onChannel(ctx, p)
	case actTemplate:
		return b.onTemplate(ctx, p)
	case actDraft:
		return b.onDraft(ctx, p)
	case actRule:
		return b.onRule(ctx, p)
	case actSelect:
		return b.onSelect(ctx, p)
	case actCover:
		return b.onCover(ctx, p)
	case actReset:
		return b.onReset(ctx, p)
	case actCancel:
		had, err := b.machine.Cancel(ctx, p.actor)
		if err != nil {
			return "", err
		}
		if had {
			b.showView(p.chatID, p.messageID, view{text: "❌ Operation cancelled."})
		}
		return "Cancelled", nil
	}
	return "", fmt.Errorf("%w: unknown button %q", model.ErrInvalidInput, p.cb.action)
}

func (b *Bot) onToggle(ctx context.Context, p press) (string, error) {
	f := model.Feature(p.cb.arg(0))
	var on bool
	err := b.state.Update(ctx, func(snap *model.Snapshot) error {
		var err error
		on, err = snap.Toggles.Flip(f)
		return err
	})
	if err != nil {
		return "", err
	}
	b.showView(p.chatID, p.messageID, menuFor(featureMenu(f), b.state.View()))
	if on {
		return f.Label() + " enabled", nil
	}
	return f.Label() + " disabled", nil
}

func (b *Bot) onChannel(ctx context.Context, p press) (string, error) {
	switch op := p.cb.arg(0); op {
	case "src", "dst":
		b.startWorkflow(ctx, p.chatID, p.actor, &session.ChannelInput{Target: op == "dst"})
		return "", nil
	case "clrsrc", "clrdst":
		err := b.state.Update(ctx, func(snap *model.Snapshot) error {
			if op == "clrsrc" {
				snap.ClearSourceChannel()
			} else {
				snap.ClearTargetChannel()
			}
			return nil
		})
		if err != nil {
			return "", err
		}
		b.showView(p.chatID, p.messageID, channelsMenu(b.state.View()))
		return "Channel cleared", nil
	}
	return "", fmt.Errorf("%w: unknown channel action", model.ErrInvalidInput)
}

func (b *Bot) onTemplate(ctx context.Context, p press) (string, error) {
	snap := b.state.View()
	switch p.cb.arg(0) {
	case "list":
		b.showView(p.chatID, p.messageID, templateList(snap))
	case "cur":
		b.showView(p.chatID, p.messageID, templateDetail(snap, snap.CurrentKey, menuTemplates))
	case "switch":
		b.showView(p.chatID, p.messageID, templatePicker(snap, "🔄 Choose the template to use.", "use"))
	case "edit":
		b.showView(p.chatID, p.messageID, templatePicker(snap, "✏️ Choose a template to edit.", "open"))
	case "del":
		b.showView(p.chatID, p.messageID, templatePicker(snap, "🗑️ Choose a template to delete.", "rm"))
	case "add":
		b.startWorkflow(ctx, p.chatID, p.actor, &session.TemplateDraft{})

	case "use":
		key, err := lookupTemplate(snap, p.cb.arg(1))
		if err != nil {
			return "", err
		}
		if err := b.state.Update(ctx, func(s *model.Snapshot) error { return s.SetCurrentTemplate(key) }); err != nil {
			return "", err
		}
		b.showView(p.chatID, p.messageID, templatesMenu(b.state.View()))
		return "Now using " + snap.Templates[key].Name, nil

	case "rm":
		key, err := lookupTemplate(snap, p.cb.arg(1))
		if err != nil {
			return "", err
		}
		if err := b.state.Update(ctx, func(s *model.Snapshot) error { return s.DeleteTemplate(key) }); err != nil {
			return "", err
		}
		b.showView(p.chatID, p.messageID, templatePicker(b.state.View(), "🗑️ Choose a template to delete.", "rm"))
		return "Deleted " + snap.Templates[key].Name, nil

	case "open":
		key, err := lookupTemplate(snap, p.cb.arg(1))
		if err != nil {
			return "", err
		}
		b.showView(p.chatID, p.messageID, templateEditor(snap, key))

	case "field":
		key, err := lookupTemplate(snap, p.cb.arg(1))
		if err != nil {
			return "", err
		}
		f, err := model.ParseFieldID(p.cb.arg(2))
		if err != nil {
			return "", err
		}
		b.startWorkflow(ctx, p.chatID, p.actor, &session.TemplateFieldEdit{Key: key, Field: f})

	default:
		return "", fmt.Errorf("%w: unknown template action", model.ErrInvalidInput)
	}
	return "", nil
}

func (b *Bot) onDraft(ctx context.Context, p press) (string, error) {
	switch p.cb.arg(0) {
	case "field":
		f, err := model.ParseFieldID(p.cb.arg(1))
		if err != nil {
			return "", err
		}
		step, err := b.machine.SelectField(ctx, p.actor, f)
		if err != nil {
			return "", err
		}
		b.reply(p.chatID, 0, prompt(step.State, step.Scratch))
		return "", nil
	case "save":
		out, err := b.machine.Save(ctx, p.actor)
		if err != nil {
			return "", err
		}
		b.finishView(p.chatID, p.messageID, out)
		return "Saved", nil
	}
	return "", fmt.Errorf("%w: unknown draft action", model.ErrInvalidInput)
}

func (b *Bot) onRule(ctx context.Context, p press) (string, error) {
	kind := session.RuleKind(p.cb.arg(0))
	if kind != session.RuleReplacement && kind != session.RuleFooter {
		return "", fmt.Errorf("%w: unknown rule kind %q", model.ErrInvalidInput, kind)
	}
	snap := b.state.View()

	switch p.cb.arg(1) {
	case "add":
		var scratch session.Scratch = &session.ReplacementDraft{}
		if kind == session.RuleFooter {
			scratch = &session.FooterDraft{}
		}
		b.startWorkflow(ctx, p.chatID, p.actor, scratch)
	case "edit":
		b.showView(p.chatID, p.messageID, rulePicker(snap, kind, "✏️ Choose a rule to edit.", "open"))
	case "del":
		b.showView(p.chatID, p.messageID, rulePicker(snap, kind, "➖ Choose a rule to delete.", "rm"))

	case "rm":
		id, err := p.cb.intArg(2)
		if err != nil {
			return "", err
		}
		err = b.state.Update(ctx, func(s *model.Snapshot) error {
			if kind == session.RuleFooter {
				return s.DeleteFooterRule(id)
			}
			return s.DeleteReplacementRule(id)
		})
		if err != nil {
			return "", err
		}
		b.showView(p.chatID, p.messageID, rulePicker(b.state.View(), kind, "➖ Choose a rule to delete.", "rm"))
		return fmt.Sprintf("Rule #%d deleted", id), nil

	case "open":
		id, err := p.cb.intArg(2)
		if err != nil {
			return "", err
		}
		b.showView(p.chatID, p.messageID, ruleParts(kind, id))

	case "part":
		id, err := p.cb.intArg(2)
		if err != nil {
			return "", err
		}
		edit := &session.RuleFieldEdit{Rule: kind, ID: id, Part: model.RulePart(p.cb.arg(3))}
		b.startWorkflow(ctx, p.chatID, p.actor, edit)

	default:
		return "", fmt.Errorf("%w: unknown rule action", model.ErrInvalidInput)
	}
	return "", nil
}

func (b *Bot) onSelect(ctx context.Context, p press) (string, error) {
	if p.cb.arg(0) == "save" {
		out, err := b.machine.Save(ctx, p.actor)
		if err != nil {
			return "", err
		}
		b.finishView(p.chatID, p.messageID, out)
		return "Saved", nil
	}

	f, err := model.ParseFieldID(p.cb.arg(0))
	if err != nil {
		return "", err
	}
	set, err := b.machine.ToggleField(ctx, p.actor, f)
	if err != nil {
		return "", err
	}
	scratch, _, err := b.machine.Current(ctx, p.actor)
	if err != nil {
		return "", err
	}
	b.showView(p.chatID, p.messageID, fieldSelector(selectorTitle(scratch), set))
	return "", nil
}

func (b *Bot) onCover(ctx context.Context, p press) (string, error) {
	snap := b.state.View()
	switch p.cb.arg(0) {
	case "set":
		if b.covers == nil || b.fetcher == nil {
			return "", errCoversDisabled
		}
		b.startWorkflow(ctx, p.chatID, p.actor, &session.CoverInput{})
		return "", nil

	case "view":
		if !snap.HasCover() {
			return "No cover set", nil
		}
		if b.covers == nil {
			return "", errCoversDisabled
		}
		data, err := b.covers.Get(ctx, snap.CoverRef)
		if err != nil {
			return "", err
		}
		photo := tgbotapi.NewPhoto(p.chatID, tgbotapi.FileBytes{Name: snap.CoverRef, Bytes: data})
		photo.Caption = "🖼️ Current album cover"
		b.send(photo)
		return "", nil

	case "del":
		if !snap.HasCover() {
			return "No cover set", nil
		}
		ref := snap.CoverRef
		if err := b.state.Update(ctx, func(s *model.Snapshot) error { s.ClearCover(); return nil }); err != nil {
			return "", err
		}
		b.deleteCover(ctx, ref)
		b.showView(p.chatID, p.messageID, coverMenu(b.state.View()))
		return "Cover deleted", nil
	}
	return "", fmt.Errorf("%w: unknown cover action", model.ErrInvalidInput)
}

func (b *Bot) onReset(ctx context.Context, p press) (string, error) {
	switch p.cb.arg(0) {
	case "yes":
		out, err := b.machine.Save(ctx, p.actor)
		if err != nil {
			return "", err
		}
		b.finishView(p.chatID, p.messageID, out)
		return "Reset done", nil
	case "no":
		if _, err := b.machine.Cancel(ctx, p.actor); err != nil {
			return "", err
		}
		b.showView(p.chatID, p.messageID, view{text: "❌ Reset cancelled."})
		return "", nil
	}
	return "", fmt.Errorf("%w: unknown reset action", model.ErrInvalidInput)
}

var errCoversDisabled = fmt.Errorf("%w: album cover storage is not configured", model.ErrInvalidOperation)

// deleteCover removes a stored cover file. The snapshot no longer points
// at it, so failures are only logged.
func (b *Bot) deleteCover(ctx context.Context, ref string) {
	if b.covers == nil || ref == "" {
		return
	}
	if err := b.covers.Delete(ctx, ref); err != nil {
		b.logger.Warn("failed to delete cover", "ref", ref, "error", err)
	}
}

// startWorkflow begins a workflow and sends its first prompt.
func (b *Bot) startWorkflow(ctx context.Context, chatID, actor int64, scratch session.Scratch) {
	if !b.begin(ctx, chatID, actor, scratch) {
		return
	}
	scratch, st, err := b.machine.Current(ctx, actor)
	if err != nil {
		b.reply(chatID, 0, errorText(err))
		return
	}
	b.reply(chatID, 0, prompt(st, scratch))
}

// finishView reports a committed workflow and shows the menu it belongs
// to.
func (b *Bot) finishView(chatID int64, messageID int, out session.Outcome) {
	b.showView(chatID, messageID, view{text: outcomeText(out)})
	b.sendView(chatID, menuFor(outcomeMenu(out.Kind), b.state.View()))
}

func selectorTitle(scratch session.Scratch) string {
	switch s := scratch.(type) {
	case *session.ReplacementDraft:
		return fmt.Sprintf("🔄 %s\nChoose the fields the rule applies to.", s.Name)
	case *session.FooterDraft:
		return fmt.Sprintf("📝 %s\nChoose the fields the footer is added to.", s.Name)
	}
	return "Choose the fields."
}

func selectedFields(scratch session.Scratch) model.FieldSet {
	switch s := scratch.(type) {
	case *session.ReplacementDraft:
		return s.Fields
	case *session.FooterDraft:
		return s.Fields
	}
	return nil
}

func outcomeText(out session.Outcome) string {
	switch out.Kind {
	case session.KindSourceChannel:
		return fmt.Sprintf("✅ Source channel set to %s", out.Value)
	case session.KindTargetChannel:
		return fmt.Sprintf("✅ Target channel set to %s", out.Value)
	case session.KindTemplate:
		return fmt.Sprintf("✅ Template %s saved as %s", out.Value, out.Key)
	case session.KindTemplateField:
		return fmt.Sprintf("✅ Template %s updated", out.Key)
	case session.KindReplacement:
		return fmt.Sprintf("✅ Replacement rule #%d %s added", out.RuleID, out.Value)
	case session.KindFooter:
		return fmt.Sprintf("✅ Footer #%d %s added", out.RuleID, out.Value)
	case session.KindRuleField:
		return fmt.Sprintf("✅ Rule #%d updated", out.RuleID)
	case session.KindAlbumCover:
		return "✅ Album cover saved"
	case session.KindReset:
		return "✅ All settings were reset to their defaults."
	}
	return "✅ Done"
}

func outcomeMenu(kind session.Kind) string {
	switch kind {
	case session.KindSourceChannel, session.KindTargetChannel:
		return menuChannels
	case session.KindTemplate, session.KindTemplateField:
		return menuTemplates
	case session.KindReplacement:
		return menuReplacements
	case session.KindFooter:
		return menuFooters
	case session.KindAlbumCover:
		return menuCover
	}
	return menuMain
}
