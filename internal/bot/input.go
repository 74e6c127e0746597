package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/handiism/tagbot/internal/model"
	"github.com/handiism/tagbot/internal/session"
)

const idleText = "🎵 Send me an MP3 file to tag. Send /help for more."

// handleText feeds free text to the admin's workflow.
func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	actor := senderID(msg)
	if !b.machine.Authorized(actor) {
		b.reply(chatID, 0, idleText)
		return
	}

	scratch, st, err := b.machine.Current(ctx, actor)
	if err != nil {
		b.reply(chatID, 0, errorText(err))
		return
	}
	if st == session.Idle {
		b.reply(chatID, 0, idleText)
		return
	}
	if !st.ExpectsText() {
		b.reply(chatID, msg.MessageID, prompt(st, scratch))
		return
	}

	step, err := b.machine.Input(ctx, actor, msg.Text)
	if err != nil {
		b.reply(chatID, msg.MessageID, errorText(err)+"\n\n"+prompt(st, scratch))
		return
	}
	b.afterStep(chatID, step)
}

// afterStep shows what comes after a workflow step.
func (b *Bot) afterStep(chatID int64, step session.Step) {
	switch {
	case step.Done():
		b.reply(chatID, 0, outcomeText(*step.Outcome))
		b.sendView(chatID, menuFor(outcomeMenu(step.Outcome.Kind), b.state.View()))
	case step.State.SelectingFields():
		b.sendView(chatID, fieldSelector(selectorTitle(step.Scratch), selectedFields(step.Scratch)))
	case step.State == session.EditingTemplateDraft:
		if d, ok := step.Scratch.(*session.TemplateDraft); ok {
			b.sendView(chatID, draftEditor(d))
			return
		}
		b.reply(chatID, 0, prompt(step.State, step.Scratch))
	default:
		b.reply(chatID, 0, prompt(step.State, step.Scratch))
	}
}

// handlePhoto stores a photo as the album cover when the admin is asked
// for one.
func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	actor := senderID(msg)
	if !b.machine.Authorized(actor) {
		b.reply(chatID, 0, idleText)
		return
	}
	_, st, err := b.machine.Current(ctx, actor)
	if err != nil {
		b.reply(chatID, 0, errorText(err))
		return
	}
	if st != session.AwaitingAlbumCover {
		b.reply(chatID, msg.MessageID, "ℹ️ To use this photo as the album cover, open /control, then Album cover, then Set.")
		return
	}

	ref, err := b.storeCover(ctx, msg.Photo)
	if err != nil {
		b.logger.Error("failed to store cover", "error", err)
		b.reply(chatID, msg.MessageID, errorText(err)+"\n\n"+prompt(st, nil))
		return
	}

	old := b.state.View().CoverRef
	out, err := b.machine.AcceptCover(ctx, actor, ref)
	if err != nil {
		b.deleteCover(ctx, ref)
		b.reply(chatID, 0, errorText(err))
		return
	}
	if old != "" && old != ref {
		b.deleteCover(ctx, old)
	}
	b.logger.Info("album cover updated", "ref", ref)
	b.reply(chatID, 0, outcomeText(out))
	b.sendView(chatID, coverMenu(b.state.View()))
}

// storeCover downloads the largest size of a photo, normalizes it and
// saves it.
func (b *Bot) storeCover(ctx context.Context, sizes []tgbotapi.PhotoSize) (string, error) {
	if b.covers == nil || b.fetcher == nil {
		return "", errCoversDisabled
	}
	largest := sizes[0]
	for _, s := range sizes[1:] {
		if s.Width*s.Height > largest.Width*largest.Height {
			largest = s
		}
	}

	url, err := b.api.GetFileDirectURL(largest.FileID)
	if err != nil {
		return "", fmt.Errorf("resolve photo: %w", err)
	}
	data, err := b.fetcher.DownloadBytes(ctx, url)
	if err != nil {
		return "", fmt.Errorf("download photo: %w", err)
	}
	jpeg, err := b.images.PrepareCover(ctx, data, b.opts.CoverMaxSize)
	if err != nil {
		return "", fmt.Errorf("%w: the photo could not be read as an image", model.ErrInvalidInput)
	}
	return b.covers.Put(ctx, jpeg)
}
