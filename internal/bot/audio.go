package bot

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/handiism/tagbot/internal/model"
	"github.com/handiism/tagbot/internal/pipeline"
)

// inboundAudio is the file part of an audio message, sent either as audio
// or as a document with an audio type.
type inboundAudio struct {
	fileID   string
	fileName string
	mimeType string
}

func audioOf(msg *tgbotapi.Message) *inboundAudio {
	if a := msg.Audio; a != nil {
		return &inboundAudio{fileID: a.FileID, fileName: a.FileName, mimeType: a.MimeType}
	}
	if d := msg.Document; d != nil {
		if strings.HasPrefix(strings.ToLower(d.MimeType), "audio/") || strings.EqualFold(filepath.Ext(d.FileName), ".mp3") {
			return &inboundAudio{fileID: d.FileID, fileName: d.FileName, mimeType: d.MimeType}
		}
	}
	return nil
}

func (a *inboundAudio) item(msg *tgbotapi.Message) *model.AudioItem {
	item := &model.AudioItem{
		FileID:    a.fileID,
		FileName:  a.fileName,
		MimeType:  a.mimeType,
		Caption:   msg.Caption,
		ChatID:    msg.Chat.ID,
		MessageID: msg.MessageID,
	}
	if msg.From != nil {
		item.SenderID = msg.From.ID
		item.SenderName = msg.From.FirstName
	}
	return item
}

func displayName(item *model.AudioItem) string {
	if item.FileName != "" {
		return item.FileName
	}
	return item.TitleInput()
}

func (b *Bot) handleAudio(msg *tgbotapi.Message) {
	a := audioOf(msg)
	item := a.item(msg)
	b.logger.Info("audio received", "file", item.FileName, "sender_id", item.SenderID, "sender", item.SenderName)

	status := tgbotapi.NewMessage(item.ChatID, fmt.Sprintf("📥 Received %s\nProcessing...", displayName(item)))
	status.ReplyToMessageID = msg.MessageID
	sent, _ := b.send(status)
	b.enqueue(job{item: item, statusID: sent.MessageID})
}

// processJob runs one item through the processor and delivers the result.
func (b *Bot) processJob(ctx context.Context, j job) {
	item := j.item
	res, err := b.processor.Process(ctx, item)
	if err != nil {
		b.logger.Error("processing failed", "file", item.FileName, "chat_id", item.ChatID, "error", err)
		if item.Origin == model.OriginChat {
			b.updateStatus(item.ChatID, j.statusID, failureText(item, err))
		}
		return
	}
	defer func() {
		if err := res.Close(); err != nil {
			b.logger.Warn("workspace cleanup failed", "job_id", res.JobID, "error", err)
		}
	}()

	title := res.Title
	if title == "" {
		title = item.TitleInput()
	}

	if item.Origin == model.OriginChat {
		out := tgbotapi.NewAudio(item.ChatID, tgbotapi.FilePath(res.Path))
		out.Caption = fmt.Sprintf("Processed: %s", displayName(item))
		out.Title = title
		out.Performer = res.Artist()
		if _, ok := b.send(out); !ok {
			b.updateStatus(item.ChatID, j.statusID, "⚠️ The file was processed but could not be sent back.")
			return
		}
		b.updateStatus(item.ChatID, j.statusID, reportText(res, title))
	}

	if b.shouldRepublish(item) {
		b.republish(item, res, title)
	}
}

// shouldRepublish reports whether item goes to the target channel: files
// from the administrator and posts in the source channel do.
func (b *Bot) shouldRepublish(item *model.AudioItem) bool {
	switch item.Origin {
	case model.OriginSourceChannel:
		return true
	case model.OriginChat:
		return b.machine.Authorized(item.SenderID)
	}
	return false
}

func (b *Bot) republish(item *model.AudioItem, res *pipeline.Result, title string) {
	target := b.state.View().TargetChannel
	if target == "" {
		return
	}

	out := tgbotapi.NewAudio(0, tgbotapi.FilePath(res.Path))
	if err := setChannel(&out.BaseChat, target); err != nil {
		b.notifyRepublish(item, fmt.Sprintf("⚠️ Target channel %s is not valid: %v", target, err))
		return
	}
	out.Caption = item.Caption
	if out.Caption == "" {
		out.Caption = fmt.Sprintf("Published: %s", title)
	}
	out.Title = title
	out.Performer = res.Artist()

	if _, err := b.api.Send(out); err != nil {
		b.logger.Error("republish failed", "target", target, "file", res.FileName, "error", err)
		b.notifyRepublish(item, fmt.Sprintf("⚠️ Could not publish to %s: %v", target, err))
		return
	}
	b.logger.Info("republished", "target", target, "file", res.FileName)
	if item.Origin == model.OriginChat {
		b.reply(item.ChatID, 0, fmt.Sprintf("📢 Published to %s", target))
	}
}

// notifyRepublish reports a republish problem to whoever can act on it.
func (b *Bot) notifyRepublish(item *model.AudioItem, text string) {
	chatID := item.ChatID
	if item.Origin != model.OriginChat {
		chatID = b.opts.AdminID
	}
	if chatID != 0 {
		b.reply(chatID, 0, text)
	}
}

// setChannel addresses a message to a channel reference: "@name" or a
// numeric chat id.
func setChannel(c *tgbotapi.BaseChat, ref string) error {
	if strings.HasPrefix(ref, "@") {
		c.ChannelUsername = ref
		return nil
	}
	id, err := strconv.ParseInt(ref, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: channel %q", model.ErrInvalidInput, ref)
	}
	c.ChatID = id
	return nil
}

func (b *Bot) updateStatus(chatID int64, messageID int, text string) {
	if messageID == 0 {
		b.reply(chatID, 0, text)
		return
	}
	if _, err := b.api.Request(tgbotapi.NewEditMessageText(chatID, messageID, text)); err != nil {
		b.logger.Debug("status edit failed", "error", err)
	}
}

func reportText(res *pipeline.Result, title string) string {
	switch {
	case res.Passthrough:
		return "✅ The bot is switched off, the file was sent back unchanged."
	case res.Unsupported:
		return "ℹ️ Only MP3 files can be tagged, the file was sent back unchanged."
	}
	text := fmt.Sprintf("✅ Done!\n🎵 Title: %s\n👤 Artist: %s\n💿 Album: %s",
		title, orNone(res.Artist()), orNone(res.Album()))
	if res.CoverApplied {
		text += "\n🖼️ Album cover added"
	}
	return text
}

func failureText(item *model.AudioItem, err error) string {
	if errors.Is(err, pipeline.ErrFailed) {
		return fmt.Sprintf("⚠️ Processing %s failed.", displayName(item))
	}
	return fmt.Sprintf("⚠️ Processing %s failed: %v", displayName(item), err)
}
