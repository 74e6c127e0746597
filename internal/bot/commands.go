package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/handiism/tagbot/internal/session"
)

const helpText = `🎵 Send me an MP3 file and I will rewrite its tags.

The title comes from the caption, or from the file name when there is no caption. The other fields come from the current template.

Commands:
/start - welcome message
/help - this help
/control - control panel (administrator)
/reset - reset every setting (administrator)
/cancel - stop the current operation`

const unauthorizedText = "⛔ This command is for the administrator only."

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	actor := senderID(msg)

	switch msg.Command() {
	case "start":
		name := "there"
		if msg.From != nil && msg.From.FirstName != "" {
			name = msg.From.FirstName
		}
		b.reply(chatID, 0, fmt.Sprintf("👋 Hi %s!\n\n%s", name, helpText))

	case "help":
		b.reply(chatID, 0, helpText)

	case "control", "settings":
		if !b.machine.Authorized(actor) {
			b.reply(chatID, msg.MessageID, unauthorizedText)
			return
		}
		b.sendView(chatID, mainMenu(b.state.View()))

	case "reset":
		if !b.machine.Authorized(actor) {
			b.reply(chatID, msg.MessageID, unauthorizedText)
			return
		}
		if b.begin(ctx, chatID, actor, &session.ResetConfirm{}) {
			b.sendView(chatID, resetConfirm())
		}

	case "cancel":
		if !b.machine.Authorized(actor) {
			b.reply(chatID, msg.MessageID, unauthorizedText)
			return
		}
		had, err := b.machine.Cancel(ctx, actor)
		switch {
		case err != nil:
			b.reply(chatID, 0, errorText(err))
		case had:
			b.reply(chatID, 0, "❌ Operation cancelled.")
		default:
			b.reply(chatID, 0, "Nothing to cancel.")
		}

	default:
		b.reply(chatID, msg.MessageID, "Unknown command. Send /help for the list.")
	}
}

// begin starts a workflow and tells the actor when an unfinished one was
// dropped. It reports whether the workflow started.
func (b *Bot) begin(ctx context.Context, chatID, actor int64, scratch session.Scratch) bool {
	discarded, err := b.machine.Begin(ctx, actor, scratch)
	if err != nil {
		b.reply(chatID, 0, errorText(err))
		return false
	}
	if discarded {
		b.reply(chatID, 0, "ℹ️ The previous unfinished operation was discarded.")
	}
	return true
}

func senderID(msg *tgbotapi.Message) int64 {
	if msg.From == nil {
		return 0
	}
	return msg.From.ID
}
