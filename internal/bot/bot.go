package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	ioutils "github.com/handiism/tagbot/internal/io"
	"github.com/handiism/tagbot/internal/model"
	"github.com/handiism/tagbot/internal/pipeline"
	"github.com/handiism/tagbot/internal/session"
	"github.com/handiism/tagbot/internal/state"
	"github.com/handiism/tagbot/internal/storage"
)

// API is the part of the Bot API client the bot uses. *tgbotapi.BotAPI
// implements it.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Processor tags one audio item.
type Processor interface {
	Process(ctx context.Context, item *model.AudioItem) (*pipeline.Result, error)
}

// Fetcher downloads small files into memory.
type Fetcher interface {
	DownloadBytes(ctx context.Context, url string) ([]byte, error)
}

// FileResolver turns file ids into download URLs through the Bot API.
type FileResolver struct {
	API API
}

// FileURL implements pipeline.FileResolver.
func (r FileResolver) FileURL(_ context.Context, fileID string) (string, error) {
	return r.API.GetFileDirectURL(fileID)
}

// Deps are the collaborators of a Bot.
type Deps struct {
	API       API
	Machine   *session.Machine
	State     *state.Manager
	Processor Processor
	Covers    storage.Store
	Fetcher   Fetcher
	Images    *ioutils.ImageService
	Logger    *slog.Logger
}

// Options tune a Bot.
type Options struct {
	AdminID      int64
	Workers      int
	QueueSize    int
	PollTimeout  time.Duration
	CoverMaxSize int
}

// Bot is the chat front end: it reads updates, drives the admin
// workflows and hands audio items to the processor.
type Bot struct {
	api       API
	machine   *session.Machine
	state     *state.Manager
	processor Processor
	covers    storage.Store
	fetcher   Fetcher
	images    *ioutils.ImageService
	logger    *slog.Logger
	opts      Options

	jobs chan job
}

// job is one queued audio item. statusID is the "processing" message to
// update, zero for channel posts.
type job struct {
	item     *model.AudioItem
	statusID int
}

// New creates a Bot.
func New(deps Deps, opts Options) (*Bot, error) {
	switch {
	case deps.API == nil:
		return nil, errors.New("bot: API is required")
	case deps.Machine == nil || deps.State == nil:
		return nil, errors.New("bot: session machine and state are required")
	case deps.Processor == nil:
		return nil, errors.New("bot: processor is required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Images == nil {
		deps.Images = ioutils.NewImageService()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.QueueSize < 1 {
		opts.QueueSize = 100
	}
	if opts.CoverMaxSize < 1 {
		opts.CoverMaxSize = ioutils.DefaultCoverSize
	}
	return &Bot{
		api:       deps.API,
		machine:   deps.Machine,
		state:     deps.State,
		processor: deps.Processor,
		covers:    deps.Covers,
		fetcher:   deps.Fetcher,
		images:    deps.Images,
		logger:    deps.Logger,
		opts:      opts,
		jobs:      make(chan job, opts.QueueSize),
	}, nil
}

// Run polls for updates until ctx is cancelled, then waits for queued
// items to finish.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = int(b.opts.PollTimeout / time.Second)
	updates := b.api.GetUpdatesChan(u)

	workers := make(chan error, 1)
	go func() { workers <- b.work(ctx) }()

	b.logger.Info("bot started", "workers", b.opts.Workers, "admin_id", b.opts.AdminID)

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case upd, ok := <-updates:
			if !ok {
				break loop
			}
			b.handleUpdate(ctx, upd)
		}
	}

	b.api.StopReceivingUpdates()
	close(b.jobs)
	err := <-workers
	b.logger.Info("bot stopped")
	return err
}

// work runs queued items with at most Workers in flight.
func (b *Bot) work(ctx context.Context) error {
	var g errgroup.Group
	g.SetLimit(b.opts.Workers)
	for j := range b.jobs {
		g.Go(func() error {
			b.processJob(context.WithoutCancel(ctx), j)
			return nil
		})
	}
	return g.Wait()
}

// enqueue hands an item to the workers, telling the sender when the queue
// is full.
func (b *Bot) enqueue(j job) {
	item := j.item
	select {
	case b.jobs <- j:
	default:
		b.logger.Warn("queue full, dropping item", "file", item.FileName, "chat_id", item.ChatID)
		if item.Origin == model.OriginChat {
			b.updateStatus(item.ChatID, j.statusID, "⚠️ Too many files in progress. Please send it again in a minute.")
		}
	}
}

// handleUpdate routes one update. Panics are logged and swallowed so one
// bad update can't stop the loop.
func (b *Bot) handleUpdate(ctx context.Context, upd tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("panic while handling update", "update_id", upd.UpdateID, "panic", r, "stack", string(debug.Stack()))
		}
	}()

	switch {
	case upd.CallbackQuery != nil:
		b.handleCallback(ctx, upd.CallbackQuery)
	case upd.Message != nil:
		b.handleMessage(ctx, upd.Message)
	case upd.ChannelPost != nil:
		b.handleChannelPost(upd.ChannelPost)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	switch {
	case msg.IsCommand():
		b.handleCommand(ctx, msg)
	case audioOf(msg) != nil:
		b.handleAudio(msg)
	case len(msg.Photo) > 0:
		b.handlePhoto(ctx, msg)
	case msg.Text != "":
		b.handleText(ctx, msg)
	}
}

func (b *Bot) handleChannelPost(msg *tgbotapi.Message) {
	a := audioOf(msg)
	if a == nil || msg.Chat == nil {
		return
	}
	snap := b.state.View()
	if !snap.IsSourceChannel(msg.Chat.ID, msg.Chat.UserName) {
		return
	}
	b.logger.Info("audio from source channel", "channel", snap.SourceChannel, "file", a.fileName)
	item := a.item(msg)
	item.Origin = model.OriginSourceChannel
	item.SenderName = msg.Chat.Title
	b.enqueue(job{item: item})
}

// send delivers c and logs failures.
func (b *Bot) send(c tgbotapi.Chattable) (tgbotapi.Message, bool) {
	m, err := b.api.Send(c)
	if err != nil {
		b.logger.Warn("send failed", "error", err)
		return m, false
	}
	return m, true
}

func (b *Bot) reply(chatID int64, replyTo int, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyToMessageID = replyTo
	b.send(msg)
}

func (b *Bot) sendView(chatID int64, v view) {
	msg := tgbotapi.NewMessage(chatID, v.text)
	if v.markup != nil {
		msg.ReplyMarkup = *v.markup
	}
	b.send(msg)
}

// showView replaces the message a button was pressed on, or sends a new
// one when there is nothing to edit.
func (b *Bot) showView(chatID int64, messageID int, v view) {
	if messageID == 0 {
		b.sendView(chatID, v)
		return
	}
	var edit tgbotapi.EditMessageTextConfig
	if v.markup != nil {
		edit = tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, v.text, *v.markup)
	} else {
		edit = tgbotapi.NewEditMessageText(chatID, messageID, v.text)
	}
	if _, err := b.api.Request(edit); err != nil {
		b.logger.Debug("edit failed", "error", err)
	}
}

// errorText turns an error into a message for the admin.
func errorText(err error) string {
	switch {
	case errors.Is(err, session.ErrUnauthorized):
		return "⛔ This action is for the administrator only."
	case errors.Is(err, model.ErrNotFound),
		errors.Is(err, storage.ErrNotFound),
		errors.Is(err, model.ErrInvalidInput),
		errors.Is(err, model.ErrInvalidOperation):
		return fmt.Sprintf("⚠️ %v", err)
	default:
		return "⚠️ Something went wrong. Please try again."
	}
}
