package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/handiism/tagbot/internal/audio"
	"github.com/handiism/tagbot/internal/bot"
	"github.com/handiism/tagbot/internal/config"
	apphttp "github.com/handiism/tagbot/internal/http"
	ioutils "github.com/handiism/tagbot/internal/io"
	"github.com/handiism/tagbot/internal/persist"
	"github.com/handiism/tagbot/internal/pipeline"
	"github.com/handiism/tagbot/internal/session"
	"github.com/handiism/tagbot/internal/state"
	"github.com/handiism/tagbot/internal/storage"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig(cmd.Context())
			if err != nil {
				return err
			}
			if err := cfg.ValidateBot(); err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(runCtx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := cfg.NewLogger(os.Stderr)
	slog.SetDefault(logger)
	logger.Info("starting tagbot", "config", cfg.String())

	lock, err := persist.LockDir(cfg.DataDir)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	db, err := persist.OpenDB(ctx, cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	gw := persist.NewGateway(db, cfg.BackupPath, logger)
	snap, source := gw.Load(ctx)
	logger.Info("settings loaded", "source", source.String(), "templates", len(snap.Templates))
	mgr := state.NewManager(snap, gw, logger)

	sessions, err := openSessions(ctx, cfg)
	if err != nil {
		return err
	}
	defer sessions.Close()

	covers, err := storage.New(ctx, storage.Config{Dir: cfg.CoverDir, S3: s3Config(cfg)})
	if err != nil {
		return fmt.Errorf("cover storage: %w", err)
	}

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return fmt.Errorf("connect to telegram: %w", err)
	}
	logger.Info("authorized", "bot", api.Self.UserName)

	client := apphttp.NewClient(apphttp.WithMaxRetries(cfg.DownloadMaxRetries))
	processor := pipeline.NewProcessor(mgr, client, audio.NewTagger(),
		pipeline.WithFileResolver(bot.FileResolver{API: api}),
		pipeline.WithCovers(covers),
		pipeline.WithEditLog(gw),
		pipeline.WithLogger(logger),
		pipeline.WithTempRoot(cfg.TempDir),
		pipeline.WithProgress(func(e pipeline.ProgressEvent) {
			logger.Debug(e.Message, "job_id", e.JobID, "level", int(e.Level))
		}),
	)

	machine := session.NewMachine(cfg.AdminID, sessions, mgr, bot.NewResetFunc(gw, covers, mgr, logger))
	b, err := bot.New(bot.Deps{
		API:       api,
		Machine:   machine,
		State:     mgr,
		Processor: processor,
		Covers:    covers,
		Fetcher:   client,
		Images:    ioutils.NewImageService(),
		Logger:    logger,
	}, bot.Options{
		AdminID:      cfg.AdminID,
		Workers:      cfg.MaxConcurrentItems,
		PollTimeout:  cfg.PollTimeout,
		CoverMaxSize: cfg.CoverMaxSize,
	})
	if err != nil {
		return err
	}
	return b.Run(ctx)
}

func openSessions(ctx context.Context, cfg *config.Config) (session.Store, error) {
	opts := []session.StoreOption{session.WithTTL(cfg.SessionTTL)}
	if session.StoreType(cfg.SessionDriver) == session.StoreTypeRedis {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		opts = append(opts, session.WithRedisClient(client))
	}
	return session.NewStore(session.StoreType(cfg.SessionDriver), opts...)
}
