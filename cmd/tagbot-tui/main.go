package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/handiism/tagbot/internal/audio"
	"github.com/handiism/tagbot/internal/config"
	"github.com/handiism/tagbot/internal/persist"
	"github.com/handiism/tagbot/internal/pipeline"
	"github.com/handiism/tagbot/internal/state"
	"github.com/handiism/tagbot/internal/storage"
	"github.com/handiism/tagbot/internal/tui"
)

func main() {
	var (
		dataDirFlag = flag.String("data-dir", "", "Data directory (overrides DATA_DIR)")
		outFlag     = flag.String("out", ".", "Directory tagged files are written to")
	)
	flag.Parse()

	if err := run(*dataDirFlag, *outFlag); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(dataDir, outDir string) error {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if dataDir != "" {
		cfg.SetDataDir(dataDir)
	}
	if err := cfg.ValidateOffline(); err != nil {
		return err
	}
	// The console owns the terminal, so logs are dropped.
	logger := cfg.NewLogger(io.Discard)

	db, err := persist.OpenDB(ctx, cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	gw := persist.NewGateway(db, cfg.BackupPath, logger)
	snap, _ := gw.Load(ctx)
	mgr := state.NewManager(snap, gw, logger)

	covers, err := storage.New(ctx, storage.Config{Dir: cfg.CoverDir, S3: storage.S3Config{
		Bucket:          cfg.S3Bucket,
		Region:          cfg.S3Region,
		Endpoint:        cfg.S3Endpoint,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
	}})
	if err != nil {
		return fmt.Errorf("cover storage: %w", err)
	}

	events := make(chan pipeline.ProgressEvent, 64)
	processor := pipeline.NewProcessor(mgr, nil, audio.NewTagger(),
		pipeline.WithCovers(covers),
		pipeline.WithEditLog(gw),
		pipeline.WithLogger(logger),
		pipeline.WithTempRoot(cfg.TempDir),
		pipeline.WithProgress(func(e pipeline.ProgressEvent) {
			select {
			case events <- e:
			default:
			}
		}),
	)

	return tui.Run(tui.NewModel(mgr, processor, events, outDir))
}
