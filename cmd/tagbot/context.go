package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/handiism/tagbot/internal/config"
	"github.com/handiism/tagbot/internal/persist"
	"github.com/handiism/tagbot/internal/state"
)

type commandContext struct {
	dataDirFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(dataDirFlag *string) *commandContext {
	return &commandContext{dataDirFlag: dataDirFlag}
}

func (c *commandContext) ensureConfig(ctx context.Context) (*config.Config, error) {
	c.configOnce.Do(func() {
		if ctx == nil {
			ctx = context.Background()
		}
		cfg, err := config.Load(ctx)
		if err != nil {
			c.configErr = err
			return
		}
		if c.dataDirFlag != nil {
			if dir := strings.TrimSpace(*c.dataDirFlag); dir != "" {
				cfg.SetDataDir(dir)
			}
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// offline is the storage stack used by the commands that run without the
// chat API.
type offline struct {
	cfg     *config.Config
	logger  *slog.Logger
	db      *persist.DB
	gateway *persist.Gateway
	state   *state.Manager
	source  persist.Source
}

func (o *offline) Close() error {
	return o.db.Close()
}

// openOffline validates the offline settings, opens the database and loads
// the stored snapshot. Logs go to w.
func (c *commandContext) openOffline(ctx context.Context, w io.Writer) (*offline, error) {
	cfg, err := c.ensureConfig(ctx)
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateOffline(); err != nil {
		return nil, err
	}
	logger := cfg.NewLogger(w)

	db, err := persist.OpenDB(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	gw := persist.NewGateway(db, cfg.BackupPath, logger)
	snap, source := gw.Load(ctx)
	return &offline{
		cfg:     cfg,
		logger:  logger,
		db:      db,
		gateway: gw,
		state:   state.NewManager(snap, gw, logger),
		source:  source,
	}, nil
}
