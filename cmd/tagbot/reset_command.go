package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/handiism/tagbot/internal/bot"
	"github.com/handiism/tagbot/internal/config"
	"github.com/handiism/tagbot/internal/persist"
	"github.com/handiism/tagbot/internal/storage"
)

func newResetCommand(ctx *commandContext) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every setting and stored cover",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("reset deletes all settings; pass --yes to confirm")
			}
			cfg, err := ctx.ensureConfig(cmd.Context())
			if err != nil {
				return err
			}
			lock, err := persist.LockDir(cfg.DataDir)
			if err != nil {
				return fmt.Errorf("is the bot running? %w", err)
			}
			defer lock.Unlock()

			rt, err := ctx.openOffline(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			covers, err := storage.New(cmd.Context(), storage.Config{Dir: cfg.CoverDir, S3: s3Config(cfg)})
			if err != nil {
				return fmt.Errorf("cover storage: %w", err)
			}
			if err := bot.NewResetFunc(rt.gateway, covers, rt.state, rt.logger)(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All settings were reset.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the reset")

	return cmd
}

func s3Config(cfg *config.Config) storage.S3Config {
	return storage.S3Config{
		Bucket:          cfg.S3Bucket,
		Region:          cfg.S3Region,
		Endpoint:        cfg.S3Endpoint,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
	}
}
