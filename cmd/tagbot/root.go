package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var dataDirFlag string

	ctx := newCommandContext(&dataDirFlag)

	rootCmd := &cobra.Command{
		Use:           "tagbot",
		Short:         "Telegram bot that rewrites the ID3 tags of audio files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensureConfig(cmd.Context())
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&dataDirFlag, "data-dir", "d", "", "Data directory (overrides DATA_DIR)")

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newApplyCommand(ctx))
	rootCmd.AddCommand(newShowCommand(ctx))
	rootCmd.AddCommand(newLogCommand(ctx))
	rootCmd.AddCommand(newResetCommand(ctx))

	return rootCmd
}
