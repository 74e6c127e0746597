package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/handiism/tagbot/internal/audio"
	ioutils "github.com/handiism/tagbot/internal/io"
	"github.com/handiism/tagbot/internal/model"
	"github.com/handiism/tagbot/internal/pipeline"
	"github.com/handiism/tagbot/internal/storage"
)

func newApplyCommand(ctx *commandContext) *cobra.Command {
	var (
		title   string
		outDir  string
		dryRun  bool
		inPlace bool
	)

	cmd := &cobra.Command{
		Use:   "apply FILE",
		Short: "Tag a local file with the stored settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.openOffline(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			path := args[0]
			if _, err := os.Stat(path); err != nil {
				return err
			}

			opts := []pipeline.Option{
				pipeline.WithEditLog(rt.gateway),
				pipeline.WithLogger(rt.logger),
				pipeline.WithTempRoot(rt.cfg.TempDir),
			}
			if rt.state.View().HasCover() {
				covers, err := storage.New(cmd.Context(), storage.Config{Dir: rt.cfg.CoverDir, S3: s3Config(rt.cfg)})
				if err != nil {
					return fmt.Errorf("cover storage: %w", err)
				}
				opts = append(opts, pipeline.WithCovers(covers))
			}
			processor := pipeline.NewProcessor(rt.state, nil, audio.NewTagger(), opts...)

			res, err := processor.Process(cmd.Context(), &model.AudioItem{
				LocalPath: path,
				FileName:  filepath.Base(path),
				Caption:   title,
				Origin:    model.OriginLocal,
			})
			if err != nil {
				return err
			}
			defer res.Close()

			out := cmd.OutOrStdout()
			switch {
			case res.Passthrough:
				fmt.Fprintln(out, "The bot is disabled; the file would be sent back unchanged.")
			case res.Unsupported:
				fmt.Fprintln(out, "Only MP3 files can be tagged; the file would be sent back unchanged.")
			default:
				rows := make([][]string, 0, len(res.Changes))
				for _, c := range res.Changes {
					rows = append(rows, []string{c.Field.Label(), c.From, c.To})
				}
				if len(rows) == 0 {
					fmt.Fprintln(out, "No field changes.")
				} else {
					fmt.Fprintln(out, renderTable("Changes: "+res.Title, []string{"Field", "Before", "After"}, rows, nil))
				}
			}
			if dryRun {
				return nil
			}

			if outDir == "" {
				outDir = filepath.Dir(path)
			}
			dest := filepath.Join(outDir, res.FileName)
			if !inPlace && sameFile(path, dest) {
				return fmt.Errorf("%s would overwrite the input; pass --in-place or --out", dest)
			}
			if err := ioutils.CopyFile(cmd.Context(), res.Path, dest); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(out, "Saved %s\n", dest)
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Title input, as if sent as the caption")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory (default: next to FILE)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the changes without writing a file")
	cmd.Flags().BoolVar(&inPlace, "in-place", false, "Allow the output to replace FILE")

	return cmd
}

// sameFile reports whether dest already exists and is the file at src.
func sameFile(src, dest string) bool {
	a, err := os.Stat(src)
	if err != nil {
		return false
	}
	b, err := os.Stat(dest)
	if err != nil {
		return false
	}
	return os.SameFile(a, b)
}
