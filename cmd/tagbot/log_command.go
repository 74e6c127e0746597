package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newLogCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "log",
		Short: "List recently processed files",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.openOffline(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			edits, err := rt.gateway.RecentEdits(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(edits) == 0 {
				fmt.Fprintln(out, "No processed files yet.")
				return nil
			}

			rows := make([][]string, 0, len(edits))
			for _, e := range edits {
				by := "-"
				if e.EditedBy != 0 {
					by = strconv.FormatInt(e.EditedBy, 10)
				}
				rows = append(rows, []string{
					strconv.FormatInt(e.ID, 10),
					e.EditedAt.Local().Format("2006-01-02 15:04:05"),
					e.FileName,
					e.EditType,
					e.Status,
					by,
				})
			}
			fmt.Fprintln(out, renderTable("", []string{"ID", "Time", "File", "Type", "Status", "By"}, rows, []columnAlignment{alignRight}))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")

	return cmd
}
