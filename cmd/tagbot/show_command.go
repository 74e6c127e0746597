package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/handiism/tagbot/internal/model"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the stored settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.openOffline(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Settings loaded from %s\n\n", rt.source)
			printSnapshot(out, rt.state.View())
			return nil
		},
	}
}

func printSnapshot(out io.Writer, snap *model.Snapshot) {
	general := [][]string{
		{"Source channel", orDash(snap.SourceChannel)},
		{"Target channel", orDash(snap.TargetChannel)},
		{"Album cover", orDash(snap.CoverRef)},
	}
	for _, f := range model.Features {
		general = append(general, []string{f.Label(), onOff(snap.Toggles.Enabled(f))})
	}
	fmt.Fprintln(out, renderTable("General", []string{"Setting", "Value"}, general, nil))

	var templates [][]string
	for _, key := range snap.TemplateKeys() {
		mark := ""
		if key == snap.CurrentKey {
			mark = "*"
		}
		templates = append(templates, []string{mark, key, snap.Templates[key].Name, strconv.Itoa(len(snap.Templates[key].Fields))})
	}
	fmt.Fprintln(out, renderTable("Templates", []string{"", "Key", "Name", "Fields"}, templates, []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight}))

	current := snap.CurrentTemplate()
	var fields [][]string
	for _, f := range model.TemplateFields {
		if v, ok := current.Fields[f]; ok {
			fields = append(fields, []string{f.Label(), v})
		}
	}
	fmt.Fprintln(out, renderTable("Current template: "+current.Name, []string{"Field", "Value"}, fields, nil))

	var replacements [][]string
	for _, r := range snap.Replacements.Rules {
		replacements = append(replacements, []string{strconv.Itoa(r.ID), r.Name, r.Original, orDash(r.Replacement), fieldList(r.Fields)})
	}
	fmt.Fprintln(out, renderTable("Replacements", []string{"ID", "Name", "Find", "Replace", "Fields"}, replacements, []columnAlignment{alignRight}))

	var footers [][]string
	for _, r := range snap.Footers.Rules {
		footers = append(footers, []string{strconv.Itoa(r.ID), r.Name, strconv.Quote(r.Text), fieldList(r.Fields)})
	}
	fmt.Fprintln(out, renderTable("Footers", []string{"ID", "Name", "Text", "Fields"}, footers, []columnAlignment{alignRight}))
}

func fieldList(set model.FieldSet) string {
	names := make([]string, 0, len(set))
	for _, f := range set.Sorted() {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
