package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"envision/internal/lexicon"
)

type lexiconEntry struct {
	Category string   `json:"category"`
	Required int      `json:"required_coverage"`
	Slots    []string `json:"slots"`
}

func newLexiconCommand(ctx *commandContext) *cobra.Command {
	var hints bool
	cmd := &cobra.Command{
		Use:         "lexicon",
		Short:       "Show categories and their coverage slots",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if hints {
				fmt.Fprintln(out, lexicon.Hints())
				return nil
			}
			entries := make([]lexiconEntry, 0, 5)
			for _, c := range lexicon.Categories() {
				coverage := lexicon.CoverageFor(c)
				entries = append(entries, lexiconEntry{Category: string(c), Required: coverage.Required, Slots: coverage.Slots})
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, entries)
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					lexicon.Category(e.Category).DisplayName(),
					strconv.Itoa(e.Required),
					strings.Join(e.Slots, ", "),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Category", "Required", "Slots"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&hints, "hints", false, "Print the marker word lists given to the analyzer")
	return cmd
}
