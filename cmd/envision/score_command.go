package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"envision/internal/analyzer"
	"envision/internal/css"
	"envision/internal/lexicon"
)

func newScoreCommand(ctx *commandContext) *cobra.Command {
	var categoryFlag, analysisPath, answer, answerPath string

	cmd := &cobra.Command{
		Use:         "score",
		Short:       "Compute the context sufficiency score of an answer offline",
		Long:        "Score runs the CSS calculator on an answer and a saved analyzer reply (JSON) without calling any provider.",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			category, ok := lexicon.Parse(categoryFlag)
			if !ok {
				return fmt.Errorf("unknown category %q (expected one of %s)", categoryFlag, categoryList())
			}
			if strings.TrimSpace(analysisPath) == "" {
				return errors.New("--analysis is required")
			}
			raw, err := os.ReadFile(analysisPath)
			if err != nil {
				return fmt.Errorf("read analysis: %w", err)
			}
			analysis, err := analyzer.Decode(string(raw))
			if err != nil {
				return err
			}
			if answerPath != "" {
				content, err := os.ReadFile(answerPath)
				if err != nil {
					return fmt.Errorf("read answer: %w", err)
				}
				answer = string(content)
			}

			result := css.Calculate(answer, analysis, category)
			if ctx.jsonOutput() {
				return writeJSON(cmd, result)
			}
			fmt.Fprint(cmd.OutOrStdout(), renderScore(result, shouldColorize(cmd.OutOrStdout())))
			return nil
		},
	}
	cmd.Flags().StringVar(&categoryFlag, "category", "", "Category the answer belongs to")
	cmd.Flags().StringVar(&analysisPath, "analysis", "", "Path to the analyzer JSON reply")
	cmd.Flags().StringVar(&answer, "answer", "", "Answer text")
	cmd.Flags().StringVar(&answerPath, "answer-file", "", "Read the answer text from a file")
	cmd.MarkFlagsMutuallyExclusive("answer", "answer-file")
	return cmd
}

func renderScore(r css.Result, colorize bool) string {
	var b strings.Builder
	format := func(v float64) string { return strconv.FormatFloat(v, 'f', 3, 64) }
	rows := [][]string{
		{"Length + coverage", format(r.Components.LengthCoverage), format(css.WeightLengthCoverage), format(r.Subscores.LengthCoverage)},
		{"Specificity", format(r.Components.Specificity), format(css.WeightSpecificity), format(r.Subscores.Specificity)},
		{"Richness", format(r.Components.Richness), format(css.WeightRichness), format(r.Subscores.Richness)},
		{"Action / identity", format(r.Components.ActionIdentity), format(css.WeightActionIdentity), format(r.Subscores.ActionIdentity)},
		{"Coherence", format(r.Components.Coherence), format(css.WeightCoherence), format(r.Subscores.Coherence)},
	}
	b.WriteString(renderTable(
		[]string{"Channel", "Score", "Weight", "Weighted"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight},
	))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Category:   %s\n", r.Category.DisplayName())
	fmt.Fprintf(&b, "Words:      %d\n", r.WordCount)
	fmt.Fprintf(&b, "Coverage:   %d/%d %s\n", len(r.CoverageHits), r.Required, strings.Join(r.CoverageHits, ", "))
	fmt.Fprintf(&b, "Calculated: %s\n", format(r.CalculatedCSS))
	fmt.Fprintf(&b, "Proposed:   %s\n", format(r.ProposedCSS))
	fmt.Fprintf(&b, "CSS:        %.2f %s\n", r.CSS, paint(string(r.Band), bandColor(string(r.Band)), colorize))
	return b.String()
}

func categoryList() string {
	names := make([]string, 0, 5)
	for _, c := range lexicon.Categories() {
		names = append(names, string(c))
	}
	return strings.Join(names, ", ")
}
