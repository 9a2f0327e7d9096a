package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"envision/internal/api"
	"envision/internal/config"
	"envision/internal/store"
	"envision/internal/vision"
)

func newVisionsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "visions",
		Aliases: []string{"vision"},
		Short:   "Inspect and maintain stored vision sessions",
	}
	cmd.AddCommand(newVisionsListCommand(ctx))
	cmd.AddCommand(newVisionsShowCommand(ctx))
	cmd.AddCommand(newVisionsDeleteCommand(ctx))
	cmd.AddCommand(newVisionsPruneCommand(ctx))
	return cmd
}

func newVisionsListCommand(ctx *commandContext) *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions with at least one response",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, st *store.Store) error {
				sessions, err := st.ListVisions(cmd.Context(), strings.TrimSpace(user))
				if err != nil {
					return err
				}
				listing := api.FromSessions(sessions)
				if ctx.jsonOutput() {
					return writeJSON(cmd, listing)
				}
				out := cmd.OutOrStdout()
				if len(listing.Visions) == 0 {
					fmt.Fprintln(out, "No visions stored")
					return nil
				}
				fmt.Fprintln(out, renderVisionTable(listing.Visions))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "Only list sessions owned by this user")
	return cmd
}

func renderVisionTable(visions []api.VisionSummary) string {
	rows := make([][]string, 0, len(visions))
	for _, v := range visions {
		title := v.Title
		if title == "" {
			title = "(untitled)"
		}
		rows = append(rows, []string{
			api.ShortID(v.ID),
			title,
			v.Status,
			strconv.Itoa(v.OverallCompleteness) + "%",
			strconv.Itoa(v.ResponseCount),
			api.DisplayTime(v.UpdatedAt),
		})
	}
	return renderTable(
		[]string{"ID", "Title", "Status", "Complete", "Responses", "Updated"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	)
}

func newVisionsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a session with its category scores and responses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, st *store.Store) error {
				session, err := resolveVision(cmd.Context(), st, args[0])
				if err != nil {
					return err
				}
				detail := api.FromSessionDetail(session)
				if ctx.jsonOutput() {
					return writeJSON(cmd, api.VisionResponse{Vision: detail})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderVisionDetail(detail, shouldColorize(cmd.OutOrStdout())))
				return nil
			})
		},
	}
}

func renderVisionDetail(v api.Vision, colorize bool) string {
	var b strings.Builder
	title := v.Title
	if title == "" {
		title = "(untitled)"
	}
	for _, line := range renderSectionHeader(title, colorize) {
		b.WriteString(line + "\n")
	}
	fmt.Fprintf(&b, "ID:           %s\n", v.ID)
	fmt.Fprintf(&b, "User:         %s\n", v.UserID)
	fmt.Fprintf(&b, "Status:       %s\n", v.Status)
	fmt.Fprintf(&b, "Completeness: %d%%\n", v.OverallCompleteness)
	if len(v.Categories) > 0 {
		fmt.Fprintf(&b, "Themes:       %s\n", strings.Join(v.Categories, ", "))
	}
	if v.Tagline != nil {
		fmt.Fprintf(&b, "Tagline:      %s\n", *v.Tagline)
	}
	fmt.Fprintf(&b, "Created:      %s\n", api.DisplayTime(v.CreatedAt))
	fmt.Fprintf(&b, "Updated:      %s\n", api.DisplayTime(v.UpdatedAt))

	rows := make([][]string, 0, 5)
	for _, row := range api.ScoreRows(v.CategoryStates) {
		rows = append(rows, []string{
			row.Category,
			row.CSS,
			paint(row.Band, bandColor(row.Band), colorize),
			row.Coverage,
			row.WeakestSignal,
			row.LastScored,
		})
	}
	b.WriteString("\n")
	b.WriteString(renderTable(
		[]string{"Category", "CSS", "Band", "Coverage", "Weakest", "Scored"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft, alignRight, alignLeft, alignLeft},
	))
	b.WriteString("\n")

	if v.Summary != nil {
		b.WriteString("\n")
		for _, line := range renderSectionHeader("Summary", colorize) {
			b.WriteString(line + "\n")
		}
		b.WriteString(*v.Summary + "\n")
	}

	if len(v.Responses) > 0 {
		b.WriteString("\n")
		for _, line := range renderSectionHeader("Responses", colorize) {
			b.WriteString(line + "\n")
		}
		for i, r := range v.Responses {
			fmt.Fprintf(&b, "%d. [%s] %s\n   %s\n", i+1, r.Category, r.Question, r.Answer)
		}
	}
	return b.String()
}

func newVisionsDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a session and its responses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, st *store.Store) error {
				session, err := resolveVision(cmd.Context(), st, args[0])
				if err != nil {
					return err
				}
				if err := st.DeleteVision(cmd.Context(), session.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted vision %s\n", session.ID)
				return nil
			})
		},
	}
}

func newVisionsPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove sessions that never received a response",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				grace := cfg.PruneGrace()
				if cmd.Flags().Changed("older-than") {
					grace = olderThan
				}
				removed, err := st.PruneEmpty(cmd.Context(), time.Now().UTC().Add(-grace))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d empty session(s)\n", removed)
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "Minimum age of empty sessions to remove (default: workflow.prune_grace_seconds)")
	return cmd
}

// resolveVision finds a session by full id or by a unique id prefix.
func resolveVision(ctx context.Context, st *store.Store, ref string) (*vision.Session, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, errors.New("vision id required")
	}
	session, err := st.GetVision(ctx, ref)
	if err != nil {
		return nil, err
	}
	if session != nil {
		return session, nil
	}

	all, err := st.ListVisions(ctx, "")
	if err != nil {
		return nil, err
	}
	var match *vision.Session
	for _, candidate := range all {
		if !strings.HasPrefix(candidate.ID, ref) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("vision id prefix %q is ambiguous", ref)
		}
		match = candidate
	}
	if match == nil {
		return nil, fmt.Errorf("vision %s not found", ref)
	}
	// Listings carry no responses; reload the full session.
	session, err = st.GetVision(ctx, match.ID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("vision %s not found", ref)
	}
	return session, nil
}
