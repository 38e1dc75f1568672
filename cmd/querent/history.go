// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Querent Contributors

package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/querent-dev/querent/internal/store"
	qerr "github.com/querent-dev/querent/pkg/errors"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect past question sessions",
		Long:  "List, show, and delete recorded question-answering sessions.",
	}

	cmd.AddCommand(
		newHistoryListCmd(),
		newHistoryShowCmd(),
		newHistoryDeleteCmd(),
	)

	return cmd
}

func newHistoryListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded sessions, newest first",
		RunE:  runHistoryList,
	}

	cmd.Flags().Int("limit", 20, "maximum sessions to list")
	cmd.Flags().Int("offset", 0, "sessions to skip")

	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one session with its full attempt trajectory",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryShow,
	}
}

func newHistoryDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a session by ID",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryDelete,
	}
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	history, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = history.Close() }()

	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")

	sessions, err := history.ListSessions(cmd.Context(), store.ListOpts{Limit: limit, Offset: offset})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(sessions) == 0 {
		_, _ = fmt.Fprintln(out, "No sessions recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tASKED\tOUTCOME\tQUESTION")
	for _, s := range sessions {
		outcome := "exhausted"
		if s.Success {
			outcome = "answered"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.ID, s.CreatedAt.Local().Format("2006-01-02 15:04"), outcome, truncate(s.Question, 60))
	}
	return tw.Flush()
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	history, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = history.Close() }()

	session, err := history.GetSession(cmd.Context(), args[0])
	if err != nil {
		if qerr.IsNotFound(err) {
			return qerr.Errorf(qerr.CodeCLIInputInvalid, "session %q not found", args[0])
		}
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out, headingStyle.Render(session.Question))
	_, _ = fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("session %s · asked %s", session.ID, session.CreatedAt.Local().Format("2006-01-02 15:04:05"))))
	_, _ = fmt.Fprintln(out, "")

	if session.Success {
		_, _ = fmt.Fprintln(out, answerStyle.Render(session.Answer))
	} else {
		_, _ = fmt.Fprintln(out, errorStyle.Render("No satisfactory answer was found."))
	}

	for _, a := range session.Attempts {
		_, _ = fmt.Fprintln(out, "")
		_, _ = fmt.Fprintln(out, headingStyle.Render(fmt.Sprintf("Attempt %d", a.Ordinal)))
		if a.Query == "" {
			_, _ = fmt.Fprintln(out, dimStyle.Render("  no query generated"))
			continue
		}
		_, _ = fmt.Fprintln(out, dimStyle.Render(indent(a.Query, "  ")))
		switch {
		case a.Failed:
			_, _ = fmt.Fprintln(out, errorStyle.Render("  failed: "+a.Error))
		case a.RowCount == 0:
			_, _ = fmt.Fprintln(out, dimStyle.Render("  no results"))
		default:
			_, _ = fmt.Fprintf(out, "  %d row(s)\n", a.RowCount)
			if a.Answer != "" {
				_, _ = fmt.Fprintln(out, "  "+a.Answer)
			}
			if a.Validated {
				verdict := "rejected"
				if a.Satisfactory {
					verdict = "accepted"
				}
				_, _ = fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("  validation: %s (%s)", verdict, a.Reason)))
			}
		}
	}
	return nil
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	history, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = history.Close() }()

	if err := history.DeleteSession(cmd.Context(), args[0]); err != nil {
		if qerr.IsNotFound(err) {
			return qerr.Errorf(qerr.CodeCLIInputInvalid, "session %q not found", args[0])
		}
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted session: %s\n", args[0])
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}

func indent(s, prefix string) string {
	return prefix + strings.ReplaceAll(s, "\n", "\n"+prefix)
}
