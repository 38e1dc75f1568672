// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Querent Contributors

package main

import (
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/querent-dev/querent/internal/ask"
	"github.com/querent-dev/querent/internal/config"
	"github.com/querent-dev/querent/internal/store"
)

var (
	answerStyle  = lipgloss.NewStyle().Bold(true)
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

func newAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question about the card graph",
		Long:  "Generate a SPARQL query from the question, run it against the graph, compose an answer from the results, and validate it. Unsatisfactory answers are retried with accumulated feedback.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAsk,
	}

	cmd.Flags().Bool("no-save", false, "do not record the session in history")
	cmd.Flags().Bool("show-query", false, "print the SPARQL query behind the answer")

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")
	out := cmd.OutOrStdout()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	engine, err := buildEngine(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	outcome, err := engine.Answer(ctx, question)
	if err != nil {
		return err
	}

	noSave, _ := cmd.Flags().GetBool("no-save")
	if !noSave {
		saveOutcome(cmd, cfg, outcome)
	}

	if outcome.Success {
		_, _ = fmt.Fprintln(out, answerStyle.Render(outcome.Answer))
	} else {
		_, _ = fmt.Fprintln(out, errorStyle.Render("No satisfactory answer found."))
		for i, attempt := range outcome.Attempts {
			line := fmt.Sprintf("  attempt %d: ", i+1)
			switch {
			case attempt.Execution.Failed:
				line += "query failed: " + attempt.Execution.Error
			case attempt.Query == "":
				line += "no query generated"
			case attempt.Execution.RowCount == 0:
				line += "query returned no results"
			case attempt.Verdict != nil:
				line += "answer rejected: " + attempt.Verdict.Reason
			default:
				line += "no answer produced"
			}
			_, _ = fmt.Fprintln(out, dimStyle.Render(line))
		}
	}

	showQuery, _ := cmd.Flags().GetBool("show-query")
	if showQuery && outcome.FinalQuery() != "" {
		_, _ = fmt.Fprintln(out, "")
		_, _ = fmt.Fprintln(out, headingStyle.Render("Query"))
		_, _ = fmt.Fprintln(out, dimStyle.Render(outcome.FinalQuery()))
	}

	_, _ = fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("session %s · %d attempt(s)", outcome.SessionID, outcome.AttemptCount())))
	return nil
}

// saveOutcome records the finished session. History faults must not discard
// an answer that is already in hand, so they only warn.
func saveOutcome(cmd *cobra.Command, cfg *config.Config, outcome *ask.Outcome) {
	history, err := openHistory(cfg)
	if err != nil {
		slog.Warn("opening history", "error", err)
		return
	}
	defer func() { _ = history.Close() }()

	if err := history.SaveSession(cmd.Context(), store.FromOutcome(outcome)); err != nil {
		slog.Warn("saving session", "session_id", outcome.SessionID, "error", err)
	}
}
