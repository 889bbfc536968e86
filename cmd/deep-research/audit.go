// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/deep-research/internal/audit"
	"github.com/pdiddy/deep-research/internal/research"
	"github.com/pdiddy/deep-research/pkg/types"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show the audit trail of research sessions",
	Long: `Audit prints recorded events from the JSON-lines audit log (audit.log_file).
Use --session to show a single session.

With --db, sessions are read from the SQLite audit database (audit.db_path)
instead: without --session it lists the most recent sessions, with --session
it prints that session's events.`,
	RunE: runAudit,
}

func runAudit(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(viper.GetViper())
	sessionID, _ := cmd.Flags().GetString("session")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	if useDB, _ := cmd.Flags().GetBool("db"); useDB {
		limit, _ := cmd.Flags().GetInt("limit")
		return auditFromStore(cmd.Context(), cfg.Audit.DBPath, sessionID, limit, jsonOutput)
	}

	if cfg.Audit.LogFile == "" {
		return fmt.Errorf("audit.log_file is not configured")
	}
	events, skipped, err := audit.ReadHistory(cfg.Audit.LogFile)
	if err != nil {
		return err
	}
	if skipped > 0 {
		logger.Warn("skipped malformed audit lines", zap.Int("count", skipped))
	}
	if sessionID != "" {
		events = audit.FilterSession(events, sessionID)
	}
	return printEvents(os.Stdout, events, jsonOutput)
}

func auditFromStore(ctx context.Context, path, sessionID string, limit int, jsonOutput bool) error {
	if path == "" {
		return fmt.Errorf("audit.db_path is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	store, err := audit.NewStore(path)
	if err != nil {
		return err
	}
	defer store.Close()

	if sessionID != "" {
		if _, err := store.Session(ctx, sessionID); err != nil {
			return err
		}
		events, err := store.Events(ctx, sessionID)
		if err != nil {
			return err
		}
		return printEvents(os.Stdout, events, jsonOutput)
	}

	sessions, err := store.Sessions(ctx, limit)
	if err != nil {
		return err
	}
	if jsonOutput {
		return research.FormatJSON(os.Stdout, sessions)
	}
	printSessions(os.Stdout, sessions)
	return nil
}

func printEvents(w io.Writer, events []types.AuditEvent, jsonOutput bool) error {
	if jsonOutput {
		return research.FormatJSON(w, events)
	}
	if len(events) == 0 {
		fmt.Fprintln(w, "No events found.")
		return nil
	}
	fmt.Fprintf(w, "%-20s  %-18s  %-44s  %s\n", "TIME", "STAGE", "SESSION", "DETAIL")
	for _, ev := range events {
		fmt.Fprintf(w, "%-20s  %-18s  %-44s  %s\n",
			ev.Timestamp.Local().Format(time.DateTime), ev.Stage, ev.SessionID, ev.Detail)
	}
	fmt.Fprintf(w, "\n%d events\n", len(events))
	return nil
}

func printSessions(w io.Writer, sessions []types.SessionRecord) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No sessions found.")
		return
	}
	fmt.Fprintf(w, "%-44s  %-10s  %-20s  %-8s  %s\n", "SESSION", "USER", "STARTED", "STATUS", "QUERY")
	for _, s := range sessions {
		status := "running"
		switch {
		case s.Error != "":
			status = "failed"
		case !s.EndTime.IsZero():
			status = "done"
		}
		fmt.Fprintf(w, "%-44s  %-10s  %-20s  %-8s  %s\n",
			s.SessionID, s.User, s.StartTime.Local().Format(time.DateTime), status, s.Query)
	}
	fmt.Fprintf(w, "\n%d sessions\n", len(sessions))
}

func init() {
	auditCmd.Flags().String("session", "", "show only this session")
	auditCmd.Flags().Bool("db", false, "read from the SQLite audit database")
	auditCmd.Flags().Int("limit", 20, "number of sessions to list with --db")
	auditCmd.Flags().Bool("json", false, "print as JSON")

	rootCmd.AddCommand(auditCmd)
}
