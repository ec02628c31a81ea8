package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ingestsync/docsync/internal/docsync"
)

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one startup reconciliation pass and exit",
		Long: `Sync runs the same startup reconciliation the daemon performs on launch
(see sync.startup_sync), then exits. Useful for a cron-driven invocation, or
to force a reconciliation pass without leaving the daemon running.`,
		RunE: runSyncOnce,
	}
}

func runSyncOnce(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())
	ctx := cmd.Context()

	engine, closer, err := buildEngine(ctx, cc.Cfg, cc.Logger)
	if err != nil {
		return fmt.Errorf("building sync engine: %w", err)
	}
	defer closer.Close()

	report, err := engine.RunStartup(ctx)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	if cc.Flags.JSON {
		if err := printSyncJSONTo(os.Stdout, report); err != nil {
			return err
		}
	} else {
		printSyncText(cc, report)
	}

	if report.Failed > 0 {
		return fmt.Errorf("sync completed with %d failures", report.Failed)
	}

	return nil
}

func printSyncText(cc *CLIContext, report *docsync.Report) {
	total := report.Uploaded + report.Updated + report.Stale + report.Deleted + report.Orphaned
	if total == 0 && report.Failed == 0 {
		cc.Statusf("Already in sync (%s)\n", report.Duration)
		return
	}

	cc.Statusf("Sync complete (%s)\n", report.Duration)

	if report.Uploaded > 0 {
		cc.Statusf("  Uploaded: %d\n", report.Uploaded)
	}

	if report.Updated > 0 {
		cc.Statusf("  Updated:  %d\n", report.Updated)
	}

	if report.Stale > 0 {
		cc.Statusf("  Stale:    %d\n", report.Stale)
	}

	if report.Deleted > 0 {
		cc.Statusf("  Deleted:  %d\n", report.Deleted)
	}

	if report.Orphaned > 0 {
		cc.Statusf("  Orphaned: %d\n", report.Orphaned)
	}

	if report.Failed > 0 {
		cc.Statusf("  Failed:   %d\n", report.Failed)
	}
}

// syncJSONOutput is the JSON output schema for the sync command.
type syncJSONOutput struct {
	DurationMs int64    `json:"duration_ms"`
	Uploaded   int      `json:"uploaded"`
	Updated    int      `json:"updated"`
	Stale      int      `json:"stale"`
	Deleted    int      `json:"deleted"`
	Orphaned   int      `json:"orphaned"`
	Failed     int      `json:"failed"`
	Errors     []string `json:"errors,omitempty"`
}

func printSyncJSONTo(w io.Writer, report *docsync.Report) error {
	errs := make([]string, 0, len(report.Errors))
	for _, e := range report.Errors {
		errs = append(errs, e.Error())
	}

	out := syncJSONOutput{
		DurationMs: report.Duration.Milliseconds(),
		Uploaded:   report.Uploaded,
		Updated:    report.Updated,
		Stale:      report.Stale,
		Deleted:    report.Deleted,
		Orphaned:   report.Orphaned,
		Failed:     report.Failed,
		Errors:     errs,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(out)
}
