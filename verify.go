package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ingestsync/docsync/internal/docsync"
)

func newVerifyStateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify-state",
		Short: "Recompute source file hashes and report drift against the state file",
		Long: `Verify-state lists the configured source, recomputes the MD5 hash of
every allowed file, and compares it against the StateStore snapshot. It makes
no changes — mismatches point at files the next sync tick will re-upload.

Exit code 0 if no drift is found; exit code 1 otherwise.`,
		RunE: runVerifyState,
	}
}

// verifyMismatch describes one file whose content hash no longer matches
// the recorded state.
type verifyMismatch struct {
	Name     string `json:"name"`
	Status   string `json:"status"`
	Recorded string `json:"recorded_hash,omitempty"`
	Current  string `json:"current_hash,omitempty"`
}

type verifyReport struct {
	Verified   int              `json:"verified"`
	Mismatches []verifyMismatch `json:"mismatches"`
}

func runVerifyState(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())
	ctx := cmd.Context()

	source, closer, _, err := buildSource(cc.Cfg, cc.Logger)
	if err != nil {
		return fmt.Errorf("building source: %w", err)
	}
	defer closer.Close()

	store := docsync.NewStateStore(cc.Cfg.StateFilePath, cc.Logger)
	if err := store.Load(); err != nil {
		return fmt.Errorf("loading state file: %w", err)
	}

	entries, err := source.List(ctx)
	if err != nil {
		return fmt.Errorf("listing source: %w", err)
	}

	report := verifyReport{}
	seen := make(map[string]bool, len(entries))

	for _, entry := range entries {
		seen[entry.Name] = true

		state, tracked := store.GetFile(entry.Name)
		if !tracked {
			report.Mismatches = append(report.Mismatches, verifyMismatch{Name: entry.Name, Status: "untracked"})
			continue
		}

		downloaded, err := source.Download(ctx, entry.Name)
		if err != nil {
			report.Mismatches = append(report.Mismatches, verifyMismatch{Name: entry.Name, Status: "download-failed"})
			continue
		}

		hash, err := docsync.HashFile(downloaded)
		os.Remove(downloaded)

		if err != nil {
			report.Mismatches = append(report.Mismatches, verifyMismatch{Name: entry.Name, Status: "hash-failed"})
			continue
		}

		if hash != state.Hash {
			report.Mismatches = append(report.Mismatches, verifyMismatch{
				Name: entry.Name, Status: "hash-mismatch", Recorded: state.Hash, Current: hash,
			})
			continue
		}

		report.Verified++
	}

	for name := range store.Files() {
		if !seen[name] {
			report.Mismatches = append(report.Mismatches, verifyMismatch{Name: name, Status: "missing-from-source"})
		}
	}

	if cc.Flags.JSON {
		if err := printVerifyJSON(report); err != nil {
			return err
		}
	} else {
		printVerifyTable(report)
	}

	if len(report.Mismatches) > 0 {
		os.Exit(1)
	}

	return nil
}

func printVerifyJSON(report verifyReport) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	return enc.Encode(report)
}

func printVerifyTable(report verifyReport) {
	fmt.Printf("Verified: %d files\n", report.Verified)

	if len(report.Mismatches) == 0 {
		fmt.Println("No drift found.")
		return
	}

	fmt.Printf("Mismatches: %d\n\n", len(report.Mismatches))

	headers := []string{"NAME", "STATUS", "RECORDED", "CURRENT"}
	rows := make([][]string, len(report.Mismatches))

	for i, m := range report.Mismatches {
		rows[i] = []string{m.Name, m.Status, m.Recorded, m.Current}
	}

	printTable(os.Stdout, headers, rows)
}
