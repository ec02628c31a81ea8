package main

import (
	"encoding/json"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ingestsync/docsync/internal/config"
	"github.com/ingestsync/docsync/internal/docsync"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "status",
		Short:       "Show daemon, pause, and state-file summary",
		Annotations: map[string]string{skipConfigAnnotation: "true"},
		RunE:        runStatus,
	}
}

// statusReport is the status command's output shape.
type statusReport struct {
	DaemonRunning  bool   `json:"daemon_running"`
	DaemonPID      int    `json:"daemon_pid,omitempty"`
	Paused         bool   `json:"paused"`
	PausedUntil    string `json:"paused_until,omitempty"`
	SourceType     string `json:"source_type"`
	BackendURL     string `json:"backend_url"`
	TrackedFiles   int    `json:"tracked_files"`
	PendingDeletes int    `json:"pending_deletes"`
	StateFilePath  string `json:"state_file_path"`
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())

	report := statusReport{
		SourceType:    cc.Cfg.Source.Type,
		BackendURL:    cc.Cfg.Backend.BaseURL,
		StateFilePath: cc.Cfg.StateFilePath,
	}

	if pid, running := runningDaemonPID(); running {
		report.DaemonRunning = true
		report.DaemonPID = pid
	}

	if until, paused := pauseState(); paused {
		report.Paused = true
		report.PausedUntil = until
	}

	store := docsync.NewStateStore(cc.Cfg.StateFilePath, cc.Logger)
	if err := store.Load(); err != nil {
		cc.Logger.Warn("reading state file for status", "error", err)
	} else {
		report.TrackedFiles = len(store.Files())
		report.PendingDeletes = len(store.PendingDeletes())
	}

	if cc.Flags.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(report)
	}

	printStatusText(report)

	return nil
}

func printStatusText(r statusReport) {
	if r.DaemonRunning {
		fmt.Printf("Daemon:        running (pid %d)\n", r.DaemonPID)
	} else {
		fmt.Println("Daemon:        not running")
	}

	switch {
	case r.Paused && r.PausedUntil != "":
		fmt.Printf("Sync:          paused until %s\n", r.PausedUntil)
	case r.Paused:
		fmt.Println("Sync:          paused")
	default:
		fmt.Println("Sync:          active")
	}

	fmt.Printf("Source:        %s\n", r.SourceType)
	fmt.Printf("Backend:       %s\n", r.BackendURL)
	fmt.Printf("State file:    %s\n", r.StateFilePath)
	fmt.Printf("Tracked files: %d\n", r.TrackedFiles)

	if r.PendingDeletes > 0 {
		fmt.Printf("Pending deletes: %d\n", r.PendingDeletes)
	}
}

// runningDaemonPID reports the PID of a running `run` daemon, if its PID
// file exists and the process responds to signal 0.
func runningDaemonPID() (int, bool) {
	pidPath := config.PIDFilePath()
	if pidPath == "" {
		return 0, false
	}

	pid, err := readPIDFile(pidPath)
	if err != nil {
		return 0, false
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return 0, false
	}

	if err := proc.Signal(syscall.Signal(0)); err != nil {
		return 0, false
	}

	return pid, true
}

// pauseState reads the pause marker, returning its resume-at timestamp (if
// any) and whether a pause is currently in effect.
func pauseState() (string, bool) {
	data, err := os.ReadFile(config.PauseMarkerPath())
	if err != nil {
		return "", false
	}

	until := string(data)
	if until == "" {
		return "", true
	}

	resumeAt, err := time.Parse(time.RFC3339, until)
	if err != nil {
		return until, true
	}

	if time.Now().After(resumeAt) {
		return "", false
	}

	return until, true
}
