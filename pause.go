package main

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ingestsync/docsync/internal/config"
)

func newPauseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pause [duration]",
		Short: "Pause syncing",
		Long: `Pause writes a marker file that "docsync status" reads, and that a
"docsync run" daemon reads when it starts and on each SIGHUP. An optional
duration argument (e.g. "2h", "30m", "1d") records a resume time in the
marker; without one, the pause lasts until "docsync resume" is run.

If a "docsync run" daemon is running, it receives a SIGHUP and re-reads the
marker; the pause applies from its next poll tick and does not interrupt
work in flight. The daemon does not re-read the marker when the resume time
passes: a timed pause ends for it at the next SIGHUP or restart, while
"docsync status" stops reporting it once the time has passed.

Examples:
  docsync pause
  docsync pause 2h
  docsync pause 1d`,
		Annotations: map[string]string{skipConfigAnnotation: "true"},
		RunE:        runPause,
		Args:        cobra.MaximumNArgs(1),
	}
}

func runPause(cmd *cobra.Command, args []string) error {
	cc := mustCLIContext(cmd.Context())

	path := config.PauseMarkerPath()
	if path == "" {
		return fmt.Errorf("cannot determine data directory for pause marker")
	}

	var contents string

	if len(args) > 0 {
		duration, err := parsePauseDuration(args[0])
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", args[0], err)
		}

		until := time.Now().Add(duration).Format(time.RFC3339)
		contents = until

		cc.Statusf("Paused until %s\n", until)
	} else {
		cc.Statusf("Paused\n")
	}

	if err := writePauseMarker(path, contents); err != nil {
		return fmt.Errorf("writing pause marker: %w", err)
	}

	notifyDaemon(cc)

	return nil
}

func writePauseMarker(path, contents string) error {
	if err := os.MkdirAll(filepath.Dir(path), pidDirPermissions); err != nil {
		return err
	}

	return os.WriteFile(path, []byte(contents), pidFilePermissions)
}

// notifyDaemon attempts to send SIGHUP to a running "docsync run" daemon.
// Non-fatal: if no daemon is running, prints a note instead.
func notifyDaemon(cc *CLIContext) {
	pidPath := config.PIDFilePath()
	if pidPath == "" {
		return
	}

	if err := sendSIGHUP(pidPath); err != nil {
		cc.Statusf("Note: %v — a daemon started later reads the marker at startup\n", err)
	} else {
		cc.Statusf("Notified running daemon\n")
	}
}

// hoursPerDay is used to convert day durations to hours.
const hoursPerDay = 24

// pauseDurationPattern matches durations like "30m", "2h", "1d", "1h30m".
var pauseDurationPattern = regexp.MustCompile(`^(\d+d)?(\d+h)?(\d+m)?(\d+s)?$`)

// parsePauseDuration parses a human-friendly duration string. Supports Go
// duration syntax (e.g. "2h30m") plus a "d" suffix for days (converted to 24h).
func parsePauseDuration(s string) (time.Duration, error) {
	if d, err := time.ParseDuration(s); err == nil {
		if d <= 0 {
			return 0, fmt.Errorf("duration must be positive")
		}

		return d, nil
	}

	if !pauseDurationPattern.MatchString(s) || s == "" {
		return 0, fmt.Errorf("expected format like 30m, 2h, 1d, or 1h30m")
	}

	var total time.Duration

	re := regexp.MustCompile(`(\d+)([dhms])`)
	for _, match := range re.FindAllStringSubmatch(s, -1) {
		n, err := strconv.Atoi(match[1])
		if err != nil {
			return 0, fmt.Errorf("invalid number %q: %w", match[1], err)
		}

		switch match[2] {
		case "d":
			total += time.Duration(n) * hoursPerDay * time.Hour
		case "h":
			total += time.Duration(n) * time.Hour
		case "m":
			total += time.Duration(n) * time.Minute
		case "s":
			total += time.Duration(n) * time.Second
		}
	}

	if total <= 0 {
		return 0, fmt.Errorf("duration must be positive")
	}

	return total, nil
}
