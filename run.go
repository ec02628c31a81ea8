package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/ingestsync/docsync/internal/config"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the sync daemon (startup reconciliation, then poll forever)",
		Long: `Run performs startup reconciliation once, then polls the configured
source on sync.poll_interval until interrupted.

Only one daemon may run at a time — a PID file under the data directory is
locked for the duration. SIGINT/SIGTERM trigger a graceful shutdown; SIGHUP
re-checks the pause marker written by "docsync pause"/"docsync resume".`,
		RunE: runRun,
	}
}

func runRun(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())
	logger := cc.Logger

	pidPath := pidFilePathOrDefault(logger)

	cleanup, err := writePIDFile(pidPath)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := shutdownContext(cmd.Context(), logger)

	engine, closer, err := buildEngine(ctx, cc.Cfg, logger)
	if err != nil {
		return fmt.Errorf("building sync engine: %w", err)
	}
	defer closer.Close()

	_, paused := pauseState()
	engine.SetPaused(paused)

	sighup := sighupChannel()
	defer signal.Stop(sighup)

	go func() {
		for {
			select {
			case <-sighup:
				_, paused := pauseState()
				engine.SetPaused(paused)
				logger.Info("reloaded pause marker on SIGHUP", slog.Bool("paused", paused))
			case <-ctx.Done():
				return
			}
		}
	}()

	cc.Statusf("docsync running (pid %d)\n", os.Getpid())

	if err := engine.Run(ctx); err != nil {
		return fmt.Errorf("sync engine: %w", err)
	}

	cc.Statusf("docsync stopped\n")

	return nil
}

// pidFilePathOrDefault resolves the PID file path, logging at debug level
// if the platform default could not be determined (no $HOME).
func pidFilePathOrDefault(logger *slog.Logger) string {
	path := config.PIDFilePath()
	if path == "" {
		logger.Debug("could not determine default data directory for PID file")
	}

	return path
}
