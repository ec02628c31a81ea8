package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ingestsync/docsync/internal/config"
)

func newResumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "resume",
		Short:       "Resume syncing after a pause",
		Long:        `Resume removes the pause marker written by "docsync pause" and notifies a running daemon, if any.`,
		Annotations: map[string]string{skipConfigAnnotation: "true"},
		RunE:        runResume,
	}
}

func runResume(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())

	path := config.PauseMarkerPath()
	if path == "" {
		return fmt.Errorf("cannot determine data directory for pause marker")
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cc.Statusf("Not paused\n")

			return nil
		}

		return fmt.Errorf("removing pause marker: %w", err)
	}

	cc.Statusf("Resumed\n")
	notifyDaemon(cc)

	return nil
}
