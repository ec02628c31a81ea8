package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/ingestsync/docsync/internal/config"
	"github.com/ingestsync/docsync/internal/docsync"
	"github.com/ingestsync/docsync/internal/ingest"
	"github.com/ingestsync/docsync/internal/preprocess"
	"github.com/ingestsync/docsync/internal/transport"
)

// nopCloser satisfies io.Closer for sources that don't hold a long-lived
// resource (SFTP dials per call).
type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// buildSource constructs the FileSource named by cfg.Source.Type. For a
// local source it also starts an fsnotify watch and returns the resulting
// wake channel, letting the caller wire it into docsync.EngineConfig.WakeCh.
func buildSource(cfg *config.Resolved, logger *slog.Logger) (docsync.FileSource, io.Closer, <-chan struct{}, error) {
	switch cfg.Source.Type {
	case "local":
		local := transport.NewLocal(cfg.Source.Local.Dir, cfg.AllowedExtensions, logger)

		wakeCh, err := local.Watch()
		if err != nil {
			logger.Warn("starting filesystem watch failed, falling back to plain polling",
				slog.String("error", err.Error()))

			return local, local, nil, nil
		}

		return local, local, wakeCh, nil
	case "sftp":
		addr := net.JoinHostPort(cfg.Source.SFTP.Host, strconv.Itoa(cfg.Source.SFTP.Port))
		sftpSrc := transport.NewSFTP(
			addr, cfg.Source.SFTP.User, cfg.Source.SFTP.PrivateKeyPath,
			cfg.Source.SFTP.KnownHostsPath, cfg.Source.SFTP.RemoteDir,
			cfg.AllowedExtensions, logger,
		)

		return sftpSrc, nopCloser{}, nil, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown source.type %q", cfg.Source.Type)
	}
}

// buildBackend constructs the Backend client, authenticated via OAuth2
// client-credentials against cfg.Backend.
func buildBackend(ctx context.Context, cfg *config.Resolved) docsync.Backend {
	timeout := cfg.BackendRequestTimeout
	if timeout == 0 {
		timeout = httpClientTimeout
	}

	return ingest.NewClient(ctx, ingest.ClientOptions{
		BaseURL:        cfg.Backend.BaseURL,
		ClientID:       cfg.Backend.ClientID,
		ClientSecret:   cfg.Backend.ClientSecret,
		TokenURL:       cfg.Backend.TokenURL,
		Scopes:         cfg.Backend.Scopes,
		TokenCachePath: cfg.Backend.TokenCachePath,
		RequestTimeout: timeout,
	})
}

// buildPreprocessor returns the identity preprocessor, or an external
// command preprocessor when cfg.Preprocessor.Enabled.
func buildPreprocessor(cfg *config.Resolved) docsync.Preprocessor {
	if !cfg.Preprocessor.Enabled {
		return preprocess.Identity{}
	}

	return preprocess.Command{
		Argv:    cfg.Preprocessor.Command,
		Timeout: time.Duration(cfg.Preprocessor.TimeoutSeconds) * time.Second,
	}
}

// buildEngine wires an Engine from cfg: source, backend, preprocessor,
// state store, and failure log. The returned io.Closer releases any
// long-lived source resource (e.g. the local fsnotify watch) and must be
// closed after the engine is done running.
func buildEngine(ctx context.Context, cfg *config.Resolved, logger *slog.Logger) (*docsync.Engine, io.Closer, error) {
	source, closer, wakeCh, err := buildSource(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("building source: %w", err)
	}

	startupMode, err := docsync.ParseStartupSyncMode(cfg.StartupSync)
	if err != nil {
		closer.Close()

		return nil, nil, err
	}

	store := docsync.NewStateStore(cfg.StateFilePath, logger)
	if err := store.Load(); err != nil {
		closer.Close()

		return nil, nil, fmt.Errorf("loading state store: %w", err)
	}

	failures := docsync.NewFailureLog(cfg.FailureLogPath, cfg.FailureLogMaxSizeByte, logger)

	engine := docsync.NewEngine(docsync.EngineConfig{
		Source:            source,
		Backend:           buildBackend(ctx, cfg),
		Preprocessor:      buildPreprocessor(cfg),
		Store:             store,
		Failures:          failures,
		StartupSyncMode:   startupMode,
		CleanupFailedDocs: cfg.CleanupFailedDocs,
		PollInterval:      cfg.PollInterval,
		Logger:            logger,
		WakeCh:            wakeCh,
	})

	return engine, closer, nil
}
