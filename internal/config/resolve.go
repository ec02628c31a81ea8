package config

import (
	"fmt"
	"time"
)

// Resolved is the fully parsed, typed view of Config used to wire the
// engine and its transports — durations and sizes parsed once, here, rather
// than scattered across call sites.
type Resolved struct {
	PollInterval      time.Duration
	StartupSync       string
	AllowedExtensions []string
	CleanupFailedDocs bool

	StateFilePath string

	FailureLogPath       string
	FailureLogMaxSizeByte int64

	Preprocessor PreprocessorConfig

	Source SourceConfig

	Backend            BackendConfig
	BackendRequestTimeout time.Duration

	LogLevel  string
	LogFormat string
}

// Resolve parses the raw Config's string durations and sizes into typed
// values. Call after Validate — Resolve assumes the inputs already parse.
func Resolve(cfg *Config) (*Resolved, error) {
	pollInterval, err := time.ParseDuration(cfg.Sync.PollInterval)
	if err != nil {
		return nil, fmt.Errorf("sync.poll_interval: %w", err)
	}

	maxSize, err := parseSize(cfg.FailureLog.MaxSize)
	if err != nil {
		return nil, fmt.Errorf("failure_log.max_size: %w", err)
	}

	requestTimeout := time.Duration(0)
	if cfg.Backend.RequestTimeout != "" {
		requestTimeout, err = time.ParseDuration(cfg.Backend.RequestTimeout)
		if err != nil {
			return nil, fmt.Errorf("backend.request_timeout: %w", err)
		}
	}

	return &Resolved{
		PollInterval:          pollInterval,
		StartupSync:           cfg.Sync.StartupSync,
		AllowedExtensions:     cfg.Sync.AllowedExtensions,
		CleanupFailedDocs:     cfg.Sync.CleanupFailedDocs,
		StateFilePath:         cfg.State.FilePath,
		FailureLogPath:        cfg.FailureLog.Path,
		FailureLogMaxSizeByte: maxSize,
		Preprocessor:          cfg.Preprocessor,
		Source:                cfg.Source,
		Backend:               cfg.Backend,
		BackendRequestTimeout: requestTimeout,
		LogLevel:              cfg.Logging.Level,
		LogFormat:             cfg.Logging.Format,
	}, nil
}
