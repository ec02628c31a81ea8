package config

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
)

// Validation bounds.
const (
	minPollInterval      = time.Second
	minPreprocessTimeout = 1
	minSFTPPort          = 1
	maxSFTPPort          = 65535
)

// Validate checks all configuration values and returns every error found,
// joined, so users see a complete report in one pass rather than fixing
// issues one at a time.
func Validate(cfg *Config) error {
	var errs []error

	errs = append(errs, validateSync(&cfg.Sync)...)
	errs = append(errs, validateState(&cfg.State)...)
	errs = append(errs, validateFailureLog(&cfg.FailureLog)...)
	errs = append(errs, validatePreprocessor(&cfg.Preprocessor)...)
	errs = append(errs, validateSource(&cfg.Source)...)
	errs = append(errs, validateBackend(&cfg.Backend)...)

	return multierr.Combine(errs...)
}

func validateSync(s *SyncConfig) []error {
	var errs []error

	d, err := time.ParseDuration(s.PollInterval)
	if err != nil {
		errs = append(errs, fmt.Errorf("sync.poll_interval: invalid duration %q: %w", s.PollInterval, err))
	} else if d < minPollInterval {
		errs = append(errs, fmt.Errorf("sync.poll_interval: must be at least %s, got %s", minPollInterval, d))
	}

	switch s.StartupSync {
	case "none", "upload", "full":
	default:
		errs = append(errs, fmt.Errorf("sync.startup_sync: must be none, upload, or full, got %q", s.StartupSync))
	}

	if len(s.AllowedExtensions) == 0 {
		errs = append(errs, errors.New("sync.allowed_extensions: must not be empty"))
	}

	return errs
}

func validateState(s *StateConfig) []error {
	if s.FilePath == "" {
		return []error{errors.New("state.file_path: must not be empty")}
	}

	return nil
}

func validateFailureLog(f *FailureLogConfig) []error {
	var errs []error

	if f.Path == "" {
		errs = append(errs, errors.New("failure_log.path: must not be empty"))
	}

	if _, err := parseSize(f.MaxSize); err != nil {
		errs = append(errs, fmt.Errorf("failure_log.max_size: %w", err))
	}

	return errs
}

func validatePreprocessor(p *PreprocessorConfig) []error {
	var errs []error

	if p.Enabled && len(p.Command) == 0 {
		errs = append(errs, errors.New("preprocessor.command: must be set when preprocessor.enabled is true"))
	}

	if p.TimeoutSeconds < minPreprocessTimeout {
		errs = append(errs, fmt.Errorf("preprocessor.timeout_seconds: must be at least %d, got %d", minPreprocessTimeout, p.TimeoutSeconds))
	}

	return errs
}

func validateSource(s *SourceConfig) []error {
	var errs []error

	switch s.Type {
	case "local":
		if s.Local.Dir == "" {
			errs = append(errs, errors.New("source.local.dir: must not be empty when source.type is local"))
		}
	case "sftp":
		if s.SFTP.Host == "" {
			errs = append(errs, errors.New("source.sftp.host: must not be empty when source.type is sftp"))
		}

		if s.SFTP.Port < minSFTPPort || s.SFTP.Port > maxSFTPPort {
			errs = append(errs, fmt.Errorf("source.sftp.port: must be between %d and %d, got %d", minSFTPPort, maxSFTPPort, s.SFTP.Port))
		}

		if s.SFTP.User == "" {
			errs = append(errs, errors.New("source.sftp.user: must not be empty when source.type is sftp"))
		}
	default:
		errs = append(errs, fmt.Errorf("source.type: must be local or sftp, got %q", s.Type))
	}

	return errs
}

func validateBackend(b *BackendConfig) []error {
	var errs []error

	if b.BaseURL == "" {
		errs = append(errs, errors.New("backend.base_url: must not be empty"))
	}

	if b.RequestTimeout != "" {
		if _, err := time.ParseDuration(b.RequestTimeout); err != nil {
			errs = append(errs, fmt.Errorf("backend.request_timeout: invalid duration %q: %w", b.RequestTimeout, err))
		}
	}

	return errs
}
