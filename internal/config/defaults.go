package config

// Default values for configuration options — "layer 0" of the
// default -> file -> env -> CLI override chain.
const (
	defaultPollInterval      = "1m"
	defaultStartupSync       = "none"
	defaultAllowedExtensions = ".pdf,.doc,.docx"
	defaultStateFilePath     = "data/state.json"
	defaultFailureLogPath    = "logs/failures.log"
	defaultFailureLogMaxSize = "1MiB"
	defaultPreprocessTimeout = 120
	defaultSourceType        = "local"
	defaultSFTPPort          = 22
	defaultRequestTimeout    = "30s"
	defaultLogLevel          = "info"
	defaultLogFormat         = "auto"
)

// DefaultConfig returns a Config populated with all default values. Used as
// the decode target (so unset TOML fields retain defaults) and as the
// fallback when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Sync: SyncConfig{
			PollInterval:      defaultPollInterval,
			StartupSync:       defaultStartupSync,
			AllowedExtensions: splitExtensions(defaultAllowedExtensions),
		},
		State: StateConfig{
			FilePath: defaultStateFilePath,
		},
		FailureLog: FailureLogConfig{
			Path:    defaultFailureLogPath,
			MaxSize: defaultFailureLogMaxSize,
		},
		Preprocessor: PreprocessorConfig{
			TimeoutSeconds: defaultPreprocessTimeout,
		},
		Source: SourceConfig{
			Type: defaultSourceType,
			SFTP: SFTPSourceConfig{Port: defaultSFTPPort},
		},
		Backend: BackendConfig{
			RequestTimeout: defaultRequestTimeout,
		},
		Logging: LoggingConfig{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
