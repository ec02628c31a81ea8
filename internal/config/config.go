// Package config implements TOML configuration loading, validation, and
// platform-specific path resolution for docsync.
package config

// Config is the top-level configuration structure, decoded directly from a
// single TOML document. There is no multi-profile or multi-drive layering —
// one process syncs one source into one backend.
type Config struct {
	Sync         SyncConfig         `toml:"sync"`
	State        StateConfig        `toml:"state"`
	FailureLog   FailureLogConfig   `toml:"failure_log"`
	Preprocessor PreprocessorConfig `toml:"preprocessor"`
	Source       SourceConfig       `toml:"source"`
	Backend      BackendConfig      `toml:"backend"`
	Logging      LoggingConfig      `toml:"logging"`
}

// SyncConfig controls the engine's scheduling and reconciliation behavior.
type SyncConfig struct {
	PollInterval      string   `toml:"poll_interval"`
	StartupSync       string   `toml:"startup_sync"`
	AllowedExtensions []string `toml:"allowed_extensions"`
	CleanupFailedDocs bool     `toml:"cleanup_failed_docs"`
}

// StateConfig locates the durable StateStore snapshot.
type StateConfig struct {
	FilePath string `toml:"file_path"`
}

// FailureLogConfig locates and sizes the rotated failure log.
type FailureLogConfig struct {
	Path    string `toml:"path"`
	MaxSize string `toml:"max_size"`
}

// PreprocessorConfig configures an optional external preprocessing command.
// When Enabled is false, the identity preprocessor is used.
type PreprocessorConfig struct {
	Enabled        bool     `toml:"enabled"`
	Command        []string `toml:"command"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
}

// SourceConfig selects and configures the FileSource transport.
type SourceConfig struct {
	Type  string             `toml:"type"` // "local" or "sftp"
	Local LocalSourceConfig  `toml:"local"`
	SFTP  SFTPSourceConfig   `toml:"sftp"`
}

// LocalSourceConfig configures a filesystem-backed FileSource.
type LocalSourceConfig struct {
	Dir string `toml:"dir"`
}

// SFTPSourceConfig configures an SFTP-backed FileSource.
type SFTPSourceConfig struct {
	Host           string `toml:"host"`
	Port           int    `toml:"port"`
	User           string `toml:"user"`
	PrivateKeyPath string `toml:"private_key_path"`
	KnownHostsPath string `toml:"known_hosts_path"`
	RemoteDir      string `toml:"remote_dir"`
}

// BackendConfig configures the ingest Backend HTTP client and its OAuth2
// client-credentials grant.
type BackendConfig struct {
	BaseURL        string   `toml:"base_url"`
	ClientID       string   `toml:"client_id"`
	ClientSecret   string   `toml:"client_secret"`
	TokenURL       string   `toml:"token_url"`
	Scopes         []string `toml:"scopes"`
	TokenCachePath string   `toml:"token_cache_path"`
	RequestTimeout string   `toml:"request_timeout"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}
