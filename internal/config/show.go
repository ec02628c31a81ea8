package config

import (
	"fmt"
	"io"
	"strings"
)

// RenderEffective writes the resolved configuration as a human-readable
// annotated summary to w. This powers the "config show" command.
func RenderEffective(r *Resolved, w io.Writer) error {
	ew := &errWriter{w: w}

	ew.printf("# Effective docsync configuration\n\n")

	renderSyncSection(ew, r)
	renderStateSection(ew, r)
	renderPreprocessorSection(ew, &r.Preprocessor)
	renderSourceSection(ew, &r.Source)
	renderBackendSection(ew, r)
	ew.printf("[logging]\n")
	ew.printf("  level  = %q\n", r.LogLevel)
	ew.printf("  format = %q\n", r.LogFormat)

	return ew.err
}

// errWriter wraps an io.Writer and captures the first write error, so
// callers can chain printf calls without checking each one individually.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}

	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func renderSyncSection(ew *errWriter, r *Resolved) {
	ew.printf("[sync]\n")
	ew.printf("  poll_interval        = %s\n", r.PollInterval)
	ew.printf("  startup_sync         = %q\n", r.StartupSync)
	ew.printf("  allowed_extensions   = [%s]\n", joinQuoted(r.AllowedExtensions))
	ew.printf("  cleanup_failed_docs  = %t\n", r.CleanupFailedDocs)
	ew.printf("\n")
}

func renderStateSection(ew *errWriter, r *Resolved) {
	ew.printf("[state]\n")
	ew.printf("  file_path = %q\n", r.StateFilePath)
	ew.printf("\n")
	ew.printf("[failure_log]\n")
	ew.printf("  path          = %q\n", r.FailureLogPath)
	ew.printf("  max_size_byte = %d\n", r.FailureLogMaxSizeByte)
	ew.printf("\n")
}

func renderPreprocessorSection(ew *errWriter, p *PreprocessorConfig) {
	ew.printf("[preprocessor]\n")
	ew.printf("  enabled         = %t\n", p.Enabled)

	if len(p.Command) > 0 {
		ew.printf("  command         = [%s]\n", joinQuoted(p.Command))
	}

	ew.printf("  timeout_seconds = %d\n", p.TimeoutSeconds)
	ew.printf("\n")
}

func renderSourceSection(ew *errWriter, s *SourceConfig) {
	ew.printf("[source]\n")
	ew.printf("  type = %q\n", s.Type)

	switch s.Type {
	case "local":
		ew.printf("  local.dir = %q\n", s.Local.Dir)
	case "sftp":
		ew.printf("  sftp.host       = %q\n", s.SFTP.Host)
		ew.printf("  sftp.port       = %d\n", s.SFTP.Port)
		ew.printf("  sftp.user       = %q\n", s.SFTP.User)
		ew.printf("  sftp.remote_dir = %q\n", s.SFTP.RemoteDir)
	}

	ew.printf("\n")
}

func renderBackendSection(ew *errWriter, r *Resolved) {
	ew.printf("[backend]\n")
	ew.printf("  base_url        = %q\n", r.Backend.BaseURL)
	ew.printf("  client_id       = %q\n", r.Backend.ClientID)
	ew.printf("  token_url       = %q\n", r.Backend.TokenURL)
	ew.printf("  request_timeout = %s\n", r.BackendRequestTimeout)
	ew.printf("\n")
}

// joinQuoted formats a string slice as comma-separated quoted values.
func joinQuoted(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = fmt.Sprintf("%q", item)
	}

	return strings.Join(quoted, ", ")
}
