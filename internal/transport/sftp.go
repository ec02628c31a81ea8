package transport

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/ingestsync/docsync/internal/docsync"
)

// SFTPDialTimeout bounds the initial TCP+SSH handshake.
const SFTPDialTimeout = 15 * time.Second

// SFTP is a docsync.FileSource backed by a directory on a remote server
// reachable over SFTP.
type SFTP struct {
	addr           string
	user           string
	privateKeyPath string
	knownHostsPath string
	remoteDir      string
	extensions     []string
	logger         *slog.Logger
}

// NewSFTP creates an SFTP source. addr is host:port; privateKeyPath selects
// the client key; knownHostsPath pins the server host key.
func NewSFTP(addr, user, privateKeyPath, knownHostsPath, remoteDir string, extensions []string, logger *slog.Logger) *SFTP {
	if logger == nil {
		logger = slog.Default()
	}

	lowered := make([]string, len(extensions))
	for i, ext := range extensions {
		lowered[i] = strings.ToLower(ext)
	}

	return &SFTP{
		addr:           addr,
		user:           user,
		privateKeyPath: privateKeyPath,
		knownHostsPath: knownHostsPath,
		remoteDir:      remoteDir,
		extensions:     lowered,
		logger:         logger,
	}
}

// AllowedExtensions implements docsync.FileSource.
func (s *SFTP) AllowedExtensions() []string {
	return s.extensions
}

// dial opens a fresh SSH+SFTP session. Connections are per-call — SFTP
// sessions are cheap relative to the poll interval and this avoids managing
// a long-lived connection's reconnect logic.
func (s *SFTP) dial() (*sftp.Client, func(), error) {
	key, err := os.ReadFile(s.privateKeyPath)
	if err != nil {
		return nil, nil, fmt.Errorf("transport: reading private key: %w", err)
	}

	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, nil, fmt.Errorf("transport: parsing private key: %w", err)
	}

	hostKeyCallback, err := knownhosts.New(s.knownHostsPath)
	if err != nil {
		return nil, nil, fmt.Errorf("transport: loading known_hosts: %w", err)
	}

	cfg := &ssh.ClientConfig{
		User:            s.user,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: hostKeyCallback,
		Timeout:         SFTPDialTimeout,
	}

	conn, err := net.DialTimeout("tcp", s.addr, SFTPDialTimeout)
	if err != nil {
		return nil, nil, fmt.Errorf("transport: dialing %s: %w", s.addr, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, s.addr, cfg)
	if err != nil {
		conn.Close()

		return nil, nil, fmt.Errorf("transport: SSH handshake with %s: %w", s.addr, err)
	}

	client := ssh.NewClient(sshConn, chans, reqs)

	sc, err := sftp.NewClient(client)
	if err != nil {
		client.Close()

		return nil, nil, fmt.Errorf("transport: starting SFTP session: %w", err)
	}

	return sc, func() { sc.Close(); client.Close() }, nil
}

// List implements docsync.FileSource.
func (s *SFTP) List(_ context.Context) ([]docsync.RemoteFileInfo, error) {
	client, closeFn, err := s.dial()
	if err != nil {
		s.logger.Error("connecting to SFTP source", slog.String("error", err.Error()))

		return nil, nil
	}
	defer closeFn()

	entries, err := client.ReadDir(s.remoteDir)
	if err != nil {
		s.logger.Error("listing SFTP source directory", slog.String("dir", s.remoteDir), slog.String("error", err.Error()))

		return nil, nil
	}

	out := make([]docsync.RemoteFileInfo, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !s.hasAllowedExtension(entry.Name()) {
			continue
		}

		out = append(out, docsync.RemoteFileInfo{
			Name:               entry.Name(),
			LastModifiedMillis: entry.ModTime().UnixMilli(),
		})
	}

	return out, nil
}

func (s *SFTP) hasAllowedExtension(name string) bool {
	lowerName := strings.ToLower(name)
	for _, ext := range s.extensions {
		if strings.HasSuffix(lowerName, ext) {
			return true
		}
	}

	return false
}

// Download implements docsync.FileSource by streaming the remote file into
// a fresh temp file owned by the caller.
func (s *SFTP) Download(_ context.Context, name string) (string, error) {
	client, closeFn, err := s.dial()
	if err != nil {
		return "", fmt.Errorf("transport: connecting to download %s: %w", name, err)
	}
	defer closeFn()

	remote, err := client.Open(path.Join(s.remoteDir, name))
	if err != nil {
		return "", fmt.Errorf("transport: opening remote %s: %w", name, err)
	}
	defer remote.Close()

	tmp, err := os.CreateTemp("", "docsync-download-*")
	if err != nil {
		return "", fmt.Errorf("transport: creating temp file for %s: %w", name, err)
	}
	defer tmp.Close()

	if _, err := io.Copy(tmp, remote); err != nil {
		os.Remove(tmp.Name())

		return "", fmt.Errorf("transport: downloading %s: %w", name, err)
	}

	return tmp.Name(), nil
}
