package docsync

import (
	"crypto/md5" //nolint:gosec // content-identity hash, not used for security
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// HashFile returns the hex-encoded MD5 digest of the file at path, per
// original spec §3 ("hash is the MD5 of the source content"). Streaming I/O
// keeps memory constant regardless of file size. Exported for the
// verify-state CLI command, which recomputes hashes outside of a sync tick.
func HashFile(path string) (string, error) {
	return hashFile(path)
}

// hashFile returns the hex-encoded MD5 digest of the file at path.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("docsync: opening %s for hashing: %w", path, err)
	}
	defer f.Close()

	h := md5.New() //nolint:gosec // content-identity hash, not used for security
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("docsync: hashing %s: %w", path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
