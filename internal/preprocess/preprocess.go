// Package preprocess implements docsync.Preprocessor. The identity
// implementation returns the input unchanged; the command implementation
// shells out to an external tool, mirroring how the teacher's conflict
// resolution step invokes an external diff/merge tool with a bounded
// timeout.
package preprocess

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// Identity returns the input path unchanged — the default Preprocessor when
// no external command is configured.
type Identity struct{}

// Process implements docsync.Preprocessor.
func (Identity) Process(_ context.Context, inputPath, _ string) (string, error) {
	return inputPath, nil
}

// Command runs an external command to transform a downloaded file before
// upload. The command receives two positional path arguments: the input path
// and an output path it must write its transformed result to.
type Command struct {
	// Argv is the command and its fixed leading arguments; inputPath and
	// outputPath are appended as the final two positional arguments.
	Argv    []string
	Timeout time.Duration
}

// Process implements docsync.Preprocessor by invoking Argv with a bounded
// timeout. A non-zero exit or timeout fails the preprocess step, per original
// spec §4.3.
func (c Command) Process(ctx context.Context, inputPath, _ string) (string, error) {
	if len(c.Argv) == 0 {
		return "", fmt.Errorf("preprocess: no command configured")
	}

	outputPath, err := reserveOutputPath()
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	args := append(append([]string{}, c.Argv[1:]...), inputPath, outputPath)

	cmd := exec.CommandContext(ctx, c.Argv[0], args...)

	if err := cmd.Run(); err != nil {
		os.Remove(outputPath)

		if ctx.Err() != nil {
			return "", fmt.Errorf("preprocess: command timed out after %s: %w", c.Timeout, ctx.Err())
		}

		return "", fmt.Errorf("preprocess: command failed: %w", err)
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return "", fmt.Errorf("preprocess: command did not write output path %s: %w", outputPath, err)
	}

	if info.Size() == 0 {
		os.Remove(outputPath)

		return "", fmt.Errorf("preprocess: command produced empty output at %s", outputPath)
	}

	return outputPath, nil
}

// reserveOutputPath picks a unique path in the system temp directory without
// creating it, so the command's own write (not our placeholder) is what
// Process later verifies.
func reserveOutputPath() (string, error) {
	f, err := os.CreateTemp("", "docsync-preprocess-*")
	if err != nil {
		return "", fmt.Errorf("preprocess: reserving output path: %w", err)
	}

	path := f.Name()
	f.Close()
	os.Remove(path)

	return path, nil
}
