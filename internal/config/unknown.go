package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// maxLevenshteinDistance is the maximum edit distance for "did you mean?"
// suggestions when an unknown config key is detected.
const maxLevenshteinDistance = 3

// knownSectionKeys maps each top-level TOML table to its recognized leaf
// keys, for "did you mean?" suggestions on typos.
var knownSectionKeys = map[string][]string{
	"sync":         {"poll_interval", "startup_sync", "allowed_extensions", "cleanup_failed_docs"},
	"state":        {"file_path"},
	"failure_log":  {"path", "max_size"},
	"preprocessor": {"enabled", "command", "timeout_seconds"},
	"source":       {"type", "local", "sftp"},
	"backend":      {"base_url", "client_id", "client_secret", "token_url", "scopes", "token_cache_path", "request_timeout"},
	"logging":      {"level", "format"},
}

// checkUnknownKeys inspects TOML metadata for undecoded keys and returns an
// error with "did you mean?" suggestions for each one.
func checkUnknownKeys(md *toml.MetaData) error {
	undecoded := md.Undecoded()
	if len(undecoded) == 0 {
		return nil
	}

	var errs []error

	for _, key := range undecoded {
		if err := buildUnknownKeyError(key.String()); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// buildUnknownKeyError describes one undecoded dotted key path, suggesting
// the closest known leaf within its section when the section itself is
// recognized.
func buildUnknownKeyError(keyStr string) error {
	parts := strings.SplitN(keyStr, ".", 2)
	section := parts[0]

	known, sectionOK := knownSectionKeys[section]
	if !sectionOK {
		suggestion := closestMatch(section, sectionNames())
		if suggestion != "" {
			return fmt.Errorf("unknown config section %q — did you mean %q?", section, suggestion)
		}

		return fmt.Errorf("unknown config section %q", section)
	}

	if len(parts) == 1 {
		return nil // the section itself decoded fine; nothing more to report
	}

	leaf := strings.SplitN(parts[1], ".", 2)[0]

	suggestion := closestMatch(leaf, known)
	if suggestion != "" {
		return fmt.Errorf("unknown config key %q in [%s] — did you mean %q?", leaf, section, suggestion)
	}

	return fmt.Errorf("unknown config key %q in [%s]", leaf, section)
}

func sectionNames() []string {
	names := make([]string, 0, len(knownSectionKeys))
	for k := range knownSectionKeys {
		names = append(names, k)
	}

	sort.Strings(names)

	return names
}

// closestMatch finds the closest known key by Levenshtein distance, or ""
// if nothing is within maxLevenshteinDistance.
func closestMatch(unknown string, known []string) string {
	best := ""
	bestDist := maxLevenshteinDistance + 1

	for _, k := range known {
		d := levenshtein(unknown, k)
		if d < bestDist {
			bestDist = d
			best = k
		}
	}

	if bestDist <= maxLevenshteinDistance {
		return best
	}

	return ""
}

// levenshtein computes the edit distance between two strings.
func levenshtein(a, b string) int {
	if a == "" {
		return len(b)
	}

	if b == "" {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for j := range prev {
		prev[j] = j
	}

	for i := range len(a) {
		curr[0] = i + 1

		for j := range len(b) {
			cost := 1
			if a[i] == b[j] {
				cost = 0
			}

			curr[j+1] = minOf(curr[j]+1, prev[j+1]+1, prev[j]+cost)
		}

		prev, curr = curr, prev
	}

	return prev[len(b)]
}

func minOf(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}

	if c < m {
		m = c
	}

	return m
}
