package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ingestsync/docsync/internal/docsync"
)

func TestPrintSyncJSON_EncodesCountsAndErrors(t *testing.T) {
	report := &docsync.Report{
		Uploaded: 2,
		Updated:  1,
		Failed:   1,
		Errors:   []error{errors.New("boom")},
		Duration: 1500 * time.Millisecond,
	}

	var buf bytes.Buffer
	orig := printSyncJSONTo(&buf, report)
	require.NoError(t, orig)

	var out syncJSONOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))

	assert.Equal(t, 2, out.Uploaded)
	assert.Equal(t, 1, out.Updated)
	assert.Equal(t, 1, out.Failed)
	assert.Equal(t, []string{"boom"}, out.Errors)
	assert.Equal(t, int64(1500), out.DurationMs)
}

func TestNewSyncCmd_Structure(t *testing.T) {
	cmd := newSyncCmd()
	assert.Equal(t, "sync", cmd.Use)
}
