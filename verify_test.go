package main

import (
	"encoding/json"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)

	os.Stdout = w
	t.Cleanup(func() { os.Stdout = old })

	fn()

	require.NoError(t, w.Close())

	out, err := io.ReadAll(r)
	require.NoError(t, err)

	return string(out)
}

func TestPrintVerifyTable_NoMismatchesReportsClean(t *testing.T) {
	out := captureStdout(t, func() {
		printVerifyTable(verifyReport{Verified: 3})
	})

	assert.Contains(t, out, "Verified: 3 files")
	assert.Contains(t, out, "No drift found.")
}

func TestPrintVerifyTable_ListsMismatchRows(t *testing.T) {
	report := verifyReport{
		Verified: 1,
		Mismatches: []verifyMismatch{
			{Name: "doc.txt", Status: "hash-mismatch", Recorded: "aaa", Current: "bbb"},
			{Name: "gone.txt", Status: "missing-from-source"},
		},
	}

	out := captureStdout(t, func() { printVerifyTable(report) })

	assert.Contains(t, out, "Mismatches: 2")
	assert.Contains(t, out, "doc.txt")
	assert.Contains(t, out, "hash-mismatch")
	assert.Contains(t, out, "gone.txt")
	assert.Contains(t, out, "missing-from-source")
}

func TestPrintVerifyJSON_EncodesReport(t *testing.T) {
	report := verifyReport{
		Verified: 2,
		Mismatches: []verifyMismatch{
			{Name: "doc.txt", Status: "untracked"},
		},
	}

	out := captureStdout(t, func() {
		require.NoError(t, printVerifyJSON(report))
	})

	var decoded verifyReport
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, report, decoded)
}
