package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// resetFlags restores every global flag to its default.
func resetFlags(t *testing.T) {
	t.Helper()
	verbose = false
	quiet = false
	jsonOut = false
	sizeFlag = defaultSize
	filePath = ""
	logFile = ""
	showMetrics = false
	t.Cleanup(func() {
		filePath = ""
		jsonOut = false
		showMetrics = false
	})
}

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err, "failed to create pipe")
	os.Stdout = w

	done := make(chan []byte)
	go func() {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		done <- buf.Bytes()
	}()

	fnErr := fn()

	w.Close()
	os.Stdout = origStdout
	return string(<-done), fnErr
}

// writeTrace stores a trace document in a temp file and returns its path.
func writeTrace(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trace.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

// decodeJSON unmarshals captured output into v.
func decodeJSON(t *testing.T, output string, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(output), v), "invalid JSON output:\n%s", output)
}

const bestFitTrace = `
size: 4KiB
ops:
  - {op: alloc, name: a, size: 36}
  - {op: alloc, name: g1, size: 12}
  - {op: alloc, name: b, size: 20}
  - {op: alloc, name: g2, size: 12}
  - {op: alloc, name: c, size: 28}
  - {op: alloc, name: g3, size: 12}
  - {op: free, name: a}
  - {op: free, name: b}
  - {op: free, name: c}
  - {op: alloc, name: d, size: 20}
  - {op: free, name: a, expect: double-free}
  - {op: dump}
  - {op: check}
`
