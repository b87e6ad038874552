package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/heap"
)

func writeImage(t *testing.T, size int, build func(h *heap.Heap)) string {
	t.Helper()
	region := make([]byte, size)
	h, err := heap.New(region, nil)
	require.NoError(t, err)
	build(h)
	path := filepath.Join(t.TempDir(), "heap.img")
	require.NoError(t, os.WriteFile(path, region, 0o644))
	return path
}

func TestInspectCommand_JSON(t *testing.T) {
	resetFlags(t)
	jsonOut = true
	path := writeImage(t, 1024, func(h *heap.Heap) {
		_, err := h.Alloc(100)
		require.NoError(t, err)
	})

	output, err := captureOutput(t, func() error {
		return runInspect([]string{path})
	})
	require.NoError(t, err)

	var report inspectReport
	decodeJSON(t, output, &report)
	assert.Equal(t, path, report.File)
	require.Len(t, report.Blocks, 2)
	assert.Equal(t, 104, report.Blocks[0].Size)
	assert.Equal(t, 1016-104, report.Stats.FreeBytes)
}

func TestInspectCommand_Corrupt(t *testing.T) {
	resetFlags(t)
	path := writeImage(t, 1024, func(h *heap.Heap) {})

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	raw[4] ^= 0x08 // change the first block's size
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	_, err = captureOutput(t, func() error {
		return runInspect([]string{path})
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

func TestInspectCommand_Missing(t *testing.T) {
	resetFlags(t)
	path := filepath.Join(t.TempDir(), "missing.img")

	_, err := captureOutput(t, func() error {
		return runInspect([]string{path})
	})
	require.ErrorIs(t, err, os.ErrNotExist)

	_, statErr := os.Stat(path)
	assert.ErrorIs(t, statErr, os.ErrNotExist, "inspect must not create the image")
}
