package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/blueprint-cli/internal/model"
)

func TestCollectDrawings(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.png", "a.pdf", "index.html", "notes.txt", "c.TIF"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	paths, err := collectDrawings(dir)
	require.NoError(t, err)
	require.Len(t, paths, 3)
	assert.Equal(t, filepath.Join(dir, "a.pdf"), paths[0])
	assert.Equal(t, filepath.Join(dir, "b.png"), paths[1])
	assert.Equal(t, filepath.Join(dir, "c.TIF"), paths[2])
}

func TestCollectDrawingsMissingDir(t *testing.T) {
	_, err := collectDrawings(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestFormatRunsList(t *testing.T) {
	runs := []model.Run{
		{
			ID:        "run-1",
			DocID:     "a1b2c3d4e5f6",
			Status:    model.RunStatusDone,
			DocPath:   "drawings/A2.01.png",
			CreatedAt: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	out := buf.String()
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "a1b2c3d4e5f6")
	assert.Contains(t, out, "done")
	assert.Contains(t, out, "2026-03-14 09:30:00")
}
