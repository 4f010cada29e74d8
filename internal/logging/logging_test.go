package logging

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNew_ConsoleOnly(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Level: "warn", Out: &buf})
	require.NoError(t, err)
	defer l.Close()

	l.Info("hidden")
	l.Warn("visible")

	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "visible")
	require.Empty(t, l.Path)
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	require.Error(t, err)
}

func TestNew_FileSink(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	l, err := New(Options{Out: &buf, Dir: dir, Now: func() time.Time { return fixed }})
	require.NoError(t, err)

	l.WithField("accessor", "element_1").Info("captured")
	require.NoError(t, l.Close())

	require.True(t, strings.HasSuffix(l.Path, "ghost_2026-01-02_03-04-05.log"), l.Path)
	data, err := os.ReadFile(l.Path)
	require.NoError(t, err)
	require.Contains(t, string(data), "captured")
	require.Contains(t, string(data), "accessor=element_1")
	require.Contains(t, buf.String(), "captured")
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.Error("nothing")
	require.NoError(t, l.Close())
}
