package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForSignal(t *testing.T, ch <-chan struct{}) bool {
	t.Helper()
	select {
	case _, ok := <-ch:
		return ok
	case <-time.After(3 * time.Second):
		return false
	}
}

func TestWatcher_SignalsAfterWrite(t *testing.T) {
	dir := t.TempDir()

	w, err := New(dir, WithDebounce(50*time.Millisecond))
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes := w.Changes(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "guide.md"), []byte("# Guide"), 0o644))

	assert.True(t, waitForSignal(t, changes), "expected a change signal")
}

func TestWatcher_CoalescesBursts(t *testing.T) {
	dir := t.TempDir()

	w, err := New(dir, WithDebounce(100*time.Millisecond))
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes := w.Changes(ctx)

	for i := 0; i < 5; i++ {
		name := filepath.Join(dir, "doc"+string(rune('a'+i))+".md")
		require.NoError(t, os.WriteFile(name, []byte("content"), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	require.True(t, waitForSignal(t, changes), "expected one signal for the burst")

	// The burst settled; no second signal should arrive.
	select {
	case <-changes:
		t.Fatal("burst produced more than one signal")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_IgnoresUnwatchedExtensions(t *testing.T) {
	dir := t.TempDir()

	w, err := New(dir, WithDebounce(50*time.Millisecond))
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes := w.Changes(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "image.png"), []byte{0x89}, 0o644))

	select {
	case <-changes:
		t.Fatal("unwatched extension triggered a signal")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_ClosesOnCancel(t *testing.T) {
	dir := t.TempDir()

	w, err := New(dir, WithDebounce(50*time.Millisecond))
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	changes := w.Changes(ctx)
	cancel()

	select {
	case _, ok := <-changes:
		assert.False(t, ok, "channel should close on cancel")
	case <-time.After(time.Second):
		t.Fatal("channel did not close")
	}
}
