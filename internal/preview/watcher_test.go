package preview

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestShouldIgnoreEvent(t *testing.T) {
	require.True(t, shouldIgnoreEvent("/tmp/.hidden.md"))
	require.True(t, shouldIgnoreEvent("/tmp/#foo#"))
	require.True(t, shouldIgnoreEvent("/tmp/foo.swp"))
	require.True(t, shouldIgnoreEvent("/tmp/foo.md~"))
	require.True(t, shouldIgnoreEvent("/tmp/.DS_Store"))
	require.False(t, shouldIgnoreEvent("/tmp/visible.md"))
	require.False(t, shouldIgnoreEvent("/tmp/_chrome/header.html"))
}

func TestDebouncerCoalesces(t *testing.T) {
	out := make(chan struct{}, 1)
	d := newDebouncer(20*time.Millisecond, out)
	defer d.stop()

	for range 5 {
		d.trigger()
	}
	select {
	case <-out:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced signal not delivered")
	}
	select {
	case <-out:
		t.Fatal("expected a single signal")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestNewWatcherRequiresDirectory(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "missing"), time.Millisecond)
	require.Error(t, err)
}

func TestWatcherReportsChanges(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "site")
	require.NoError(t, os.MkdirAll(out, 0o750))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "guides"), 0o750))

	w, err := NewWatcher(root, 20*time.Millisecond, out)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, changes) }()
	defer func() {
		cancel()
		require.NoError(t, <-done)
	}()

	// Writes below the ignored output directory never signal.
	require.Never(t, func() bool {
		_ = os.WriteFile(filepath.Join(out, "index.html"), []byte("x"), 0o600)
		select {
		case <-changes:
			return true
		default:
			return false
		}
	}, 300*time.Millisecond, 50*time.Millisecond)

	require.Eventually(t, func() bool {
		_ = os.WriteFile(filepath.Join(root, "guides", "devops.md"), []byte("# DevOps\n"), 0o600)
		select {
		case <-changes:
			return true
		default:
			return false
		}
	}, 5*time.Second, 100*time.Millisecond)
}
