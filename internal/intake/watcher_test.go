package intake

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// waitForPath drains the event channel until the wanted path arrives.
// Debounced duplicates of already seen paths are ignored.
func waitForPath(t *testing.T, evCh <-chan string, want string, seen map[string]bool) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case p, ok := <-evCh:
			if !ok {
				t.Fatalf("event channel closed while waiting for %s", want)
			}
			if p == want {
				seen[p] = true
				return
			}
			if seen[p] {
				continue
			}
			t.Fatalf("unexpected event %q while waiting for %q", p, want)
		case <-deadline:
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}

func TestWatchRequiresRoot(t *testing.T) {
	if _, _, err := Watch(context.Background(), WatchConfig{}, testLogger()); err == nil {
		t.Fatal("expected error for empty root")
	}
}

func TestWatchEmitsPresentations(t *testing.T) {
	root := t.TempDir()
	writeDeckFile(t, filepath.Join(root, "a.pptx"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	evCh, _, err := Watch(ctx, WatchConfig{
		Root:        root,
		InitialScan: true,
		Debounce:    50 * time.Millisecond,
	}, testLogger())
	if err != nil {
		t.Fatalf("Watch returned error: %v", err)
	}

	seen := map[string]bool{}

	// The initial scan surfaces what was already there.
	waitForPath(t, evCh, filepath.Join(root, "a.pptx"), seen)

	// New files surface after the debounce window.
	writeDeckFile(t, filepath.Join(root, "b.pptx"))
	waitForPath(t, evCh, filepath.Join(root, "b.pptx"), seen)

	// New subdirectories join the watch.
	if err := os.MkdirAll(filepath.Join(root, "sub"), 0o755); err != nil {
		t.Fatalf("mkdir sub: %v", err)
	}
	time.Sleep(300 * time.Millisecond)
	writeDeckFile(t, filepath.Join(root, "sub", "c.pptx"))
	waitForPath(t, evCh, filepath.Join(root, "sub", "c.pptx"), seen)

	// Hidden files and lock files never surface.
	writeDeckFile(t, filepath.Join(root, ".skip.pptx"))
	writeDeckFile(t, filepath.Join(root, "~$lock.pptx"))
	writeDeckFile(t, filepath.Join(root, "d.pptx"))
	waitForPath(t, evCh, filepath.Join(root, "d.pptx"), seen)

	// Cancellation closes the stream.
	cancel()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-evCh:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("event channel did not close after cancel")
		}
	}
}
