package confloader

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/yndnr/tsxlock-go/internal/telemetry/logger"
)

func TestNewWatcher(t *testing.T) {
	w, err := NewWatcher(WithWatcherLogger(logger.Discard()))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	if w.watcher == nil || w.done == nil || w.logger == nil {
		t.Error("NewWatcher() left fields unset")
	}
	if err := w.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
}

func TestWatcher_Watch_NonexistentDir(t *testing.T) {
	w, err := NewWatcher(WithWatcherLogger(logger.Discard()))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	if err := w.Watch("/nonexistent/path/tsxlock.yaml"); err == nil {
		t.Error("Watch() expected error for nonexistent directory")
	}
}

func TestWatcher_FileChange(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "tsxlock.yaml")
	otherFile := filepath.Join(dir, "unrelated.txt")
	if err := os.WriteFile(configFile, []byte("htm:\n  force_software: false\n"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	w, err := NewWatcher(WithWatcherLogger(logger.Discard()))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	if err := w.Watch(configFile); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	var (
		mu      sync.Mutex
		changed []string
	)
	notified := make(chan struct{}, 16)
	w.OnChange(func(path string) {
		mu.Lock()
		changed = append(changed, path)
		mu.Unlock()
		notified <- struct{}{}
	})
	w.StartAsync()

	if err := os.WriteFile(otherFile, []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := os.WriteFile(configFile, []byte("htm:\n  force_software: true\n"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	select {
	case <-notified:
	case <-time.After(5 * time.Second):
		t.Fatal("callback not invoked for config file change")
	}

	mu.Lock()
	defer mu.Unlock()
	for _, p := range changed {
		if p != filepath.Clean(configFile) {
			t.Errorf("callback got %q, want only %q", p, configFile)
		}
	}
}
