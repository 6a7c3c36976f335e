package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestReloadOnSnippetChange(t *testing.T) {
	dir := t.TempDir()
	reloaded := make(chan struct{}, 1)

	w := New(dir, 50*time.Millisecond, func() {
		select {
		case reloaded <- struct{}{}:
		default:
		}
	}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "basics.json"), []byte(`{"snippets":[]}`), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("reload callback never fired")
	}
}

func TestIgnoresNonJSONFiles(t *testing.T) {
	dir := t.TempDir()
	reloaded := make(chan struct{}, 1)

	w := New(dir, 50*time.Millisecond, func() {
		select {
		case reloaded <- struct{}{}:
		default:
		}
	}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("notes"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-reloaded:
		t.Fatal("reload fired for a non-JSON file")
	case <-time.After(500 * time.Millisecond):
	}
}

func TestStartCreatesMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "snippets")

	w := New(dir, 50*time.Millisecond, func() {}, zap.NewNop())
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	if _, err := os.Stat(dir); err != nil {
		t.Errorf("directory not created: %v", err)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	w := New(t.TempDir(), 50*time.Millisecond, func() {}, zap.NewNop())
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop()
}
