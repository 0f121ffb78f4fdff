package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalStorageSaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	if err != nil {
		t.Fatalf("unexpected error creating storage: %v", err)
	}

	key, err := store.Save(context.Background(), []byte{0xff, 0xd8, 0xff}, SaveOptions{
		Category:  "events",
		Extension: "jpg",
		BaseName:  "capture-1",
	})
	if err != nil {
		t.Fatalf("unexpected error saving: %v", err)
	}
	if !strings.HasPrefix(key, "events/") || !strings.HasSuffix(key, "capture-1.jpg") {
		t.Fatalf("unexpected key: %s", key)
	}

	absPath := filepath.Join(dir, filepath.FromSlash(key))
	if _, err := os.Stat(absPath); err != nil {
		t.Fatalf("expected file on disk: %v", err)
	}

	if err := store.Delete(context.Background(), key); err != nil {
		t.Fatalf("unexpected error deleting: %v", err)
	}
	if _, err := os.Stat(absPath); !os.IsNotExist(err) {
		t.Fatalf("expected file to be removed, got %v", err)
	}

	// Deleting again is a no-op, not an error.
	if err := store.Delete(context.Background(), key); err != nil {
		t.Fatalf("expected idempotent delete, got %v", err)
	}
}

func TestLocalStorageRejectsEmptyPayload(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error creating storage: %v", err)
	}
	if _, err := store.Save(context.Background(), nil, SaveOptions{}); err == nil {
		t.Fatal("expected error for empty payload")
	}
}

func TestLocalStorageDeleteRejectsEscapingKey(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error creating storage: %v", err)
	}
	if err := store.Delete(context.Background(), "../outside"); err == nil {
		t.Fatal("expected error for key escaping the base directory")
	}
}

func TestBuildObjectPath(t *testing.T) {
	key := buildObjectPath("Events", "My Capture", ".JPG")
	if !strings.HasPrefix(key, "events/") {
		t.Fatalf("expected lowercased category prefix, got %s", key)
	}
	if !strings.HasSuffix(key, "my-capture.jpg") {
		t.Fatalf("expected sanitised base name and extension, got %s", key)
	}
	if strings.Contains(key, " ") {
		t.Fatalf("expected no spaces in key, got %s", key)
	}
}
