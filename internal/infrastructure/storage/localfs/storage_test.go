package localfs

import (
	"context"
	"io"
	"strings"
	"testing"
)

func TestSaveAndOpenRoundTrip(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	n, err := store.Save(context.Background(), "doc-1_report.pdf", strings.NewReader("file body"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if n != int64(len("file body")) {
		t.Fatalf("written = %d, want %d", n, len("file body"))
	}

	rc, err := store.Open(context.Background(), "doc-1_report.pdf")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "file body" {
		t.Fatalf("content = %q", data)
	}
}

func TestOpenMissingKey(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := store.Open(context.Background(), "nope"); err == nil {
		t.Fatal("expected error for missing key")
	}
}

func TestDeleteRemovesFileAndToleratesMissing(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := store.Save(context.Background(), "doc-2_a.txt", strings.NewReader("x")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Delete(context.Background(), "doc-2_a.txt"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Open(context.Background(), "doc-2_a.txt"); err == nil {
		t.Fatal("file still readable after delete")
	}

	if err := store.Delete(context.Background(), "doc-2_a.txt"); err != nil {
		t.Fatalf("second Delete must be a no-op, got %v", err)
	}
}
