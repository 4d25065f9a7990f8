package ioutils

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileExclusive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "0001.jpg")
	ctx := context.Background()

	if err := WriteFileExclusive(ctx, path, []byte("first")); err != nil {
		t.Fatalf("first write: %v", err)
	}

	err := WriteFileExclusive(ctx, path, []byte("second"))
	if !errors.Is(err, fs.ErrExist) {
		t.Errorf("second write error = %v, want fs.ErrExist", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "first" {
		t.Errorf("content = %q, existing file was overwritten", data)
	}
}

func TestWriteFileExclusive_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path := filepath.Join(t.TempDir(), "0001.jpg")
	if err := WriteFileExclusive(ctx, path, []byte("x")); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if Exists(path) {
		t.Error("file created despite cancelled context")
	}
}

func TestExistsAndEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "c")

	if Exists(dir) {
		t.Fatal("directory should not exist yet")
	}
	if err := EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	if !Exists(dir) {
		t.Error("directory should exist")
	}
	if err := EnsureDir(dir); err != nil {
		t.Errorf("EnsureDir on existing dir: %v", err)
	}
}
