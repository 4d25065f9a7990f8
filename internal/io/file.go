package ioutils

import (
	"context"
	"errors"
	"io/fs"
	"os"
)

// WriteFileExclusive writes data to a new file at path.
//
// The file is created with mode 0644 and O_EXCL, so an existing file is
// never truncated: the error then satisfies errors.Is(err, fs.ErrExist).
// A partially written file is removed.
//
// Parameters:
//   - ctx: Checked once before the file is created
//   - path: File path to write to
//   - data: Bytes to write
//
// Example:
//
//	err := WriteFileExclusive(ctx, "/data/.../0001.jpg", jpegBytes)
func WriteFileExclusive(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}

	_, err = f.Write(data)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return err
	}
	return nil
}

// Exists reports whether a file or directory exists at path.
//
// Errors other than "not exist" (permissions, for example) are reported as
// existing, so the caller skips rather than overwrites.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}

// EnsureDir creates a directory and all parent directories if they don't exist.
//
// Directories are created with mode 0755 (rwxr-xr-x).
// If the directory already exists, no error is returned.
//
// Example:
//
//	err := EnsureDir("/data/XiuRen/Alice")
//	// Creates /data, /data/XiuRen, and /data/XiuRen/Alice if needed
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}
