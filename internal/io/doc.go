// Package ioutils provides the file system operations used when saving
// downloaded media.
//
// This package contains functions for:
//   - Directory creation
//   - Existence checks used for duplicate detection
//   - Exclusive file writes that never overwrite an existing file
//
// # File Operations
//
//	// Ensure directory exists
//	err := ioutils.EnsureDir("/data/XiuRen/Alice/Beach_2023-07-18_id-64c4abcd9026b")
//
//	// Write a new file, failing if it is already there
//	err := ioutils.WriteFileExclusive(ctx, "/data/.../0001.jpg", data)
//	if errors.Is(err, fs.ErrExist) {
//	    // Another run got there first
//	}
package ioutils
