package download

import "errors"

var (
	// ErrNotDownloadable is returned for targets that have no files, such
	// as the site's home page.
	ErrNotDownloadable = errors.New("target is not downloadable")

	// ErrNoFiles is returned when an item or listing yields no file URLs.
	ErrNoFiles = errors.New("no downloadable files")

	// ErrWrite wraps failures to create a directory or write a file.
	ErrWrite = errors.New("write failed")

	// ErrDuplicate marks a file that already exists on disk. It is logged,
	// counted as skipped and never treated as a failure.
	ErrDuplicate = errors.New("file already exists")
)
