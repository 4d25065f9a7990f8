// Package store keeps the download history in a SQLite database.
//
// A run is one invocation against one target URL. Each run records the
// outcome of every content item and every file written to disk, so that
// `xchina-dl history` can list what was fetched and when.
//
//	s, err := store.Open(settings.HistoryPath)
//	runID, _ := s.StartRun(ctx, target.URL, target.Kind.String())
//	_ = s.RecordFile(ctx, store.File{RunID: runID, URL: u, Path: p, Size: n})
//	_ = s.FinishRun(ctx, runID)
package store
