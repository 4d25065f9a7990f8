package download

import (
	"context"

	"github.com/handiism/xchina-downloader/internal/store"
)

// Recorder receives the outcome of a run. *store.Store implements it.
type Recorder interface {
	StartRun(ctx context.Context, url, kind string) (string, error)
	FinishRun(ctx context.Context, runID string) error
	RecordItem(ctx context.Context, item store.Item) error
	RecordFile(ctx context.Context, file store.File) error
}

// NopRecorder discards everything. It is used when history is disabled.
type NopRecorder struct{}

func (NopRecorder) StartRun(context.Context, string, string) (string, error) { return "", nil }
func (NopRecorder) FinishRun(context.Context, string) error { return nil }
func (NopRecorder) RecordItem(context.Context, store.Item) error { return nil }
func (NopRecorder) RecordFile(context.Context, store.File) error { return nil }

var _ Recorder = (*store.Store)(nil)
