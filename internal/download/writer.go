package download

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/sirupsen/logrus"

	ioutils "github.com/handiism/xchina-downloader/internal/io"
	"github.com/handiism/xchina-downloader/internal/model"
	"github.com/handiism/xchina-downloader/internal/store"
)

// fetched is a downloaded file waiting to be written.
type fetched struct {
	task model.DownloadTask
	data []byte
}

type writeStats struct {
	written int
	skipped int
	failed  int
}

// writeFiles drains ch, writing every file exclusively, until ch is closed.
// It is the only goroutine that touches the item directory after creation.
func (m *Manager) writeFiles(ctx context.Context, log logrus.FieldLogger, itemID string, ch <-chan fetched) writeStats {
	var stats writeStats
	for f := range ch {
		err := ioutils.WriteFileExclusive(ctx, f.task.Path, f.data)
		switch {
		case errors.Is(err, fs.ErrExist):
			stats.skipped++
			m.counters.filesSkipped.Add(1)
			log.WithField("path", f.task.Path).WithError(ErrDuplicate).Info("Skipping existing file")
		case err != nil:
			stats.failed++
			m.counters.filesFailed.Add(1)
			log.WithFields(logrus.Fields{"file": f.task.URL, "path": f.task.Path}).
				WithError(fmt.Errorf("%w: %w", ErrWrite, err)).Error("Failed to write file")
		default:
			stats.written++
			m.counters.filesDone.Add(1)
			log.WithFields(logrus.Fields{"file": f.task.URL, "path": f.task.Path, "bytes": len(f.data)}).Debug("Saved file")
			m.recordFile(ctx, itemID, f.task, int64(len(f.data)))
		}
	}
	return stats
}

func (m *Manager) recordFile(ctx context.Context, itemID string, task model.DownloadTask, size int64) {
	runID := m.currentRun()
	if runID == "" {
		return
	}
	err := m.recorder.RecordFile(context.WithoutCancel(ctx), store.File{
		RunID:   runID,
		ItemID:  itemID,
		URL:     task.URL,
		Path:    task.Path,
		Size:    size,
		SavedAt: time.Now(),
	})
	if err != nil {
		m.log.WithField("file", task.URL).WithError(err).Warn("Failed to record file")
	}
}
