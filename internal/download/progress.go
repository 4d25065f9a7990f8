package download

import "sync/atomic"

// Progress is a snapshot of the counters of the current run.
type Progress struct {
	ItemsTotal  int64 `yaml:"items_total" json:"items_total"`
	ItemsDone   int64 `yaml:"items_done" json:"items_done"`
	ItemsFailed int64 `yaml:"items_failed" json:"items_failed"`

	FilesScheduled int64 `yaml:"files_scheduled" json:"files_scheduled"`
	FilesDone      int64 `yaml:"files_done" json:"files_done"`
	FilesSkipped   int64 `yaml:"files_skipped" json:"files_skipped"`
	FilesFailed    int64 `yaml:"files_failed" json:"files_failed"`

	Bytes int64 `yaml:"bytes" json:"bytes"`
}

// FilesFinished counts files that reached a final state.
func (p Progress) FilesFinished() int64 {
	return p.FilesDone + p.FilesSkipped + p.FilesFailed
}

// Ratio is FilesFinished over FilesScheduled, in [0, 1].
func (p Progress) Ratio() float64 {
	if p.FilesScheduled == 0 {
		return 0
	}
	return min(float64(p.FilesFinished())/float64(p.FilesScheduled), 1)
}

type counters struct {
	itemsTotal  atomic.Int64
	itemsDone   atomic.Int64
	itemsFailed atomic.Int64

	filesScheduled atomic.Int64
	filesDone      atomic.Int64
	filesSkipped   atomic.Int64
	filesFailed    atomic.Int64

	bytes atomic.Int64
}

func (c *counters) snapshot() Progress {
	return Progress{
		ItemsTotal:     c.itemsTotal.Load(),
		ItemsDone:      c.itemsDone.Load(),
		ItemsFailed:    c.itemsFailed.Load(),
		FilesScheduled: c.filesScheduled.Load(),
		FilesDone:      c.filesDone.Load(),
		FilesSkipped:   c.filesSkipped.Load(),
		FilesFailed:    c.filesFailed.Load(),
		Bytes:          c.bytes.Load(),
	}
}

func (c *counters) reset() {
	for _, v := range []*atomic.Int64{
		&c.itemsTotal, &c.itemsDone, &c.itemsFailed,
		&c.filesScheduled, &c.filesDone, &c.filesSkipped, &c.filesFailed,
		&c.bytes,
	} {
		v.Store(0)
	}
}
