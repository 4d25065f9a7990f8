package logger

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Entry is a captured log line.
type Entry struct {
	Time    time.Time
	Level   logrus.Level
	Message string
	Fields  logrus.Fields
}

// RingHook keeps the most recent log entries in memory.
type RingHook struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	full    bool
}

// NewRingHook creates a hook holding up to capacity entries.
func NewRingHook(capacity int) *RingHook {
	return &RingHook{entries: make([]Entry, max(capacity, 1))}
}

// Levels implements logrus.Hook.
func (h *RingHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire implements logrus.Hook.
func (h *RingHook) Fire(e *logrus.Entry) error {
	fields := make(logrus.Fields, len(e.Data))
	for k, v := range e.Data {
		fields[k] = v
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries[h.next] = Entry{Time: e.Time, Level: e.Level, Message: e.Message, Fields: fields}
	h.next = (h.next + 1) % len(h.entries)
	if h.next == 0 {
		h.full = true
	}
	return nil
}

// Entries returns the captured entries, oldest first.
func (h *RingHook) Entries() []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.full {
		return append([]Entry(nil), h.entries[:h.next]...)
	}
	out := make([]Entry, 0, len(h.entries))
	out = append(out, h.entries[h.next:]...)
	return append(out, h.entries[:h.next]...)
}
