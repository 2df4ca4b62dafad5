// Package activity keeps the per-desk operator log: an append-only,
// timestamped, in-memory record of actions and their outcomes. Entries live
// only for the current session; there is no eviction.
package activity

import (
	"fmt"
	"sync"
	"time"
)

type Entry struct {
	At      time.Time `json:"at"`
	Message string    `json:"message"`
}

func (e Entry) String() string {
	return fmt.Sprintf("[%s] %s", e.At.Format("15:04:05"), e.Message)
}

// Log is safe for concurrent use.
type Log struct {
	mu      sync.Mutex
	entries []Entry
	now     func() time.Time
}

func NewLog() *Log {
	return &Log{now: time.Now}
}

// Record appends a formatted entry stamped with the current time.
func (l *Log) Record(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, Entry{At: l.now(), Message: fmt.Sprintf(format, args...)})
}

// Entries returns a snapshot of the log in append order.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of recorded entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
