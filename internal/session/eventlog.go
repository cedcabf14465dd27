package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/banshee-data/geoclaim/internal/monitoring"
)

// Level grades an event log entry.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

var levelNames = [...]string{"info", "success", "warning", "error"}

func (l Level) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return levelNames[l]
}

// MarshalText encodes the level by name.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// LogEntry is one line of the user-facing event log.
type LogEntry struct {
	Time    time.Time `json:"time"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
}

// EventLog is a bounded ring of leveled entries. Once full, each new entry
// overwrites the oldest.
type EventLog struct {
	mu      sync.Mutex
	entries []LogEntry
	next    int
	full    bool
}

// NewEventLog returns a log holding at most size entries. Non-positive
// sizes hold one entry.
func NewEventLog(size int) *EventLog {
	return &EventLog{entries: make([]LogEntry, max(size, 1))}
}

// Add records an entry and mirrors it to the diagnostic logger.
func (l *EventLog) Add(at time.Time, level Level, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	monitoring.Logf("[%s] %s", level, msg)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[l.next] = LogEntry{Time: at, Level: level, Message: msg}
	l.next = (l.next + 1) % len(l.entries)
	if l.next == 0 {
		l.full = true
	}
}

// Entries returns the retained entries, oldest first.
func (l *EventLog) Entries() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.full {
		out := make([]LogEntry, l.next)
		copy(out, l.entries[:l.next])
		return out
	}
	out := make([]LogEntry, 0, len(l.entries))
	out = append(out, l.entries[l.next:]...)
	return append(out, l.entries[:l.next]...)
}

// Len returns the number of retained entries.
func (l *EventLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.full {
		return len(l.entries)
	}
	return l.next
}
