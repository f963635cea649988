// Package memory provides a LoggerInstance that records entries in memory.
// It is meant for tests that assert a condition was logged instead of raised.
package memory

import (
	"strings"
	"sync"
)

// Entry is a single recorded log call.
type Entry struct {
	Level   string
	Message string
	Keyvals []any
}

// MemoryLogger records every call it receives.
type MemoryLogger struct {
	mu      sync.Mutex
	entries []Entry
}

func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{}
}

func (m *MemoryLogger) record(level, message string, keyvals []any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, Entry{Level: level, Message: message, Keyvals: keyvals})
}

func (m *MemoryLogger) Log(message string, keyvals ...any)   { m.record("log", message, keyvals) }
func (m *MemoryLogger) Debug(message string, keyvals ...any) { m.record("debug", message, keyvals) }
func (m *MemoryLogger) Info(message string, keyvals ...any)  { m.record("info", message, keyvals) }
func (m *MemoryLogger) Warn(message string, keyvals ...any)  { m.record("warn", message, keyvals) }
func (m *MemoryLogger) Error(message string, keyvals ...any) { m.record("error", message, keyvals) }
func (m *MemoryLogger) Fatal(message string, keyvals ...any) { m.record("fatal", message, keyvals) }

// Entries returns a copy of everything recorded so far.
func (m *MemoryLogger) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Contains reports whether any entry at level has a message containing substr.
// An empty level matches every level.
func (m *MemoryLogger) Contains(level, substr string) bool {
	for _, e := range m.Entries() {
		if level != "" && e.Level != level {
			continue
		}
		if strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}
