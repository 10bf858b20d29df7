package audit

import (
	"encoding/json"
	"io"
	"os"
	"sync"
)

// Logger mirrors audit entries to a writer as JSON lines, for
// shipping the trail off-process alongside the in-memory chain.
type Logger struct {
	mu     sync.Mutex
	writer io.Writer
}

// NewLogger creates a Logger writing to os.Stdout.
func NewLogger() *Logger {
	return NewLoggerWithWriter(os.Stdout)
}

// NewLoggerWithWriter creates a Logger writing to w. Injection point
// for tests and custom sinks.
func NewLoggerWithWriter(w io.Writer) *Logger {
	if w == nil {
		w = os.Stdout
	}
	return &Logger{writer: w}
}

// Handle writes one entry as a JSON line. Shaped to be registered
// directly via Store.OnAppend.
func (l *Logger) Handle(entry *Entry) {
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.writer.Write(append(data, '\n'))
}
