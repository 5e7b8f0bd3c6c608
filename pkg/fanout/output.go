package fanout

import (
	"bytes"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// DefaultTailLines is how many trailing output lines are kept per container.
const DefaultTailLines = 10

// maxLineBytes caps a partial line held while waiting for its newline.
const maxLineBytes = 64 * 1024

// outputLog is an io.Writer that logs each line an operation prints and
// keeps the last few lines for failure reporting.
type outputLog struct {
	mu      sync.Mutex
	log     logrus.FieldLogger
	partial []byte
	tail    []string
	limit   int
}

func newOutputLog(log logrus.FieldLogger, limit int) *outputLog {
	if limit <= 0 {
		limit = DefaultTailLines
	}
	return &outputLog{log: log, limit: limit}
}

func (w *outputLog) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.partial = append(w.partial, p...)
	for {
		i := bytes.IndexByte(w.partial, '\n')
		if i < 0 {
			break
		}
		w.emit(string(w.partial[:i]))
		w.partial = w.partial[i+1:]
	}
	if len(w.partial) > maxLineBytes {
		w.emit(string(w.partial))
		w.partial = nil
	}
	return len(p), nil
}

// Flush logs a trailing line that has no newline.
func (w *outputLog) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.partial) > 0 {
		w.emit(string(w.partial))
		w.partial = nil
	}
}

// Tail returns the last lines written, oldest first.
func (w *outputLog) Tail() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.tail...)
}

func (w *outputLog) emit(line string) {
	line = strings.TrimRight(line, "\r")
	if strings.TrimSpace(line) == "" {
		return
	}
	w.log.Info(line)
	w.tail = append(w.tail, line)
	if len(w.tail) > w.limit {
		w.tail = w.tail[len(w.tail)-w.limit:]
	}
}
