package log

import (
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"
)

// RawLogger records API frames exactly as they cross the wire.
type RawLogger interface {
	Log(in bool, remote string, data []byte)
}

type rawLogger struct {
	mu sync.Mutex
	w  io.Writer
}

// NewRaw returns a RawLogger writing to w. A nil w discards frames.
func NewRaw(w io.Writer) RawLogger {
	return &rawLogger{w: w}
}

// Log writes one line per frame. in is true for client to server frames.
func (r *rawLogger) Log(in bool, remote string, data []byte) {
	if r.w == nil || len(data) == 0 {
		return
	}
	dir := "<-"
	if in {
		dir = "->"
	}
	line := fmt.Sprintf("%s %s %s %d %s\n",
		time.Now().Format("15:04:05.000"), remote, dir, len(data), strconv.Quote(string(data)))

	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = io.WriteString(r.w, line)
}
