package logio

import (
	"bytes"
	"sync"
)

// Writer is an io.Writer that logs every completed line through Logf. The
// dump tools use it to send token and node listings to the trace log.
type Writer struct {
	Logf func(string, ...interface{})

	mu  sync.Mutex
	buf bytes.Buffer
}

// Write buffers p and flushes the completed lines.
func (lw *Writer) Write(p []byte) (n int, err error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	lw.buf.Write(p)
	lw.flushLines(false)
	return len(p), nil
}

// Close flushes a trailing partial line.
func (lw *Writer) Close() error {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	lw.flushLines(true)
	return nil
}

func (lw *Writer) flushLines(all bool) {
	for lw.buf.Len() > 0 {
		i := bytes.IndexByte(lw.buf.Bytes(), '\n')
		switch {
		case i >= 0:
			lw.Logf("%s", lw.buf.Next(i))
			lw.buf.Next(1)
		case all:
			lw.Logf("%s", lw.buf.Next(lw.buf.Len()))
		default:
			return
		}
	}
}
