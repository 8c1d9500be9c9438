package cmdutil

import (
	"bytes"
	"io"
	"sync"
)

// lineWriter forwards writes to output and calls handler once per complete line.
type lineWriter struct {
	output  io.Writer
	handler OutputLineHandler
	buf     []byte
	mu      sync.Mutex
}

func (lw *lineWriter) Write(p []byte) (n int, err error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()

	n = len(p)
	if lw.output != nil {
		if n, err = lw.output.Write(p); err != nil {
			return n, err
		}
	}

	lw.buf = append(lw.buf, p...)
	for {
		idx := bytes.IndexByte(lw.buf, '\n')
		if idx < 0 {
			break
		}
		line := string(bytes.TrimRight(lw.buf[:idx], "\r"))
		lw.buf = lw.buf[idx+1:]
		lw.handler(line)
	}
	return n, nil
}

// Flush delivers any trailing partial line.
func (lw *lineWriter) Flush() {
	lw.mu.Lock()
	defer lw.mu.Unlock()

	if len(lw.buf) > 0 {
		lw.handler(string(lw.buf))
		lw.buf = nil
	}
}

// cappedBuffer keeps the first limit bytes written and drops the rest.
// Write always reports the full length as written.
type cappedBuffer struct {
	mu        sync.Mutex
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func (c *cappedBuffer) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if room := c.limit - c.buf.Len(); room < len(p) {
		c.truncated = true
		if room > 0 {
			c.buf.Write(p[:room])
		}
		return len(p), nil
	}
	c.buf.Write(p)
	return len(p), nil
}

// Bytes returns a copy of the captured data.
func (c *cappedBuffer) Bytes() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.buf.Bytes()...)
}
