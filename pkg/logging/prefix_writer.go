// SPDX-License-Identifier: Apache-2.0
package logging

import (
	"bytes"
	"io"
	"sync"
)

// PrefixWriter wraps an io.Writer and adds a prefix to each line.
type PrefixWriter struct {
	mu     sync.Mutex
	prefix []byte
	writer io.Writer
	buffer bytes.Buffer
}

// NewPrefixWriter creates a new PrefixWriter.
func NewPrefixWriter(prefix string, w io.Writer) *PrefixWriter {
	return &PrefixWriter{
		prefix: []byte(prefix),
		writer: w,
	}
}

// Write buffers data until a newline is seen, then writes each complete
// line to the underlying writer behind the prefix.
func (pw *PrefixWriter) Write(p []byte) (int, error) {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	pw.buffer.Write(p)
	for {
		i := bytes.IndexByte(pw.buffer.Bytes(), '\n')
		if i < 0 {
			break
		}
		if err := pw.emit(pw.buffer.Next(i + 1)); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

// Flush writes any partial line still buffered.
func (pw *PrefixWriter) Flush() error {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	if pw.buffer.Len() == 0 {
		return nil
	}
	line := append(pw.buffer.Next(pw.buffer.Len()), '\n')
	return pw.emit(line)
}

func (pw *PrefixWriter) emit(line []byte) error {
	out := make([]byte, 0, len(pw.prefix)+len(line))
	out = append(out, pw.prefix...)
	out = append(out, line...)
	_, err := pw.writer.Write(out)
	return err
}
