package aislog

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"sync"
)

// Writer appends framed binary records to a log file. It is used by the
// capture and generator tools; the replay path never writes.
type Writer struct {
	mu     sync.Mutex
	f      *os.File
	w      *bufio.Writer
	count  int
	closed bool
}

// Create opens a new binary log at path, truncating any existing file.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create log %s: %w", path, err)
	}
	return &Writer{f: f, w: bufio.NewWriter(f)}, nil
}

// Write appends one packet as a 12-byte header plus payload.
func (w *Writer) Write(p Packet) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("writer is closed")
	}

	var header [headerSize]byte
	binary.LittleEndian.PutUint32(header[0:], p.TimestampSec)
	binary.LittleEndian.PutUint32(header[4:], p.TimestampUsec)
	binary.LittleEndian.PutUint32(header[8:], uint32(len(p.Payload)))
	if _, err := w.w.Write(header[:]); err != nil {
		return fmt.Errorf("failed to write frame header: %w", err)
	}
	if _, err := w.w.Write(p.Payload); err != nil {
		return fmt.Errorf("failed to write frame payload: %w", err)
	}
	w.count++
	return nil
}

// Count returns the number of packets written so far.
func (w *Writer) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Close flushes buffered frames and closes the file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.w.Flush(); err != nil {
		w.f.Close()
		return fmt.Errorf("failed to flush log: %w", err)
	}
	return w.f.Close()
}
