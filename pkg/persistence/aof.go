package persistence

import (
	"bufio"
	"fmt"
	"os"
	"sync"
)

// AOFWriter appends framed records to the append-only file. Each appended
// payload becomes one CRC-checked frame, so replay can detect a torn tail
// or corruption.
type AOFWriter struct {
	mu     sync.Mutex
	file   *os.File
	buf    *bufio.Writer
	frames *FrameWriter
	path   string
}

// NewAOFWriter opens or creates the append-only file at path.
func NewAOFWriter(path string) (*AOFWriter, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open AOF file: %w", err)
	}

	buf := bufio.NewWriter(file)
	return &AOFWriter{
		file:   file,
		buf:    buf,
		frames: NewFrameWriter(buf),
		path:   path,
	}, nil
}

// Append writes one payload as a frame. The write lands in the in-process
// buffer; call Flush or Sync to push it further down.
func (a *AOFWriter) Append(payload []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.frames.WriteFrame(payload)
}

// Flush pushes buffered frames to the OS.
func (a *AOFWriter) Flush() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.buf.Flush()
}

// Sync flushes and then fsyncs the file.
func (a *AOFWriter) Sync() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.buf.Flush(); err != nil {
		return err
	}
	return a.file.Sync()
}

// Close flushes and closes the underlying file.
func (a *AOFWriter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.buf.Flush(); err != nil {
		_ = a.file.Close()
		return err
	}
	return a.file.Close()
}

// Truncate discards the file content. Used after a snapshot has captured
// the full state.
func (a *AOFWriter) Truncate() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.buf.Reset(a.file)
	if err := a.file.Truncate(0); err != nil {
		return err
	}
	_, err := a.file.Seek(0, 0)
	return err
}

// Path returns the file path.
func (a *AOFWriter) Path() string {
	return a.path
}

// Size reports the current on-disk size, flushing pending frames first so
// the figure matches what a replay would see.
func (a *AOFWriter) Size() (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.buf.Flush(); err != nil {
		return 0, err
	}
	info, err := a.file.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// ReplaceWith atomically swaps the log for the file at newFilePath and
// reopens it. Used at the end of a log rewrite.
func (a *AOFWriter) ReplaceWith(newFilePath string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	_ = a.buf.Flush()
	_ = a.file.Close()

	if err := os.Rename(newFilePath, a.path); err != nil {
		return fmt.Errorf("failed to replace AOF file: %w", err)
	}

	file, err := os.OpenFile(a.path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("failed to reopen AOF file after replace: %w", err)
	}
	a.file = file
	a.buf.Reset(file)
	return nil
}
