package persistence

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// LazyAOFWriter batches appends to the append-only file. Payloads queue in
// memory and flush on a timer or when the queue fills, instead of on every
// append. A separate timer fsyncs the file so the crash-loss window stays
// bounded by ForceSyncInterval.
//
// Durability: on Close all pending payloads are flushed and synced; in a
// crash the loss window is at most one sync interval of appends.
type LazyAOFWriter struct {
	underlying *AOFWriter

	mu      sync.Mutex
	pending [][]byte
	stopped bool

	flushTicker *time.Ticker
	syncTicker  *time.Ticker
	stopCh      chan struct{}

	flushInterval     time.Duration
	forceSyncInterval time.Duration
	maxPending        int
}

const (
	// DefaultLazyFlushInterval is how often queued payloads move to the OS.
	DefaultLazyFlushInterval = 100 * time.Millisecond

	// DefaultForceSyncInterval is how often the file is fsynced.
	DefaultForceSyncInterval = 1 * time.Second

	// DefaultMaxPending is the queue length that triggers an early flush.
	DefaultMaxPending = 1000
)

// NewLazyAOFWriter wraps an AOFWriter with the default batching
// configuration. The underlying writer should not be used directly after
// wrapping.
func NewLazyAOFWriter(underlying *AOFWriter) *LazyAOFWriter {
	return NewLazyAOFWriterWithConfig(
		underlying,
		DefaultLazyFlushInterval,
		DefaultForceSyncInterval,
		DefaultMaxPending,
	)
}

// NewLazyAOFWriterWithConfig wraps an AOFWriter with explicit batching
// parameters, for tuning the durability versus throughput trade-off.
func NewLazyAOFWriterWithConfig(
	underlying *AOFWriter,
	flushInterval time.Duration,
	forceSyncInterval time.Duration,
	maxPending int,
) *LazyAOFWriter {
	lw := &LazyAOFWriter{
		underlying:        underlying,
		pending:           make([][]byte, 0, maxPending),
		flushInterval:     flushInterval,
		forceSyncInterval: forceSyncInterval,
		maxPending:        maxPending,
		stopCh:            make(chan struct{}),
	}

	lw.flushTicker = time.NewTicker(flushInterval)
	go lw.flushRoutine()

	lw.syncTicker = time.NewTicker(forceSyncInterval)
	go lw.syncRoutine()

	slog.Debug("lazy AOF writer initialized",
		"flush_interval", flushInterval,
		"sync_interval", forceSyncInterval,
		"max_pending", maxPending,
	)

	return lw
}

// Append queues one payload for the next flush. It returns immediately;
// the disk write happens in the background. A full queue triggers an
// asynchronous flush.
func (lw *LazyAOFWriter) Append(payload []byte) error {
	lw.mu.Lock()
	defer lw.mu.Unlock()

	if lw.stopped {
		return fmt.Errorf("cannot append to closed LazyAOFWriter")
	}

	lw.pending = append(lw.pending, payload)
	if len(lw.pending) >= lw.maxPending {
		go lw.Flush()
	}

	return nil
}

// Flush writes every queued payload through to the OS buffer. It blocks
// until done; use Sync to also reach the disk.
func (lw *LazyAOFWriter) Flush() error {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.flushLocked()
}

// flushLocked drains the queue. Caller holds the mutex.
func (lw *LazyAOFWriter) flushLocked() error {
	if len(lw.pending) == 0 {
		return nil
	}

	for _, payload := range lw.pending {
		if err := lw.underlying.Append(payload); err != nil {
			return fmt.Errorf("failed to append to AOF: %w", err)
		}
	}
	if err := lw.underlying.Flush(); err != nil {
		return fmt.Errorf("failed to flush AOF buffer: %w", err)
	}

	lw.pending = lw.pending[:0]
	return nil
}

// Sync flushes the queue and fsyncs the file.
func (lw *LazyAOFWriter) Sync() error {
	lw.mu.Lock()
	defer lw.mu.Unlock()

	if err := lw.flushLocked(); err != nil {
		return err
	}
	return lw.underlying.Sync()
}

// Close stops the background routines, drains the queue and closes the
// file. Further appends fail.
func (lw *LazyAOFWriter) Close() error {
	lw.mu.Lock()
	if lw.stopped {
		lw.mu.Unlock()
		return fmt.Errorf("LazyAOFWriter already closed")
	}
	lw.stopped = true
	lw.mu.Unlock()

	close(lw.stopCh)
	lw.flushTicker.Stop()
	lw.syncTicker.Stop()

	lw.mu.Lock()
	defer lw.mu.Unlock()

	if err := lw.flushLocked(); err != nil {
		slog.Error("failed to flush during close", "error", err)
		// Still close the file so the descriptor is released.
	}
	return lw.underlying.Close()
}

// Path returns the underlying file path.
func (lw *LazyAOFWriter) Path() string {
	return lw.underlying.Path()
}

// Size reports the on-disk size after draining the queue.
func (lw *LazyAOFWriter) Size() (int64, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()

	if err := lw.flushLocked(); err != nil {
		return 0, err
	}
	return lw.underlying.Size()
}

// Truncate drains the queue and then discards the file content.
func (lw *LazyAOFWriter) Truncate() error {
	lw.mu.Lock()
	defer lw.mu.Unlock()

	if err := lw.flushLocked(); err != nil {
		return err
	}
	return lw.underlying.Truncate()
}

// ReplaceWith drains the queue and swaps the log file atomically.
func (lw *LazyAOFWriter) ReplaceWith(newFilePath string) error {
	lw.mu.Lock()
	defer lw.mu.Unlock()

	if err := lw.flushLocked(); err != nil {
		return err
	}
	return lw.underlying.ReplaceWith(newFilePath)
}

func (lw *LazyAOFWriter) flushRoutine() {
	for {
		select {
		case <-lw.flushTicker.C:
			if err := lw.Flush(); err != nil {
				slog.Error("periodic AOF flush failed", "error", err)
			}
		case <-lw.stopCh:
			return
		}
	}
}

func (lw *LazyAOFWriter) syncRoutine() {
	for {
		select {
		case <-lw.syncTicker.C:
			if err := lw.Sync(); err != nil {
				slog.Error("periodic AOF sync failed", "error", err)
			}
		case <-lw.stopCh:
			return
		}
	}
}
