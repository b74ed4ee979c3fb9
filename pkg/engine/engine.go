// Package engine provides the high-level, embedded interface to TernDB.
//
// It orchestrates the in-memory triple store and the on-disk persistence
// layer (AOF plus snapshots), providing a thread-safe database instance
// usable directly within Go applications without network overhead.
//
// Basic usage:
//
//	opts := engine.DefaultOptions("./data")
//	db, err := engine.Open(opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
package engine

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sanonone/terndb/pkg/core"
	"github.com/sanonone/terndb/pkg/metrics"
	"github.com/sanonone/terndb/pkg/persistence"
)

// Options configures the Engine: persistence paths and automatic
// maintenance policies.
type Options struct {
	// DataDir is the directory where .aof and .tdb files are stored.
	// It is created automatically if it does not exist.
	DataDir string

	// AofFilename is the name of the append-only file (default:
	// "terndb.aof"). The snapshot file is named <AofFilename base>.tdb.
	AofFilename string

	// AutoSaveInterval is how much time must pass since the last save
	// before a new snapshot is triggered (if AutoSaveThreshold is also
	// met). 0 disables time-based auto-saving.
	AutoSaveInterval time.Duration

	// AutoSaveThreshold is how many write operations must occur before a
	// new snapshot is triggered (if AutoSaveInterval is also met).
	// 0 disables count-based auto-saving.
	AutoSaveThreshold int64

	// AofRewritePercentage triggers an automatic AOF compaction when the
	// file grows past its base size by this percentage. E.g. 100 means
	// rewrite when the size doubles. 0 disables automatic rewriting.
	AofRewritePercentage int
}

// DefaultOptions returns a standard configuration suitable for most uses.
//
// Defaults:
//   - AofFilename: "terndb.aof"
//   - AutoSave: every 60s if at least 1000 changes occurred
//   - AofRewrite: at 100% growth
func DefaultOptions(dataDir string) Options {
	return Options{
		DataDir:              dataDir,
		AofFilename:          "terndb.aof",
		AutoSaveInterval:     60 * time.Second,
		AutoSaveThreshold:    1000,
		AofRewritePercentage: 100,
	}
}

// Engine is the main entry point for TernDB. It coordinates the in-memory
// store and the on-disk persistence.
//
// Use Open to initialize an Engine and Close to shut it down gracefully.
type Engine struct {
	// Store is the underlying in-memory triple store. While exported for
	// read access, mutations should go through Engine methods so they are
	// persisted to disk.
	Store *core.TripleStore

	// AOF is the append-only log, batched for write throughput. Appends
	// are buffered and flushed periodically, with a bounded crash-loss
	// window enforced by periodic fsync.
	AOF *persistence.LazyAOFWriter

	opts        Options
	aofPath     string
	snapPath    string
	aofBaseSize int64

	// dirtyCounter tracks write operations since the last save.
	dirtyCounter int64
	lastSaveTime time.Time

	// adminMu serializes administrative tasks (save, rewrite). Data access
	// relies on the store's own locking.
	adminMu sync.Mutex

	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Open initializes an Engine from the provided options.
//
// It creates DataDir if missing, loads the latest snapshot (.tdb) if one
// exists, replays the AOF to recover recent writes, and starts the
// background maintenance goroutine. It blocks until the database is fully
// loaded and ready.
func Open(opts Options) (*Engine, error) {
	if err := os.MkdirAll(opts.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if opts.AofFilename == "" {
		opts.AofFilename = "terndb.aof"
	}

	aofPath := filepath.Join(opts.DataDir, opts.AofFilename)
	snapPath := strings.TrimSuffix(aofPath, filepath.Ext(aofPath)) + ".tdb"

	e := &Engine{
		Store:        core.NewTripleStore(),
		opts:         opts,
		aofPath:      aofPath,
		snapPath:     snapPath,
		lastSaveTime: time.Now(),
		closed:       make(chan struct{}),
	}

	// 1. Load the snapshot if one exists.
	if _, err := os.Stat(snapPath); err == nil {
		f, err := os.Open(snapPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open snapshot: %w", err)
		}
		defer f.Close()
		if err := e.Store.Restore(f); err != nil {
			return nil, fmt.Errorf("failed to load snapshot: %w", err)
		}
	}

	// 2. Open the AOF with lazy batching.
	aofWriter, err := persistence.NewAOFWriter(aofPath)
	if err != nil {
		return nil, err
	}
	e.AOF = persistence.NewLazyAOFWriter(aofWriter)

	// 3. Replay the AOF to recover writes since the snapshot.
	if err := e.replayAOF(); err != nil {
		e.AOF.Close()
		return nil, fmt.Errorf("failed to replay AOF: %w", err)
	}

	metrics.TotalTriples.Set(float64(e.Store.Len()))

	// Base size for the rewrite growth policy.
	if size, err := e.AOF.Size(); err == nil {
		e.aofBaseSize = size
	}

	// 4. Background maintenance.
	e.wg.Add(1)
	go e.backgroundTasks()

	return e, nil
}

// Close performs a clean shutdown: it stops background maintenance and
// closes the AOF. It does not force a final snapshot; all writes are
// already durable in the AOF.
func (e *Engine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		close(e.closed)
		e.wg.Wait()

		if e.AOF != nil {
			err = e.AOF.Close()
		}
	})
	return err
}

func (e *Engine) backgroundTasks() {
	defer e.wg.Done()
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-e.closed:
			return
		case <-ticker.C:
			e.checkMaintenance()
		}
	}
}

// checkMaintenance evaluates whether a snapshot or AOF rewrite is due.
func (e *Engine) checkMaintenance() {
	dirty := atomic.LoadInt64(&e.dirtyCounter)

	if e.opts.AutoSaveThreshold > 0 && e.opts.AutoSaveInterval > 0 {
		if dirty >= e.opts.AutoSaveThreshold && time.Since(e.lastSaveTime) >= e.opts.AutoSaveInterval {
			if err := e.SaveSnapshot(); err != nil {
				slog.Error("background snapshot failed", "error", err)
			}
		}
	}

	if err := e.AOF.Flush(); err != nil {
		slog.Error("background AOF flush failed", "error", err)
	}

	if e.opts.AofRewritePercentage > 0 {
		currentSize, err := e.AOF.Size()
		if err == nil {
			threshold := e.aofBaseSize + (e.aofBaseSize * int64(e.opts.AofRewritePercentage) / 100)
			// Minimum threshold 1MB, so tiny files are not rewritten
			// constantly.
			if threshold < 1024*1024 {
				threshold = 1024 * 1024
			}

			if e.aofBaseSize > 0 && currentSize > threshold {
				if err := e.RewriteAOF(); err != nil {
					slog.Error("background AOF rewrite failed", "error", err)
				}
			}
		}
	}
}
