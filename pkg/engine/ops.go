// Operational methods of the Engine: triple mutations wrapped with AOF
// persistence, plus the read paths (pattern matching, path queries,
// analytics). Every modification is appended to the AOF before touching
// the in-memory state, so recovery never observes a write the log missed.
package engine

import (
	"fmt"
	"iter"
	"sync/atomic"
	"time"

	"github.com/sanonone/terndb/pkg/core"
	"github.com/sanonone/terndb/pkg/metrics"
	"github.com/sanonone/terndb/pkg/path"
	"github.com/sanonone/terndb/pkg/persistence"
)

// Assert adds a triple to the store. It reports whether the triple was
// newly added; asserting a triple that is already present is a no-op for
// the in-memory state but is still logged. The operation is persisted to
// the AOF.
func (e *Engine) Assert(t core.Triple) (bool, error) {
	cmd := persistence.FormatCommand("ASSERT",
		[]byte(t.Subject.String()),
		[]byte(t.Predicate.String()),
		[]byte(t.Object.String()),
	)
	if err := e.AOF.Append(cmd); err != nil {
		return false, fmt.Errorf("persistence error (AOF append failed): %w", err)
	}

	added := e.Store.Insert(t)

	if err := e.AOF.Flush(); err != nil {
		return added, fmt.Errorf("persistence flush failed: %w", err)
	}

	if added {
		metrics.TotalTriples.Set(float64(e.Store.Len()))
	}
	atomic.AddInt64(&e.dirtyCounter, 1)
	return added, nil
}

// Retract removes a triple from the store. It reports whether the triple
// was present. The operation is persisted to the AOF.
func (e *Engine) Retract(t core.Triple) (bool, error) {
	cmd := persistence.FormatCommand("RETRACT",
		[]byte(t.Subject.String()),
		[]byte(t.Predicate.String()),
		[]byte(t.Object.String()),
	)
	if err := e.AOF.Append(cmd); err != nil {
		return false, fmt.Errorf("persistence error (AOF append failed): %w", err)
	}

	existed := e.Store.Delete(t)

	if err := e.AOF.Flush(); err != nil {
		return existed, fmt.Errorf("persistence flush failed: %w", err)
	}

	if existed {
		metrics.TotalTriples.Set(float64(e.Store.Len()))
	}
	atomic.AddInt64(&e.dirtyCounter, 1)
	return existed, nil
}

// Match enumerates triples matching the pattern. Nil components are
// wildcards. The sequence is lazy and reads from a consistent snapshot of
// the store.
func (e *Engine) Match(subject, predicate, object *core.Term) iter.Seq2[core.Triple, error] {
	return e.Store.Match(subject, predicate, object)
}

// Contains reports whether the exact triple is stored.
func (e *Engine) Contains(t core.Triple) (bool, error) {
	for _, err := range e.Store.Match(&t.Subject, &t.Predicate, &t.Object) {
		if err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// EvalPath lazily evaluates a property path against the store. A nil
// subject or object is unbound. The result pairs are deduplicated;
// consuming only a prefix abandons the rest of the traversal.
func (e *Engine) EvalPath(p path.Path, subject, object *core.Term) iter.Seq2[path.Pair, error] {
	return path.Eval(e.Store, p, subject, object)
}

// PathQuery evaluates a property path and materializes up to limit result
// pairs (limit <= 0 means no limit). Intended for the network surfaces,
// which cannot stream lazy sequences.
func (e *Engine) PathQuery(p path.Path, subject, object *core.Term, limit int) ([]path.Pair, error) {
	start := time.Now()

	var pairs []path.Pair
	for pr, err := range path.Eval(e.Store, p, subject, object) {
		if err != nil {
			metrics.PathQueriesTotal.WithLabelValues("error").Inc()
			return nil, err
		}
		pairs = append(pairs, pr)
		if limit > 0 && len(pairs) >= limit {
			break
		}
	}

	metrics.PathQueriesTotal.WithLabelValues("ok").Inc()
	metrics.PathQueryDuration.Observe(time.Since(start).Seconds())
	return pairs, nil
}

// Len returns the number of stored triples.
func (e *Engine) Len() int {
	return e.Store.Len()
}

// Stats is a point-in-time view of the engine state.
type Stats struct {
	Triples        int   `json:"triples"`
	AofSizeBytes   int64 `json:"aof_size_bytes"`
	DirtySinceSave int64 `json:"dirty_since_save"`
}

// GetStats returns current engine statistics.
func (e *Engine) GetStats() Stats {
	s := Stats{
		Triples:        e.Store.Len(),
		DirtySinceSave: atomic.LoadInt64(&e.dirtyCounter),
	}
	if size, err := e.AOF.Size(); err == nil {
		s.AofSizeBytes = size
	}
	return s
}

// TopNodes ranks graph nodes by PageRank centrality and returns the top n.
func (e *Engine) TopNodes(n int) []core.NodeScore {
	return e.Store.TopNodes(n)
}
