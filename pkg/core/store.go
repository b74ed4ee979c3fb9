// This file implements the thread-safe, in-memory triple store. It keeps
// three ordered B-tree indexes (SPO, POS, OSP) so that any triple pattern
// can be answered with a range scan on the index whose prefix is bound.
package core

import (
	"iter"
	"sync"

	"github.com/tidwall/btree"
)

// Index permutations. The less functions order triples so that the bound
// prefix of a pattern is contiguous in the tree.
func lessSPO(a, b Triple) bool { return a.Compare(b) < 0 }

func lessPOS(a, b Triple) bool {
	if c := a.Predicate.Compare(b.Predicate); c != 0 {
		return c < 0
	}
	if c := a.Object.Compare(b.Object); c != 0 {
		return c < 0
	}
	return a.Subject.Compare(b.Subject) < 0
}

func lessOSP(a, b Triple) bool {
	if c := a.Object.Compare(b.Object); c != 0 {
		return c < 0
	}
	if c := a.Subject.Compare(b.Subject); c != 0 {
		return c < 0
	}
	return a.Predicate.Compare(b.Predicate) < 0
}

// TripleStore is a thread-safe, in-memory triple store implementing Graph.
//
// Writers take the exclusive lock and update all three indexes. Readers take
// an O(1) copy-on-write snapshot of the relevant index under the read lock
// and then iterate lock-free, so a lazy Match sequence stays valid (and
// consistent) even if the store is mutated while the consumer advances.
type TripleStore struct {
	mu   sync.RWMutex
	spo  *btree.BTreeG[Triple]
	pos  *btree.BTreeG[Triple]
	osp  *btree.BTreeG[Triple]
	size int
}

// NewTripleStore creates an empty TripleStore.
func NewTripleStore() *TripleStore {
	return &TripleStore{
		spo: btree.NewBTreeG(lessSPO),
		pos: btree.NewBTreeG(lessPOS),
		osp: btree.NewBTreeG(lessOSP),
	}
}

// Insert adds a triple. It returns false if the triple was already present.
func (s *TripleStore) Insert(t Triple) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, existed := s.spo.Set(t); existed {
		return false
	}
	s.pos.Set(t)
	s.osp.Set(t)
	s.size++
	return true
}

// Delete removes a triple. It returns false if the triple was not present.
func (s *TripleStore) Delete(t Triple) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, existed := s.spo.Delete(t); !existed {
		return false
	}
	s.pos.Delete(t)
	s.osp.Delete(t)
	s.size--
	return true
}

// Len returns the number of triples in the store.
func (s *TripleStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

// Match returns a lazy sequence of triples matching the pattern. A nil
// pointer in any position is a wildcard. The in-memory store never yields
// an error.
func (s *TripleStore) Match(subject, predicate, object *Term) iter.Seq2[Triple, error] {
	return func(yield func(Triple, error) bool) {
		tree, pivot, keep := s.plan(subject, predicate, object)
		tree.Ascend(pivot, func(t Triple) bool {
			ok, done := keep(t)
			if done {
				return false
			}
			if !ok {
				return true
			}
			return yield(t, nil)
		})
	}
}

// plan picks the index whose sort order makes the bound positions a
// contiguous prefix, and returns a snapshot of it together with the scan
// pivot and a predicate deciding, for each visited triple, whether it
// matches (ok) and whether the scan has left the prefix range (done).
func (s *TripleStore) plan(subject, predicate, object *Term) (*btree.BTreeG[Triple], Triple, func(Triple) (ok, done bool)) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	match := func(t Triple) bool {
		if subject != nil && t.Subject.Compare(*subject) != 0 {
			return false
		}
		if predicate != nil && t.Predicate.Compare(*predicate) != 0 {
			return false
		}
		if object != nil && t.Object.Compare(*object) != 0 {
			return false
		}
		return true
	}

	switch {
	case subject != nil:
		pivot := Triple{Subject: *subject}
		if predicate != nil {
			pivot.Predicate = *predicate
		}
		return s.spo.Copy(), pivot, func(t Triple) (bool, bool) {
			if t.Subject.Compare(*subject) != 0 {
				return false, true
			}
			if predicate != nil && t.Predicate.Compare(*predicate) != 0 {
				// Predicate ordering is contiguous under a fixed subject.
				return false, t.Predicate.Compare(*predicate) > 0
			}
			return match(t), false
		}
	case predicate != nil:
		pivot := Triple{Predicate: *predicate}
		if object != nil {
			pivot.Object = *object
		}
		return s.pos.Copy(), pivot, func(t Triple) (bool, bool) {
			if t.Predicate.Compare(*predicate) != 0 {
				return false, true
			}
			if object != nil && t.Object.Compare(*object) != 0 {
				return false, t.Object.Compare(*object) > 0
			}
			return true, false
		}
	case object != nil:
		return s.osp.Copy(), Triple{Object: *object}, func(t Triple) (bool, bool) {
			if t.Object.Compare(*object) != 0 {
				return false, true
			}
			return true, false
		}
	default:
		return s.spo.Copy(), Triple{}, func(t Triple) (bool, bool) {
			return true, false
		}
	}
}

// Subjects returns the distinct subject terms, in index order.
func (s *TripleStore) Subjects() iter.Seq[Term] {
	s.mu.RLock()
	tree := s.spo.Copy()
	s.mu.RUnlock()

	return func(yield func(Term) bool) {
		var last Term
		first := true
		tree.Ascend(Triple{}, func(t Triple) bool {
			if !first && t.Subject.Compare(last) == 0 {
				return true
			}
			first = false
			last = t.Subject
			return yield(t.Subject)
		})
	}
}

// Nodes returns every distinct term appearing as a subject or object.
func (s *TripleStore) Nodes() iter.Seq[Term] {
	s.mu.RLock()
	spo := s.spo.Copy()
	osp := s.osp.Copy()
	s.mu.RUnlock()

	return func(yield func(Term) bool) {
		seen := make(map[Term]struct{})
		stopped := false
		spo.Ascend(Triple{}, func(t Triple) bool {
			if _, ok := seen[t.Subject]; ok {
				return true
			}
			seen[t.Subject] = struct{}{}
			if !yield(t.Subject) {
				stopped = true
				return false
			}
			return true
		})
		if stopped {
			return
		}
		osp.Ascend(Triple{}, func(t Triple) bool {
			if _, ok := seen[t.Object]; ok {
				return true
			}
			seen[t.Object] = struct{}{}
			return yield(t.Object)
		})
	}
}

// Predicates returns the distinct predicate terms, in index order.
func (s *TripleStore) Predicates() iter.Seq[Term] {
	s.mu.RLock()
	tree := s.pos.Copy()
	s.mu.RUnlock()

	return func(yield func(Term) bool) {
		var last Term
		first := true
		tree.Ascend(Triple{}, func(t Triple) bool {
			if !first && t.Predicate.Compare(last) == 0 {
				return true
			}
			first = false
			last = t.Predicate
			return yield(t.Predicate)
		})
	}
}
