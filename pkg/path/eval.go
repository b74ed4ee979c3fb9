// The path evaluator. Eval walks a path expression against a core.Graph
// and produces the (subject, object) pairs connected by it, as a lazy
// sequence: nothing is computed until the consumer advances, and stopping
// early abandons the rest of the traversal.
//
// Each variant is evaluated in one of four binding modes, depending on
// which endpoints are bound. Repetition runs a breadth-first traversal
// with a per-start visited set, which is what keeps the closure finite on
// cyclic graphs.
package path

import (
	"iter"

	"github.com/sanonone/terndb/pkg/core"
)

// Pair is a single evaluation result: an endpoint pair connected by the path.
type Pair struct {
	Subject core.Term
	Object  core.Term
}

// Eval evaluates p against g. A nil subject or object is unbound. The
// result sequence is lazy and deduplicated by pair; enumeration order is
// unspecified. A graph failure surfaces as a single terminal error, after
// which the sequence ends. Evaluation itself never fails: an unmatched
// path is an empty result.
//
// When both endpoints are bound the sequence yields at most the single
// pair (subject, object), and traversal stops as soon as it is found.
func Eval(g core.Graph, p Path, subj, obj *core.Term) iter.Seq2[Pair, error] {
	return func(yield func(Pair, error) bool) {
		if subj != nil && obj != nil {
			for pr, err := range evalPath(g, p, subj, obj) {
				if err != nil {
					yield(Pair{}, err)
					return
				}
				yield(pr, nil)
				return
			}
			return
		}

		seen := make(map[Pair]struct{})
		for pr, err := range evalPath(g, p, subj, obj) {
			if err != nil {
				yield(Pair{}, err)
				return
			}
			if _, dup := seen[pr]; dup {
				continue
			}
			seen[pr] = struct{}{}
			if !yield(pr, nil) {
				return
			}
		}
	}
}

// evalPath dispatches on the path variant. Inner sequences may yield
// duplicate pairs; Eval deduplicates at the top.
func evalPath(g core.Graph, p Path, subj, obj *core.Term) iter.Seq2[Pair, error] {
	switch v := p.(type) {
	case Predicate:
		return evalPredicate(g, v, subj, obj)
	case Inverse:
		return swapped(evalPath(g, v.Inner, obj, subj))
	case Sequence:
		return evalSequence(g, v.parts, subj, obj)
	case Alternative:
		return evalAlternative(g, v, subj, obj)
	case Negated:
		return evalNegated(g, v, subj, obj)
	case Repeat:
		return evalRepeat(g, v, subj, obj)
	default:
		// The union is closed; constructed values never reach this.
		return func(yield func(Pair, error) bool) {}
	}
}

func evalPredicate(g core.Graph, p Predicate, subj, obj *core.Term) iter.Seq2[Pair, error] {
	return func(yield func(Pair, error) bool) {
		pred := p.Term
		for t, err := range g.Match(subj, &pred, obj) {
			if err != nil {
				yield(Pair{}, err)
				return
			}
			if !yield(Pair{Subject: t.Subject, Object: t.Object}, nil) {
				return
			}
		}
	}
}

// swapped flips every pair of the underlying sequence.
func swapped(seq iter.Seq2[Pair, error]) iter.Seq2[Pair, error] {
	return func(yield func(Pair, error) bool) {
		for pr, err := range seq {
			if err != nil {
				yield(Pair{}, err)
				return
			}
			if !yield(Pair{Subject: pr.Object, Object: pr.Subject}, nil) {
				return
			}
		}
	}
}

func evalSequence(g core.Graph, parts []Path, subj, obj *core.Term) iter.Seq2[Pair, error] {
	if len(parts) == 1 {
		return evalPath(g, parts[0], subj, obj)
	}
	if subj == nil && obj != nil {
		// Traverse backward from the bound object: evaluate the inverted
		// sequence forward, then swap the pairs back.
		return swapped(evalPath(g, Invert(Sequence{parts: parts}), obj, nil))
	}
	return func(yield func(Pair, error) bool) {
		// Dedup intermediates per (start, node) so a node reached through
		// many routes expands the tail only once per start.
		seen := make(map[Pair]struct{})
		for first, err := range evalPath(g, parts[0], subj, nil) {
			if err != nil {
				yield(Pair{}, err)
				return
			}
			if _, dup := seen[first]; dup {
				continue
			}
			seen[first] = struct{}{}

			mid := first.Object
			for rest, err := range evalSequence(g, parts[1:], &mid, obj) {
				if err != nil {
					yield(Pair{}, err)
					return
				}
				// Only the full chain's endpoints are emitted, never the
				// intermediate pair.
				if !yield(Pair{Subject: first.Subject, Object: rest.Object}, nil) {
					return
				}
			}
		}
	}
}

func evalAlternative(g core.Graph, alt Alternative, subj, obj *core.Term) iter.Seq2[Pair, error] {
	return func(yield func(Pair, error) bool) {
		seen := make(map[Pair]struct{})
		for _, part := range alt.parts {
			for pr, err := range evalPath(g, part, subj, obj) {
				if err != nil {
					yield(Pair{}, err)
					return
				}
				if _, dup := seen[pr]; dup {
					continue
				}
				seen[pr] = struct{}{}
				if !yield(pr, nil) {
					return
				}
			}
		}
	}
}

func (n Negated) excludes(pred core.Term, inverse bool) bool {
	for _, s := range n.steps {
		if s.Inverse == inverse && s.Predicate.Compare(pred) == 0 {
			return true
		}
	}
	return false
}

// evalNegated matches single edges in either direction: a forward edge
// whose predicate is not excluded forward, or a backward edge whose
// predicate is not excluded inverted.
func evalNegated(g core.Graph, n Negated, subj, obj *core.Term) iter.Seq2[Pair, error] {
	return func(yield func(Pair, error) bool) {
		seen := make(map[Pair]struct{})

		for t, err := range g.Match(subj, nil, obj) {
			if err != nil {
				yield(Pair{}, err)
				return
			}
			if n.excludes(t.Predicate, false) {
				continue
			}
			pr := Pair{Subject: t.Subject, Object: t.Object}
			if _, dup := seen[pr]; dup {
				continue
			}
			seen[pr] = struct{}{}
			if !yield(pr, nil) {
				return
			}
		}

		// Backward: the pair's subject is the edge's object.
		for t, err := range g.Match(obj, nil, subj) {
			if err != nil {
				yield(Pair{}, err)
				return
			}
			if n.excludes(t.Predicate, true) {
				continue
			}
			pr := Pair{Subject: t.Object, Object: t.Subject}
			if _, dup := seen[pr]; dup {
				continue
			}
			seen[pr] = struct{}{}
			if !yield(pr, nil) {
				return
			}
		}
	}
}

func evalRepeat(g core.Graph, r Repeat, subj, obj *core.Term) iter.Seq2[Pair, error] {
	switch r.mod.kind {
	case modZeroOrOne:
		return func(yield func(Pair, error) bool) {
			seen := make(map[Pair]struct{})
			emit := func(pr Pair) bool {
				if _, dup := seen[pr]; dup {
					return true
				}
				seen[pr] = struct{}{}
				return yield(pr, nil)
			}
			for pr, err := range identityPairs(g, subj, obj, allStarts) {
				if err != nil {
					yield(Pair{}, err)
					return
				}
				if !emit(pr) {
					return
				}
			}
			for pr, err := range evalPath(g, r.inner, subj, obj) {
				if err != nil {
					yield(Pair{}, err)
					return
				}
				if !emit(pr) {
					return
				}
			}
		}

	case modExact:
		if r.mod.count == 0 {
			return identityPairs(g, subj, obj, subjectStarts)
		}
		parts := make([]Path, r.mod.count)
		for i := range parts {
			parts[i] = r.inner
		}
		return evalSequence(g, parts, subj, obj)

	default: // modZeroOrMore, modOneOrMore
		includeZero := r.mod.kind == modZeroOrMore
		switch {
		case subj != nil:
			return closureFrom(g, r.inner, *subj, obj, includeZero)
		case obj != nil:
			return swapped(closureFrom(g, Invert(r.inner), *obj, nil, includeZero))
		default:
			return func(yield func(Pair, error) bool) {
				for start, err := range startNodes(g, allStarts) {
					if err != nil {
						yield(Pair{}, err)
						return
					}
					for pr, err := range closureFrom(g, r.inner, start, nil, includeZero) {
						if err != nil {
							yield(Pair{}, err)
							return
						}
						if !yield(pr, nil) {
							return
						}
					}
				}
			}
		}
	}
}

// closureFrom runs the breadth-first reflexive/transitive closure of inner
// starting at start. The per-start visited set is what guarantees
// termination on cyclic graphs: a node is expanded at most once.
//
// When target is bound the traversal stops as soon as the target is
// reached; the closure is never enumerated past the first hit.
func closureFrom(g core.Graph, inner Path, start core.Term, target *core.Term, includeZero bool) iter.Seq2[Pair, error] {
	return func(yield func(Pair, error) bool) {
		emit := func(node core.Term) (cont bool) {
			if target != nil {
				if node.Compare(*target) != 0 {
					return true
				}
				yield(Pair{Subject: start, Object: node}, nil)
				return false // found: short-circuit the whole traversal
			}
			return yield(Pair{Subject: start, Object: node}, nil)
		}

		zeroEmitted := false
		if includeZero {
			zeroEmitted = true
			if !emit(start) {
				return
			}
		}

		visited := map[core.Term]struct{}{start: {}}
		frontier := []core.Term{start}
		for len(frontier) > 0 {
			var next []core.Term
			for _, node := range frontier {
				node := node
				for pr, err := range evalPath(g, inner, &node, nil) {
					if err != nil {
						yield(Pair{}, err)
						return
					}
					reached := pr.Object
					if reached.Compare(start) == 0 && !zeroEmitted {
						// A real cycle back to the start: under OneOrMore
						// the identity pair becomes derivable.
						zeroEmitted = true
						if !emit(start) {
							return
						}
						continue
					}
					if _, ok := visited[reached]; ok {
						continue
					}
					visited[reached] = struct{}{}
					if !emit(reached) {
						return
					}
					next = append(next, reached)
				}
			}
			frontier = next
		}
	}
}

// Start-node domains for zero-length matches and unbound closures.
type startDomain uint8

const (
	// subjectStarts enumerates nodes appearing as the subject of a triple.
	subjectStarts startDomain = iota
	// allStarts enumerates nodes appearing in subject or object position.
	allStarts
)

// identityPairs yields the zero-length matches (n, n). With a bound
// endpoint only that endpoint's identity is considered; when both are
// bound the pair matches iff they are the same node.
func identityPairs(g core.Graph, subj, obj *core.Term, domain startDomain) iter.Seq2[Pair, error] {
	return func(yield func(Pair, error) bool) {
		switch {
		case subj != nil && obj != nil:
			if subj.Compare(*obj) == 0 {
				yield(Pair{Subject: *subj, Object: *obj}, nil)
			}
		case subj != nil:
			yield(Pair{Subject: *subj, Object: *subj}, nil)
		case obj != nil:
			yield(Pair{Subject: *obj, Object: *obj}, nil)
		default:
			for node, err := range startNodes(g, domain) {
				if err != nil {
					yield(Pair{}, err)
					return
				}
				if !yield(Pair{Subject: node, Object: node}, nil) {
					return
				}
			}
		}
	}
}

// Optional fast paths implemented by core.TripleStore.
type subjectLister interface {
	Subjects() iter.Seq[core.Term]
}

type nodeLister interface {
	Nodes() iter.Seq[core.Term]
}

// startNodes enumerates the distinct candidate start nodes of a graph.
// It prefers the store's own enumeration when available and otherwise
// derives the set from a full pattern scan.
func startNodes(g core.Graph, domain startDomain) iter.Seq2[core.Term, error] {
	return func(yield func(core.Term, error) bool) {
		if domain == subjectStarts {
			if lister, ok := g.(subjectLister); ok {
				for node := range lister.Subjects() {
					if !yield(node, nil) {
						return
					}
				}
				return
			}
		} else {
			if lister, ok := g.(nodeLister); ok {
				for node := range lister.Nodes() {
					if !yield(node, nil) {
						return
					}
				}
				return
			}
		}

		seen := make(map[core.Term]struct{})
		for t, err := range g.Match(nil, nil, nil) {
			if err != nil {
				yield(core.Term{}, err)
				return
			}
			if _, ok := seen[t.Subject]; !ok {
				seen[t.Subject] = struct{}{}
				if !yield(t.Subject, nil) {
					return
				}
			}
			if domain == allStarts {
				if _, ok := seen[t.Object]; !ok {
					seen[t.Object] = struct{}{}
					if !yield(t.Object, nil) {
						return
					}
				}
			}
		}
	}
}
