package core

import (
	"fmt"
	"iter"
)

// Triple is a single (subject, predicate, object) fact.
type Triple struct {
	Subject   Term
	Predicate Term
	Object    Term
}

// String renders the triple in N-Triples syntax (without the trailing dot).
func (t Triple) String() string {
	return fmt.Sprintf("%s %s %s", t.Subject, t.Predicate, t.Object)
}

// Compare orders triples lexicographically by subject, predicate, object.
func (t Triple) Compare(o Triple) int {
	if c := t.Subject.Compare(o.Subject); c != 0 {
		return c
	}
	if c := t.Predicate.Compare(o.Predicate); c != 0 {
		return c
	}
	return t.Object.Compare(o.Object)
}

// Graph is the read contract the path engine depends on. A nil pointer in
// any position is a wildcard. The returned sequence is lazy: elements are
// produced as the consumer advances, and stopping early is always safe.
//
// A failing backend yields a single element with a non-nil error, after
// which the sequence ends. The in-memory TripleStore never fails; network
// or disk backed implementations may.
type Graph interface {
	Match(subject, predicate, object *Term) iter.Seq2[Triple, error]
}
