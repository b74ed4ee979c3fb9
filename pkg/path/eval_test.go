package path

import (
	"errors"
	"iter"
	"sort"
	"testing"

	"github.com/sanonone/terndb/pkg/core"
)

func node(name string) core.Term {
	return core.IRI("http://example.org/" + name)
}

func storeOf(t *testing.T, triples ...core.Triple) *core.TripleStore {
	t.Helper()
	s := core.NewTripleStore()
	for _, tr := range triples {
		s.Insert(tr)
	}
	return s
}

func edge(s, p, o string) core.Triple {
	return core.Triple{Subject: node(s), Predicate: node(p), Object: node(o)}
}

// pairSet drains an evaluation into a comparable set, failing on any error.
func pairSet(t *testing.T, seq iter.Seq2[Pair, error]) map[Pair]struct{} {
	t.Helper()
	got := make(map[Pair]struct{})
	for pr, err := range seq {
		if err != nil {
			t.Fatalf("unexpected evaluation error: %v", err)
		}
		if _, dup := got[pr]; dup {
			t.Errorf("duplicate pair %v/%v", pr.Subject, pr.Object)
		}
		got[pr] = struct{}{}
	}
	return got
}

func wantPairs(pairs ...[2]string) map[Pair]struct{} {
	want := make(map[Pair]struct{}, len(pairs))
	for _, p := range pairs {
		want[Pair{Subject: node(p[0]), Object: node(p[1])}] = struct{}{}
	}
	return want
}

func assertPairs(t *testing.T, got, want map[Pair]struct{}) {
	t.Helper()
	if len(got) != len(want) {
		t.Errorf("expected %d pairs, got %d: %v", len(want), len(got), keys(got))
	}
	for pr := range want {
		if _, ok := got[pr]; !ok {
			t.Errorf("missing pair (%v, %v)", pr.Subject, pr.Object)
		}
	}
}

func keys(m map[Pair]struct{}) []string {
	var out []string
	for pr := range m {
		out = append(out, pr.Subject.Value+"->"+pr.Object.Value)
	}
	sort.Strings(out)
	return out
}

func TestEvalPredicate(t *testing.T) {
	g := storeOf(t, edge("a", "p", "b"), edge("a", "p", "c"), edge("x", "q", "y"))
	p := pred("p")
	a, b := node("a"), node("b")

	t.Run("unbound", func(t *testing.T) {
		assertPairs(t, pairSet(t, Eval(g, p, nil, nil)), wantPairs([2]string{"a", "b"}, [2]string{"a", "c"}))
	})
	t.Run("subject bound", func(t *testing.T) {
		assertPairs(t, pairSet(t, Eval(g, p, &a, nil)), wantPairs([2]string{"a", "b"}, [2]string{"a", "c"}))
	})
	t.Run("object bound", func(t *testing.T) {
		assertPairs(t, pairSet(t, Eval(g, p, nil, &b)), wantPairs([2]string{"a", "b"}))
	})
	t.Run("both bound", func(t *testing.T) {
		assertPairs(t, pairSet(t, Eval(g, p, &a, &b)), wantPairs([2]string{"a", "b"}))
	})
	t.Run("both bound no match", func(t *testing.T) {
		x := node("x")
		assertPairs(t, pairSet(t, Eval(g, p, &x, &b)), wantPairs())
	})
}

func TestEvalInverse(t *testing.T) {
	g := storeOf(t, edge("a", "p", "b"))
	inv := Invert(pred("p"))
	b := node("b")

	assertPairs(t, pairSet(t, Eval(g, inv, nil, nil)), wantPairs([2]string{"b", "a"}))
	assertPairs(t, pairSet(t, Eval(g, inv, &b, nil)), wantPairs([2]string{"b", "a"}))
}

func TestEvalSequence(t *testing.T) {
	g := storeOf(t, edge("a", "p", "b"), edge("b", "q", "c"))
	seq := mustSeq(t, pred("p"), pred("q"))

	t.Run("only full chain endpoints", func(t *testing.T) {
		assertPairs(t, pairSet(t, Eval(g, seq, nil, nil)), wantPairs([2]string{"a", "c"}))
	})

	t.Run("object bound traverses backward", func(t *testing.T) {
		c := node("c")
		assertPairs(t, pairSet(t, Eval(g, seq, nil, &c)), wantPairs([2]string{"a", "c"}))
	})

	t.Run("broken chain is empty", func(t *testing.T) {
		g := storeOf(t, edge("a", "p", "b"))
		assertPairs(t, pairSet(t, Eval(g, seq, nil, nil)), wantPairs())
	})

	t.Run("diamond yields one pair", func(t *testing.T) {
		g := storeOf(t,
			edge("a", "p", "b1"), edge("a", "p", "b2"),
			edge("b1", "q", "c"), edge("b2", "q", "c"))
		assertPairs(t, pairSet(t, Eval(g, seq, nil, nil)), wantPairs([2]string{"a", "c"}))
	})
}

func TestEvalAlternative(t *testing.T) {
	g := storeOf(t, edge("a", "p", "b"), edge("a", "q", "b"), edge("a", "q", "c"))
	alt := mustAlt(t, pred("p"), pred("q"))

	// (a, b) is reachable through both members but appears once.
	assertPairs(t, pairSet(t, Eval(g, alt, nil, nil)),
		wantPairs([2]string{"a", "b"}, [2]string{"a", "c"}))
}

func TestEvalNegated(t *testing.T) {
	g := storeOf(t, edge("a", "p", "b"), edge("a", "q", "c"), edge("d", "r", "a"))
	a := node("a")

	t.Run("forward exclusion", func(t *testing.T) {
		n := mustNegate(t, pred("p"))
		// From a: the q edge survives forward, and the r edge from d is
		// traversed backward because only forward p is excluded.
		assertPairs(t, pairSet(t, Eval(g, n, &a, nil)),
			wantPairs([2]string{"a", "c"}, [2]string{"a", "d"}))
	})

	t.Run("inverse exclusion", func(t *testing.T) {
		n := mustNegate(t, mustAlt(t, pred("p"), pred("q"), Invert(pred("r"))))
		assertPairs(t, pairSet(t, Eval(g, n, &a, nil)), wantPairs())
	})

	t.Run("unbound", func(t *testing.T) {
		n := mustNegate(t, mustAlt(t, pred("q"), pred("r")))
		assertPairs(t, pairSet(t, Eval(g, n, nil, nil)), wantPairs(
			[2]string{"a", "b"}, // forward p
			[2]string{"b", "a"}, // backward p, ^p not excluded
			[2]string{"c", "a"}, // backward q
			[2]string{"a", "d"}, // backward r
		))
	})
}

func TestEvalZeroOrMore(t *testing.T) {
	star := mustRepeat(t, pred("p"), ZeroOrMore)

	t.Run("two node cycle terminates", func(t *testing.T) {
		g := storeOf(t, edge("a", "p", "b"), edge("b", "p", "a"))
		a := node("a")
		assertPairs(t, pairSet(t, Eval(g, star, &a, nil)),
			wantPairs([2]string{"a", "a"}, [2]string{"a", "b"}))
	})

	t.Run("self loop terminates", func(t *testing.T) {
		g := storeOf(t, edge("a", "p", "a"))
		a := node("a")
		assertPairs(t, pairSet(t, Eval(g, star, &a, nil)), wantPairs([2]string{"a", "a"}))
	})

	t.Run("chain closure", func(t *testing.T) {
		g := storeOf(t, edge("a", "p", "b"), edge("b", "p", "c"))
		a := node("a")
		assertPairs(t, pairSet(t, Eval(g, star, &a, nil)),
			wantPairs([2]string{"a", "a"}, [2]string{"a", "b"}, [2]string{"a", "c"}))
	})

	t.Run("object bound", func(t *testing.T) {
		g := storeOf(t, edge("a", "p", "b"), edge("b", "p", "c"))
		c := node("c")
		assertPairs(t, pairSet(t, Eval(g, star, nil, &c)),
			wantPairs([2]string{"a", "c"}, [2]string{"b", "c"}, [2]string{"c", "c"}))
	})

	t.Run("both bound short circuits", func(t *testing.T) {
		g := storeOf(t, edge("a", "p", "b"), edge("b", "p", "c"))
		a, c := node("a"), node("c")
		assertPairs(t, pairSet(t, Eval(g, star, &a, &c)), wantPairs([2]string{"a", "c"}))
	})

	t.Run("identity holds for isolated bound node", func(t *testing.T) {
		g := storeOf(t, edge("a", "p", "b"))
		z := node("z")
		assertPairs(t, pairSet(t, Eval(g, star, &z, nil)), wantPairs([2]string{"z", "z"}))
	})
}

func TestEvalOneOrMore(t *testing.T) {
	plus := mustRepeat(t, pred("p"), OneOrMore)

	t.Run("no identity without cycle", func(t *testing.T) {
		g := storeOf(t, edge("a", "p", "b"))
		a := node("a")
		assertPairs(t, pairSet(t, Eval(g, plus, &a, nil)), wantPairs([2]string{"a", "b"}))
	})

	t.Run("cycle makes identity derivable", func(t *testing.T) {
		g := storeOf(t, edge("a", "p", "b"), edge("b", "p", "a"))
		a := node("a")
		assertPairs(t, pairSet(t, Eval(g, plus, &a, nil)),
			wantPairs([2]string{"a", "a"}, [2]string{"a", "b"}))
	})
}

func TestEvalZeroOrOne(t *testing.T) {
	opt := mustRepeat(t, pred("p"), ZeroOrOne)
	g := storeOf(t, edge("a", "p", "b"))

	t.Run("subject bound", func(t *testing.T) {
		a := node("a")
		assertPairs(t, pairSet(t, Eval(g, opt, &a, nil)),
			wantPairs([2]string{"a", "a"}, [2]string{"a", "b"}))
	})

	t.Run("unbound includes all node identities", func(t *testing.T) {
		assertPairs(t, pairSet(t, Eval(g, opt, nil, nil)),
			wantPairs([2]string{"a", "a"}, [2]string{"b", "b"}, [2]string{"a", "b"}))
	})
}

func TestEvalExactCount(t *testing.T) {
	g := storeOf(t, edge("a", "p", "b"), edge("b", "p", "c"))

	t.Run("zero is identity over subjects", func(t *testing.T) {
		zero := mustRepeat(t, pred("p"), Exactly(0))
		assertPairs(t, pairSet(t, Eval(g, zero, nil, nil)),
			wantPairs([2]string{"a", "a"}, [2]string{"b", "b"}))
	})

	t.Run("zero with bound node outside graph", func(t *testing.T) {
		zero := mustRepeat(t, pred("p"), Exactly(0))
		z := node("z")
		assertPairs(t, pairSet(t, Eval(g, zero, &z, nil)), wantPairs([2]string{"z", "z"}))
	})

	t.Run("two hops", func(t *testing.T) {
		two := mustRepeat(t, pred("p"), Exactly(2))
		assertPairs(t, pairSet(t, Eval(g, two, nil, nil)), wantPairs([2]string{"a", "c"}))
	})

	t.Run("count past chain end is empty", func(t *testing.T) {
		three := mustRepeat(t, pred("p"), Exactly(3))
		assertPairs(t, pairSet(t, Eval(g, three, nil, nil)), wantPairs())
	})
}

// Evaluating a path with a bound endpoint must agree with filtering the
// fully unbound result.
func TestEvalBindingModeEquivalence(t *testing.T) {
	g := storeOf(t,
		edge("a", "p", "b"), edge("b", "p", "c"), edge("c", "q", "a"),
		edge("a", "q", "d"), edge("d", "r", "b"))

	paths := []Path{
		pred("p"),
		Invert(pred("q")),
		mustSeq(t, pred("p"), pred("p")),
		mustSeq(t, pred("p"), Invert(pred("r"))),
		mustAlt(t, pred("p"), pred("q")),
		mustNegate(t, pred("p")),
		mustRepeat(t, pred("p"), ZeroOrMore),
		mustRepeat(t, mustAlt(t, pred("p"), pred("q")), OneOrMore),
		mustRepeat(t, pred("q"), ZeroOrOne),
		mustRepeat(t, pred("p"), Exactly(2)),
	}

	for _, p := range paths {
		t.Run(p.String(), func(t *testing.T) {
			full := pairSet(t, Eval(g, p, nil, nil))
			for pr := range full {
				s, o := pr.Subject, pr.Object

				if got := pairSet(t, Eval(g, p, &s, nil)); !contains(got, pr) {
					t.Errorf("subject-bound evaluation missing (%v, %v)", s, o)
				}
				if got := pairSet(t, Eval(g, p, nil, &o)); !contains(got, pr) {
					t.Errorf("object-bound evaluation missing (%v, %v)", s, o)
				}
				got := pairSet(t, Eval(g, p, &s, &o))
				if len(got) != 1 || !contains(got, pr) {
					t.Errorf("both-bound evaluation of (%v, %v) returned %v", s, o, keys(got))
				}
			}
		})
	}
}

func contains(set map[Pair]struct{}, pr Pair) bool {
	_, ok := set[pr]
	return ok
}

// Inverting a path must swap the result pairs exactly.
func TestEvalInversionSymmetry(t *testing.T) {
	g := storeOf(t,
		edge("a", "p", "b"), edge("b", "q", "c"), edge("c", "p", "a"))

	paths := []Path{
		pred("p"),
		mustSeq(t, pred("p"), pred("q")),
		mustAlt(t, pred("p"), pred("q")),
		mustNegate(t, pred("q")),
		mustRepeat(t, pred("p"), ZeroOrMore),
	}

	for _, p := range paths {
		t.Run(p.String(), func(t *testing.T) {
			forward := pairSet(t, Eval(g, p, nil, nil))
			backward := pairSet(t, Eval(g, Invert(p), nil, nil))
			if len(forward) != len(backward) {
				t.Fatalf("cardinality mismatch: %d vs %d", len(forward), len(backward))
			}
			for pr := range forward {
				if !contains(backward, Pair{Subject: pr.Object, Object: pr.Subject}) {
					t.Errorf("inverse result missing swapped (%v, %v)", pr.Subject, pr.Object)
				}
			}
		})
	}
}

func TestEvalIsLazy(t *testing.T) {
	g := storeOf(t,
		edge("a", "p", "b"), edge("a", "p", "c"), edge("a", "p", "d"))

	count := 0
	for _, err := range Eval(g, pred("p"), nil, nil) {
		if err != nil {
			t.Fatal(err)
		}
		count++
		break
	}
	if count != 1 {
		t.Errorf("expected a single pair before stopping, got %d", count)
	}
}

// failingGraph yields one triple and then a terminal error.
type failingGraph struct {
	triple core.Triple
	err    error
}

func (f failingGraph) Match(subject, predicate, object *core.Term) iter.Seq2[core.Triple, error] {
	return func(yield func(core.Triple, error) bool) {
		if !yield(f.triple, nil) {
			return
		}
		yield(core.Triple{}, f.err)
	}
}

func TestEvalErrorPropagation(t *testing.T) {
	wantErr := errors.New("backend unavailable")
	g := failingGraph{triple: edge("a", "p", "b"), err: wantErr}

	var pairs int
	var gotErr error
	for _, err := range Eval(g, pred("p"), nil, nil) {
		if err != nil {
			gotErr = err
			continue
		}
		pairs++
	}
	if pairs != 1 {
		t.Errorf("expected the pair before the failure, got %d", pairs)
	}
	if !errors.Is(gotErr, wantErr) {
		t.Errorf("expected terminal error %v, got %v", wantErr, gotErr)
	}
}
