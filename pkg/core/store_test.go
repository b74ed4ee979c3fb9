package core

import (
	"bytes"
	"iter"
	"testing"
)

func tr(s, p, o string) Triple {
	return Triple{Subject: IRI(s), Predicate: IRI(p), Object: IRI(o)}
}

func collect(t *testing.T, store *TripleStore, s, p, o *Term) []Triple {
	t.Helper()
	var out []Triple
	for triple, err := range store.Match(s, p, o) {
		if err != nil {
			t.Fatalf("unexpected match error: %v", err)
		}
		out = append(out, triple)
	}
	return out
}

func TestTripleStoreInsertDelete(t *testing.T) {
	store := NewTripleStore()

	if !store.Insert(tr("a", "p", "b")) {
		t.Error("first insert should report true")
	}
	if store.Insert(tr("a", "p", "b")) {
		t.Error("duplicate insert should report false")
	}
	if store.Len() != 1 {
		t.Errorf("expected 1 triple, got %d", store.Len())
	}

	if !store.Delete(tr("a", "p", "b")) {
		t.Error("delete of existing triple should report true")
	}
	if store.Delete(tr("a", "p", "b")) {
		t.Error("delete of missing triple should report false")
	}
	if store.Len() != 0 {
		t.Errorf("expected empty store, got %d", store.Len())
	}
}

func TestTripleStoreMatch(t *testing.T) {
	store := NewTripleStore()
	store.Insert(tr("a", "p", "b"))
	store.Insert(tr("a", "p", "c"))
	store.Insert(tr("a", "q", "b"))
	store.Insert(tr("b", "p", "c"))
	store.Insert(Triple{Subject: IRI("b"), Predicate: IRI("name"), Object: Literal("bee")})

	s, p, o := IRI("a"), IRI("p"), IRI("c")

	t.Run("fully bound", func(t *testing.T) {
		got := collect(t, store, &s, &p, &o)
		if len(got) != 1 {
			t.Fatalf("expected 1 match, got %d", len(got))
		}
	})

	t.Run("subject bound", func(t *testing.T) {
		if got := collect(t, store, &s, nil, nil); len(got) != 3 {
			t.Errorf("expected 3 matches, got %d", len(got))
		}
	})

	t.Run("subject and predicate bound", func(t *testing.T) {
		if got := collect(t, store, &s, &p, nil); len(got) != 2 {
			t.Errorf("expected 2 matches, got %d", len(got))
		}
	})

	t.Run("predicate bound", func(t *testing.T) {
		if got := collect(t, store, nil, &p, nil); len(got) != 3 {
			t.Errorf("expected 3 matches, got %d", len(got))
		}
	})

	t.Run("object bound", func(t *testing.T) {
		b := IRI("b")
		if got := collect(t, store, nil, nil, &b); len(got) != 2 {
			t.Errorf("expected 2 matches, got %d", len(got))
		}
	})

	t.Run("all wildcards", func(t *testing.T) {
		if got := collect(t, store, nil, nil, nil); len(got) != 5 {
			t.Errorf("expected 5 matches, got %d", len(got))
		}
	})

	t.Run("no match is empty not error", func(t *testing.T) {
		missing := IRI("nope")
		if got := collect(t, store, &missing, nil, nil); len(got) != 0 {
			t.Errorf("expected no matches, got %d", len(got))
		}
	})
}

func TestTripleStoreMatchIsLazy(t *testing.T) {
	store := NewTripleStore()
	store.Insert(tr("a", "p", "b"))
	store.Insert(tr("a", "p", "c"))
	store.Insert(tr("a", "p", "d"))

	count := 0
	for _, err := range store.Match(nil, nil, nil) {
		if err != nil {
			t.Fatal(err)
		}
		count++
		break // early stop must be safe
	}
	if count != 1 {
		t.Errorf("expected to consume exactly 1 element, got %d", count)
	}
}

func TestTripleStoreSnapshotIsolation(t *testing.T) {
	store := NewTripleStore()
	store.Insert(tr("a", "p", "b"))
	store.Insert(tr("a", "p", "c"))

	next, stop := iter.Pull2(store.Match(nil, nil, nil))
	defer stop()

	if _, _, ok := next(); !ok {
		t.Fatal("expected a first element")
	}
	// Mutating mid-iteration must neither panic nor surface in this scan:
	// the scan runs on a copy-on-write snapshot taken when it started.
	store.Insert(tr("z", "p", "z"))

	count := 1
	for {
		_, _, ok := next()
		if !ok {
			break
		}
		count++
	}
	if count != 2 {
		t.Errorf("expected 2 triples from the pre-mutation snapshot, got %d", count)
	}
}

func TestTripleStoreSubjectsAndNodes(t *testing.T) {
	store := NewTripleStore()
	store.Insert(tr("a", "p", "b"))
	store.Insert(tr("a", "q", "c"))
	store.Insert(tr("b", "p", "c"))

	var subjects []Term
	for s := range store.Subjects() {
		subjects = append(subjects, s)
	}
	if len(subjects) != 2 {
		t.Errorf("expected 2 distinct subjects, got %d", len(subjects))
	}

	var nodes []Term
	for n := range store.Nodes() {
		nodes = append(nodes, n)
	}
	if len(nodes) != 3 {
		t.Errorf("expected 3 distinct nodes, got %d", len(nodes))
	}
}

func TestTripleStoreSnapshotRestore(t *testing.T) {
	store := NewTripleStore()
	store.Insert(tr("a", "p", "b"))
	store.Insert(tr("b", "p", "c"))
	store.Insert(Triple{Subject: IRI("c"), Predicate: IRI("label"), Object: LangLiteral("si", "it")})

	var buf bytes.Buffer
	if err := store.Snapshot(&buf); err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}

	restored := NewTripleStore()
	if err := restored.Restore(&buf); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if restored.Len() != store.Len() {
		t.Fatalf("expected %d triples after restore, got %d", store.Len(), restored.Len())
	}
	for triple, err := range store.Match(nil, nil, nil) {
		if err != nil {
			t.Fatal(err)
		}
		found := collect(t, restored, &triple.Subject, &triple.Predicate, &triple.Object)
		if len(found) != 1 {
			t.Errorf("triple %s missing after restore", triple)
		}
	}
}

func TestTopNodes(t *testing.T) {
	store := NewTripleStore()
	// hub receives edges from three nodes
	store.Insert(tr("a", "p", "hub"))
	store.Insert(tr("b", "p", "hub"))
	store.Insert(tr("c", "p", "hub"))
	store.Insert(tr("hub", "p", "a"))
	// literals never rank
	store.Insert(Triple{Subject: IRI("hub"), Predicate: IRI("label"), Object: Literal("the hub")})

	top := store.TopNodes(2)
	if len(top) != 2 {
		t.Fatalf("expected 2 results, got %d", len(top))
	}
	if top[0].Node.Compare(IRI("hub")) != 0 {
		t.Errorf("expected hub as highest ranked node, got %s", top[0].Node)
	}

	if got := store.TopNodes(0); got != nil {
		t.Errorf("expected nil for n=0, got %v", got)
	}
}
