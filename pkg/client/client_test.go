package client

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sanonone/terndb/internal/server"
	"github.com/sanonone/terndb/pkg/engine"
)

// newTestClient spins up a real in-process API server and points a client
// at it.
func newTestClient(t *testing.T, authToken string) *Client {
	t.Helper()

	eng, err := engine.Open(engine.Options{
		DataDir:     t.TempDir(),
		AofFilename: "test.aof",
	})
	if err != nil {
		t.Fatalf("open engine: %v", err)
	}
	t.Cleanup(func() { eng.Close() })

	srv := server.NewServer(eng, server.Config{AuthToken: authToken, MaxResults: 1000})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &Client{
		baseURL:    ts.URL,
		authToken:  authToken,
		httpClient: ts.Client(),
	}
}

func TestAssertMatchRetract(t *testing.T) {
	c := newTestClient(t, "")

	added, err := c.Assert(Triple{
		Subject:   IRI("ex:alice"),
		Predicate: IRI("ex:knows"),
		Object:    IRI("ex:bob"),
	})
	if err != nil {
		t.Fatalf("Assert failed: %v", err)
	}
	if !added {
		t.Error("expected first Assert to report added")
	}

	added, err = c.Assert(Triple{
		Subject:   IRI("ex:alice"),
		Predicate: IRI("ex:knows"),
		Object:    IRI("ex:bob"),
	})
	if err != nil {
		t.Fatalf("duplicate Assert failed: %v", err)
	}
	if added {
		t.Error("expected duplicate Assert to be a no-op")
	}

	subj := IRI("ex:alice")
	triples, err := c.Match(&subj, nil, nil, 0)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if len(triples) != 1 {
		t.Fatalf("expected 1 triple, got %d", len(triples))
	}
	if triples[0].Object.Value != "ex:bob" {
		t.Errorf("object = %q, want ex:bob", triples[0].Object.Value)
	}

	existed, err := c.Retract(triples[0])
	if err != nil {
		t.Fatalf("Retract failed: %v", err)
	}
	if !existed {
		t.Error("expected Retract to report the triple existed")
	}
}

func TestLiteralRoundTrip(t *testing.T) {
	c := newTestClient(t, "")

	want := Triple{
		Subject:   IRI("ex:alice"),
		Predicate: IRI("ex:name"),
		Object:    LangLiteral("Alice", "en"),
	}
	if _, err := c.Assert(want); err != nil {
		t.Fatalf("Assert failed: %v", err)
	}

	triples, err := c.Match(nil, nil, nil, 0)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if len(triples) != 1 {
		t.Fatalf("expected 1 triple, got %d", len(triples))
	}
	if triples[0].Object != want.Object {
		t.Errorf("object = %+v, want %+v", triples[0].Object, want.Object)
	}
}

func TestPathQuery(t *testing.T) {
	c := newTestClient(t, "")

	knows := IRI("ex:knows")
	for _, tr := range []Triple{
		{Subject: IRI("ex:a"), Predicate: knows, Object: IRI("ex:b")},
		{Subject: IRI("ex:b"), Predicate: knows, Object: IRI("ex:c")},
	} {
		if _, err := c.Assert(tr); err != nil {
			t.Fatal(err)
		}
	}

	subj := IRI("ex:a")
	pairs, err := c.PathQuery(Plus(Pred(knows)), &subj, nil, 0)
	if err != nil {
		t.Fatalf("PathQuery failed: %v", err)
	}

	objects := make(map[string]bool)
	for _, p := range pairs {
		objects[p.Object.Value] = true
	}
	if len(objects) != 2 || !objects["ex:b"] || !objects["ex:c"] {
		t.Errorf("unexpected reachable set: %v", objects)
	}

	// A malformed path surfaces as an APIError.
	_, err = c.PathQuery(Not(Star(Pred(knows))), nil, nil, 0)
	if apiErr, ok := err.(*APIError); !ok || apiErr.StatusCode != 422 {
		t.Errorf("expected 422 APIError, got %v", err)
	}
}

func TestStatsSaveAndRewrite(t *testing.T) {
	c := newTestClient(t, "")

	if _, err := c.Assert(Triple{
		Subject:   IRI("ex:a"),
		Predicate: IRI("ex:p"),
		Object:    IRI("ex:b"),
	}); err != nil {
		t.Fatal(err)
	}

	stats, err := c.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Triples != 1 {
		t.Errorf("triples = %d, want 1", stats.Triples)
	}

	if err := c.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	task, err := c.AOFRewrite()
	if err != nil {
		t.Fatalf("AOFRewrite failed: %v", err)
	}
	if err := task.Wait(10*time.Millisecond, 2*time.Second); err != nil {
		t.Fatalf("task.Wait failed: %v", err)
	}
	if task.Status != "completed" {
		t.Errorf("task status = %q, want completed", task.Status)
	}
}

func TestAuthToken(t *testing.T) {
	c := newTestClient(t, "secret")

	if _, err := c.Stats(); err != nil {
		t.Fatalf("authenticated Stats failed: %v", err)
	}

	c.authToken = "wrong"
	_, err := c.Stats()
	if apiErr, ok := err.(*APIError); !ok || apiErr.StatusCode != 401 {
		t.Errorf("expected 401 APIError, got %v", err)
	}
}
