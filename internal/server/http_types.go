package server

// JSON wire types for the HTTP API: term and triple encodings, and the
// recursive path specification that maps onto the path constructors.

import (
	"fmt"

	"github.com/sanonone/terndb/pkg/core"
	"github.com/sanonone/terndb/pkg/path"
)

// TermJSON is the wire encoding of a core.Term.
type TermJSON struct {
	Kind     string `json:"kind"` // "iri", "blank", "literal"
	Value    string `json:"value"`
	Lang     string `json:"lang,omitempty"`
	Datatype string `json:"datatype,omitempty"`
}

func termToJSON(t core.Term) TermJSON {
	tj := TermJSON{Value: t.Value, Lang: t.Lang, Datatype: t.Datatype}
	switch t.Kind {
	case core.KindIRI:
		tj.Kind = "iri"
	case core.KindBlank:
		tj.Kind = "blank"
	case core.KindLiteral:
		tj.Kind = "literal"
	}
	return tj
}

func (tj TermJSON) toTerm() (core.Term, error) {
	switch tj.Kind {
	case "iri":
		if tj.Value == "" {
			return core.Term{}, fmt.Errorf("iri term needs a value")
		}
		return core.IRI(tj.Value), nil
	case "blank":
		if tj.Value == "" {
			return core.NewBlank(), nil
		}
		return core.Blank(tj.Value), nil
	case "literal":
		switch {
		case tj.Lang != "":
			return core.LangLiteral(tj.Value, tj.Lang), nil
		case tj.Datatype != "":
			return core.TypedLiteral(tj.Value, tj.Datatype), nil
		default:
			return core.Literal(tj.Value), nil
		}
	default:
		return core.Term{}, fmt.Errorf("unknown term kind %q", tj.Kind)
	}
}

// TripleRequest carries one triple for assert/retract.
type TripleRequest struct {
	Subject   TermJSON `json:"subject"`
	Predicate TermJSON `json:"predicate"`
	Object    TermJSON `json:"object"`
}

func (tr TripleRequest) toTriple() (core.Triple, error) {
	s, err := tr.Subject.toTerm()
	if err != nil {
		return core.Triple{}, fmt.Errorf("subject: %w", err)
	}
	p, err := tr.Predicate.toTerm()
	if err != nil {
		return core.Triple{}, fmt.Errorf("predicate: %w", err)
	}
	o, err := tr.Object.toTerm()
	if err != nil {
		return core.Triple{}, fmt.Errorf("object: %w", err)
	}
	return core.Triple{Subject: s, Predicate: p, Object: o}, nil
}

// TripleJSON is the wire encoding of a stored triple.
type TripleJSON struct {
	Subject   TermJSON `json:"subject"`
	Predicate TermJSON `json:"predicate"`
	Object    TermJSON `json:"object"`
}

func tripleToJSON(t core.Triple) TripleJSON {
	return TripleJSON{
		Subject:   termToJSON(t.Subject),
		Predicate: termToJSON(t.Predicate),
		Object:    termToJSON(t.Object),
	}
}

// MatchRequest carries an optional pattern; absent components are
// wildcards.
type MatchRequest struct {
	Subject   *TermJSON `json:"subject,omitempty"`
	Predicate *TermJSON `json:"predicate,omitempty"`
	Object    *TermJSON `json:"object,omitempty"`
	Limit     int       `json:"limit,omitempty"`
}

// PathSpec is the recursive JSON form of a path expression. It maps
// one-to-one onto the path constructors; textual path syntax is not parsed
// here.
type PathSpec struct {
	Kind string `json:"kind"` // predicate, inverse, sequence, alternative, negate, repeat

	Predicate *TermJSON  `json:"predicate,omitempty"` // kind == predicate
	Inner     *PathSpec  `json:"inner,omitempty"`     // inverse, negate, repeat
	Parts     []PathSpec `json:"parts,omitempty"`     // sequence, alternative

	// Repetition: "zero_or_more", "one_or_more", "zero_or_one", "exactly".
	Mod   string `json:"mod,omitempty"`
	Count int    `json:"count,omitempty"` // mod == exactly
}

// toPath builds the path expression through the constructors, so every
// construction-time rule (flattening, set semantics, negation shape)
// applies to API input exactly as it does in the library.
func (ps PathSpec) toPath() (path.Path, error) {
	switch ps.Kind {
	case "predicate":
		if ps.Predicate == nil {
			return nil, fmt.Errorf("predicate path needs a predicate term")
		}
		term, err := ps.Predicate.toTerm()
		if err != nil {
			return nil, err
		}
		return path.NewPredicate(term), nil

	case "inverse":
		if ps.Inner == nil {
			return nil, fmt.Errorf("inverse path needs an inner path")
		}
		inner, err := ps.Inner.toPath()
		if err != nil {
			return nil, err
		}
		return path.Invert(inner), nil

	case "sequence", "alternative":
		parts := make([]path.Path, 0, len(ps.Parts))
		for i, spec := range ps.Parts {
			p, err := spec.toPath()
			if err != nil {
				return nil, fmt.Errorf("part %d: %w", i, err)
			}
			parts = append(parts, p)
		}
		if ps.Kind == "sequence" {
			return path.NewSequence(parts...)
		}
		return path.NewAlternative(parts...)

	case "negate":
		if ps.Inner == nil {
			return nil, fmt.Errorf("negate path needs an inner path")
		}
		inner, err := ps.Inner.toPath()
		if err != nil {
			return nil, err
		}
		return path.Negate(inner)

	case "repeat":
		if ps.Inner == nil {
			return nil, fmt.Errorf("repeat path needs an inner path")
		}
		inner, err := ps.Inner.toPath()
		if err != nil {
			return nil, err
		}
		var mod path.Mod
		switch ps.Mod {
		case "zero_or_more":
			mod = path.ZeroOrMore
		case "one_or_more":
			mod = path.OneOrMore
		case "zero_or_one":
			mod = path.ZeroOrOne
		case "exactly":
			mod = path.Exactly(ps.Count)
		default:
			return nil, fmt.Errorf("unknown repetition mod %q", ps.Mod)
		}
		return path.NewRepeat(inner, mod)

	default:
		return nil, fmt.Errorf("unknown path kind %q", ps.Kind)
	}
}

// PathQueryRequest evaluates a path with optional endpoint bindings.
type PathQueryRequest struct {
	Path    PathSpec  `json:"path"`
	Subject *TermJSON `json:"subject,omitempty"`
	Object  *TermJSON `json:"object,omitempty"`
	Limit   int       `json:"limit,omitempty"`
}

// PairJSON is one path query result pair.
type PairJSON struct {
	Subject TermJSON `json:"subject"`
	Object  TermJSON `json:"object"`
}

// PathQueryResponse carries the materialized result pairs plus the
// canonical rendering of the evaluated path.
type PathQueryResponse struct {
	Path    string     `json:"path"`
	Results []PairJSON `json:"results"`
}

// TopNodesResponse carries PageRank scores for the most central nodes.
type TopNodesResponse struct {
	Nodes []NodeScoreJSON `json:"nodes"`
}

type NodeScoreJSON struct {
	Node  TermJSON `json:"node"`
	Score float64  `json:"score"`
}
