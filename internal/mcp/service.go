package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sanonone/terndb/pkg/core"
	"github.com/sanonone/terndb/pkg/engine"
	"github.com/sanonone/terndb/pkg/path"
)

const defaultMatchLimit = 25

type Service struct {
	engine *engine.Engine
}

func NewService(eng *engine.Engine) *Service {
	return &Service{engine: eng}
}

// tripleFromStrings parses three N-Triples terms into a triple.
func tripleFromStrings(subject, predicate, object string) (core.Triple, error) {
	s, err := core.ParseTerm(subject)
	if err != nil {
		return core.Triple{}, fmt.Errorf("subject: %w", err)
	}
	p, err := core.ParseTerm(predicate)
	if err != nil {
		return core.Triple{}, fmt.Errorf("predicate: %w", err)
	}
	o, err := core.ParseTerm(object)
	if err != nil {
		return core.Triple{}, fmt.Errorf("object: %w", err)
	}
	return core.Triple{Subject: s, Predicate: p, Object: o}, nil
}

// optTerm parses an optional term; empty string means wildcard.
func optTerm(raw string) (*core.Term, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := core.ParseTerm(raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// toPath builds the path expression through the library constructors so
// construction-time validation applies to tool input too.
func (ps PathSpecArg) toPath() (path.Path, error) {
	switch ps.Kind {
	case "predicate":
		term, err := core.ParseTerm(ps.Predicate)
		if err != nil {
			return nil, fmt.Errorf("predicate: %w", err)
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

// --- Tool Handlers ---

func (s *Service) AssertTriple(ctx context.Context, req *mcp.CallToolRequest, args AssertTripleArgs) (*mcp.CallToolResult, AssertTripleResult, error) {
	t, err := tripleFromStrings(args.Subject, args.Predicate, args.Object)
	if err != nil {
		return nil, AssertTripleResult{}, err
	}
	added, err := s.engine.Assert(t)
	if err != nil {
		return nil, AssertTripleResult{}, err
	}
	return nil, AssertTripleResult{Added: added}, nil
}

func (s *Service) RetractTriple(ctx context.Context, req *mcp.CallToolRequest, args RetractTripleArgs) (*mcp.CallToolResult, RetractTripleResult, error) {
	t, err := tripleFromStrings(args.Subject, args.Predicate, args.Object)
	if err != nil {
		return nil, RetractTripleResult{}, err
	}
	existed, err := s.engine.Retract(t)
	if err != nil {
		return nil, RetractTripleResult{}, err
	}
	return nil, RetractTripleResult{Existed: existed}, nil
}

func (s *Service) MatchTriples(ctx context.Context, req *mcp.CallToolRequest, args MatchTriplesArgs) (*mcp.CallToolResult, MatchTriplesResult, error) {
	var pattern [3]*core.Term
	for i, raw := range []string{args.Subject, args.Predicate, args.Object} {
		t, err := optTerm(raw)
		if err != nil {
			return nil, MatchTriplesResult{}, err
		}
		pattern[i] = t
	}

	limit := args.Limit
	if limit <= 0 {
		limit = defaultMatchLimit
	}

	result := MatchTriplesResult{Triples: []string{}}
	for t, err := range s.engine.Match(pattern[0], pattern[1], pattern[2]) {
		if err != nil {
			return nil, MatchTriplesResult{}, err
		}
		result.Triples = append(result.Triples, t.String())
		if len(result.Triples) >= limit {
			break
		}
	}
	return nil, result, nil
}

func (s *Service) PathQuery(ctx context.Context, req *mcp.CallToolRequest, args PathQueryArgs) (*mcp.CallToolResult, PathQueryResult, error) {
	p, err := args.Path.toPath()
	if err != nil {
		return nil, PathQueryResult{}, err
	}

	subj, err := optTerm(args.Subject)
	if err != nil {
		return nil, PathQueryResult{}, fmt.Errorf("subject: %w", err)
	}
	obj, err := optTerm(args.Object)
	if err != nil {
		return nil, PathQueryResult{}, fmt.Errorf("object: %w", err)
	}

	limit := args.Limit
	if limit <= 0 {
		limit = defaultMatchLimit
	}

	pairs, err := s.engine.PathQuery(p, subj, obj, limit)
	if err != nil {
		return nil, PathQueryResult{}, err
	}

	result := PathQueryResult{Path: p.String(), Pairs: make([]PairResult, 0, len(pairs))}
	for _, pair := range pairs {
		result.Pairs = append(result.Pairs, PairResult{
			Subject: pair.Subject.String(),
			Object:  pair.Object.String(),
		})
	}
	return nil, result, nil
}

func (s *Service) GraphStats(ctx context.Context, req *mcp.CallToolRequest, args GraphStatsArgs) (*mcp.CallToolResult, GraphStatsResult, error) {
	stats := s.engine.GetStats()
	result := GraphStatsResult{
		Triples:        stats.Triples,
		AofSizeBytes:   stats.AofSizeBytes,
		DirtySinceSave: stats.DirtySinceSave,
	}
	for _, score := range s.engine.TopNodes(5) {
		result.TopNodes = append(result.TopNodes, score.Node.String())
	}
	return nil, result, nil
}
