// This file provides lightweight graph analytics over the triple store.
// Literal objects are excluded, so only resource-to-resource edges
// contribute to the scores.
package core

import (
	"sort"

	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"
)

// NodeScore pairs a graph node with an analytics score.
type NodeScore struct {
	Node  Term
	Score float64
}

// TopNodes computes PageRank over the resource graph and returns the n
// highest-ranked nodes in descending score order. Ties are broken by term
// order so the result is deterministic.
func (s *TripleStore) TopNodes(n int) []NodeScore {
	if n <= 0 {
		return nil
	}

	g := simple.NewDirectedGraph()
	ids := make(map[Term]int64)
	terms := make(map[int64]Term)

	nodeID := func(t Term) int64 {
		if id, ok := ids[t]; ok {
			return id
		}
		id := int64(len(ids))
		ids[t] = id
		terms[id] = t
		g.AddNode(simple.Node(id))
		return id
	}

	for t := range s.Match(nil, nil, nil) {
		if t.Object.Kind == KindLiteral {
			continue
		}
		from := nodeID(t.Subject)
		to := nodeID(t.Object)
		if from == to {
			// gonum rejects self-edges; a self-loop does not affect ranking.
			continue
		}
		g.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(to)})
	}
	if len(ids) == 0 {
		return nil
	}

	ranks := network.PageRank(g, 0.85, 1e-6)

	scores := make([]NodeScore, 0, len(ranks))
	for id, score := range ranks {
		scores = append(scores, NodeScore{Node: terms[id], Score: score})
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].Node.Compare(scores[j].Node) < 0
	})
	if len(scores) > n {
		scores = scores[:n]
	}
	return scores
}
