// Package mcp exposes the database to language-model agents over the
// Model Context Protocol: tools for mutating and querying the graph, and
// node resources for browsing it.
package mcp

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sanonone/terndb/pkg/engine"
)

func NewMCPServer(eng *engine.Engine) *mcp.Server {
	service := NewService(eng)

	s := mcp.NewServer(&mcp.Implementation{
		Name:    "TernDB",
		Version: "0.1.0",
	}, nil)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "assert_triple",
		Description: "Add a fact to the graph as a subject-predicate-object triple.",
	}, service.AssertTriple)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "retract_triple",
		Description: "Remove a fact from the graph.",
	}, service.RetractTriple)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "match_triples",
		Description: "Find triples matching a pattern. Omitted components are wildcards.",
	}, service.MatchTriples)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "path_query",
		Description: "Evaluate a property path (sequences, alternatives, inverses, negation, repetition) between graph nodes.",
		InputSchema: pathQueryInputSchema(),
	}, service.PathQuery)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "graph_stats",
		Description: "Report graph size, persistence state and the most central nodes.",
	}, service.GraphStats)

	s.AddResourceTemplate(&mcp.ResourceTemplate{
		Name:        "node",
		URITemplate: nodeTemplate.Raw(),
		MIMEType:    "application/n-triples",
		Description: "All triples touching a node, addressed by its IRI.",
	}, service.ReadNode)

	return s
}
