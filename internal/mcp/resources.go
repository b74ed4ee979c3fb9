package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/yosida95/uritemplate/v3"

	"github.com/sanonone/terndb/pkg/core"
)

// nodeTemplate matches resource URIs like terndb://node/ex%3Aalice, where
// the variable is the IRI of the node.
var nodeTemplate = uritemplate.MustNew("terndb://node/{id}")

// ReadNode serves every triple in which the node occurs as subject or
// object, rendered as N-Triples text.
func (s *Service) ReadNode(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	match := nodeTemplate.Match(req.Params.URI)
	if match == nil {
		return nil, fmt.Errorf("unsupported resource URI %q", req.Params.URI)
	}

	id := match.Get("id").String()
	if id == "" {
		return nil, fmt.Errorf("resource URI %q has an empty node id", req.Params.URI)
	}
	node := core.IRI(id)

	var sb strings.Builder
	for _, pattern := range [][3]*core.Term{
		{&node, nil, nil},
		{nil, nil, &node},
	} {
		for t, err := range s.engine.Match(pattern[0], pattern[1], pattern[2]) {
			if err != nil {
				return nil, err
			}
			// Triples where the node fills both ends show up in both
			// passes; keep the subject pass only.
			if pattern[0] == nil && t.Subject == node {
				continue
			}
			sb.WriteString(t.String())
			sb.WriteString("\n")
		}
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/n-triples",
			Text:     sb.String(),
		}},
	}, nil
}
