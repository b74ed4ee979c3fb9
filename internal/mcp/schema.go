package mcp

import (
	"github.com/google/jsonschema-go/jsonschema"
)

// pathQueryInputSchema is the hand-built schema for the path_query tool.
// PathSpecArg is recursive, which schema inference from the struct cannot
// express, so the path node is defined once under $defs and referenced
// from its own inner and parts fields.
func pathQueryInputSchema() *jsonschema.Schema {
	termDesc := "Term in N-Triples syntax, e.g. '<ex:alice>', '_:b1' or '\"ciao\"@it'."

	pathSpec := &jsonschema.Schema{
		Type:        "object",
		Description: "A property path expression.",
		Required:    []string{"kind"},
		Properties: map[string]*jsonschema.Schema{
			"kind": {
				Type: "string",
				Enum: []any{"predicate", "inverse", "sequence", "alternative", "negate", "repeat"},
			},
			"predicate": {
				Type:        "string",
				Description: "Predicate term in N-Triples syntax. Used when kind is 'predicate'.",
			},
			"inner": {
				Ref:         "#/$defs/pathSpec",
				Description: "Inner path. Used when kind is 'inverse', 'negate' or 'repeat'.",
			},
			"parts": {
				Type:        "array",
				Items:       &jsonschema.Schema{Ref: "#/$defs/pathSpec"},
				Description: "Ordered parts. Used when kind is 'sequence' or 'alternative'.",
			},
			"mod": {
				Type:        "string",
				Enum:        []any{"zero_or_more", "one_or_more", "zero_or_one", "exactly"},
				Description: "Repetition mode. Used when kind is 'repeat'.",
			},
			"count": {
				Type:        "integer",
				Description: "Hop count when mod is 'exactly'.",
			},
		},
	}

	return &jsonschema.Schema{
		Type:     "object",
		Required: []string{"path"},
		Defs: map[string]*jsonschema.Schema{
			"pathSpec": pathSpec,
		},
		Properties: map[string]*jsonschema.Schema{
			"path": {Ref: "#/$defs/pathSpec"},
			"subject": {
				Type:        "string",
				Description: "Bind the path start to this term. " + termDesc + " Omit for wildcard.",
			},
			"object": {
				Type:        "string",
				Description: "Bind the path end to this term. " + termDesc + " Omit for wildcard.",
			},
			"limit": {
				Type:        "integer",
				Description: "Max number of result pairs (default 25).",
			},
		},
	}
}
