package mcp

// Terms cross the MCP boundary in N-Triples syntax ("<ex:alice>",
// "_:b1", `"ciao"@it`), the same encoding the TCP protocol uses.

// --- Tool Arguments ---

type AssertTripleArgs struct {
	Subject   string `json:"subject" jsonschema:"Subject term in N-Triples syntax (e.g. '<ex:alice>'),required"`
	Predicate string `json:"predicate" jsonschema:"Predicate term in N-Triples syntax,required"`
	Object    string `json:"object" jsonschema:"Object term in N-Triples syntax (IRI, blank node or literal),required"`
}

type AssertTripleResult struct {
	Added bool `json:"added"`
}

type RetractTripleArgs struct {
	Subject   string `json:"subject" jsonschema:"Subject term in N-Triples syntax,required"`
	Predicate string `json:"predicate" jsonschema:"Predicate term in N-Triples syntax,required"`
	Object    string `json:"object" jsonschema:"Object term in N-Triples syntax,required"`
}

type RetractTripleResult struct {
	Existed bool `json:"existed"`
}

type MatchTriplesArgs struct {
	Subject   string `json:"subject,omitempty" jsonschema:"Subject term to match. Omit for wildcard."`
	Predicate string `json:"predicate,omitempty" jsonschema:"Predicate term to match. Omit for wildcard."`
	Object    string `json:"object,omitempty" jsonschema:"Object term to match. Omit for wildcard."`
	Limit     int    `json:"limit,omitempty" jsonschema:"Max number of results (default 25)"`
}

type MatchTriplesResult struct {
	Triples []string `json:"triples"` // N-Triples lines
}

// PathSpecArg is the recursive path expression. It cannot be described by
// schema reflection, so the tool carries a hand-built schema (see
// pathQueryInputSchema).
type PathSpecArg struct {
	Kind      string        `json:"kind"`
	Predicate string        `json:"predicate,omitempty"`
	Inner     *PathSpecArg  `json:"inner,omitempty"`
	Parts     []PathSpecArg `json:"parts,omitempty"`
	Mod       string        `json:"mod,omitempty"`
	Count     int           `json:"count,omitempty"`
}

type PathQueryArgs struct {
	Path    PathSpecArg `json:"path"`
	Subject string      `json:"subject,omitempty"`
	Object  string      `json:"object,omitempty"`
	Limit   int         `json:"limit,omitempty"`
}

type PairResult struct {
	Subject string `json:"subject"`
	Object  string `json:"object"`
}

type PathQueryResult struct {
	Path  string       `json:"path"` // canonical rendering of the evaluated path
	Pairs []PairResult `json:"pairs"`
}

type GraphStatsArgs struct{}

type GraphStatsResult struct {
	Triples        int      `json:"triples"`
	AofSizeBytes   int64    `json:"aof_size_bytes"`
	DirtySinceSave int64    `json:"dirty_since_save"`
	TopNodes       []string `json:"top_nodes,omitempty"`
}
