package client

// Term mirrors the server's JSON term encoding.
type Term struct {
	Kind     string `json:"kind"` // "iri", "blank", "literal"
	Value    string `json:"value"`
	Lang     string `json:"lang,omitempty"`
	Datatype string `json:"datatype,omitempty"`
}

func IRI(value string) Term {
	return Term{Kind: "iri", Value: value}
}

func Blank(label string) Term {
	return Term{Kind: "blank", Value: label}
}

func Literal(value string) Term {
	return Term{Kind: "literal", Value: value}
}

func LangLiteral(value, lang string) Term {
	return Term{Kind: "literal", Value: value, Lang: lang}
}

func TypedLiteral(value, datatype string) Term {
	return Term{Kind: "literal", Value: value, Datatype: datatype}
}

// Triple is one subject-predicate-object fact.
type Triple struct {
	Subject   Term `json:"subject"`
	Predicate Term `json:"predicate"`
	Object    Term `json:"object"`
}

// Pair is one path query result: a subject connected to an object by the
// queried path.
type Pair struct {
	Subject Term `json:"subject"`
	Object  Term `json:"object"`
}

// NodeScore pairs a node with its PageRank score.
type NodeScore struct {
	Node  Term    `json:"node"`
	Score float64 `json:"score"`
}

// Stats reports graph size and persistence state.
type Stats struct {
	Triples        int   `json:"triples"`
	AofSizeBytes   int64 `json:"aof_size_bytes"`
	DirtySinceSave int64 `json:"dirty_since_save"`
}

// PathSpec is the wire form of a property path expression. Build it with
// the helpers below rather than by hand.
type PathSpec struct {
	Kind      string     `json:"kind"`
	Predicate *Term      `json:"predicate,omitempty"`
	Inner     *PathSpec  `json:"inner,omitempty"`
	Parts     []PathSpec `json:"parts,omitempty"`
	Mod       string     `json:"mod,omitempty"`
	Count     int        `json:"count,omitempty"`
}

// Pred is a single forward predicate step.
func Pred(predicate Term) PathSpec {
	return PathSpec{Kind: "predicate", Predicate: &predicate}
}

// Inv reverses the direction of a path.
func Inv(p PathSpec) PathSpec {
	return PathSpec{Kind: "inverse", Inner: &p}
}

// Seq chains paths end to end.
func Seq(parts ...PathSpec) PathSpec {
	return PathSpec{Kind: "sequence", Parts: parts}
}

// Alt unions the results of several paths.
func Alt(parts ...PathSpec) PathSpec {
	return PathSpec{Kind: "alternative", Parts: parts}
}

// Not matches any single edge except the given steps. The inner path must
// be a predicate, an inverted predicate, or an alternative of those.
func Not(p PathSpec) PathSpec {
	return PathSpec{Kind: "negate", Inner: &p}
}

// Star is zero-or-more repetition (reflexive transitive closure).
func Star(p PathSpec) PathSpec {
	return PathSpec{Kind: "repeat", Inner: &p, Mod: "zero_or_more"}
}

// Plus is one-or-more repetition (transitive closure).
func Plus(p PathSpec) PathSpec {
	return PathSpec{Kind: "repeat", Inner: &p, Mod: "one_or_more"}
}

// Opt is zero-or-one repetition.
func Opt(p PathSpec) PathSpec {
	return PathSpec{Kind: "repeat", Inner: &p, Mod: "zero_or_one"}
}

// Times repeats a path exactly n hops.
func Times(p PathSpec, n int) PathSpec {
	return PathSpec{Kind: "repeat", Inner: &p, Mod: "exactly", Count: n}
}
