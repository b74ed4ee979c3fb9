// Package core provides the fundamental data structures for the TernDB engine.
//
// This file defines the RDF term model: IRIs, blank nodes and literals.
// Terms are immutable value types, usable as map keys, with a total order
// that the store indexes and the path engine rely on.
package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// TermKind discriminates the three kinds of RDF terms.
type TermKind uint8

const (
	// KindIRI is an absolute IRI reference, e.g. <http://example.org/knows>.
	KindIRI TermKind = iota
	// KindBlank is a blank node, identified only by its local label.
	KindBlank
	// KindLiteral is a literal value with an optional language tag or datatype.
	KindLiteral
)

// String returns a human-readable name for the kind.
func (k TermKind) String() string {
	switch k {
	case KindIRI:
		return "iri"
	case KindBlank:
		return "blank"
	case KindLiteral:
		return "literal"
	default:
		return "unknown"
	}
}

// Term is a single RDF term. The zero value is not a valid term; it is used
// internally as the lower bound for index scans.
//
// Terms are plain comparable structs so they can be used directly as map keys
// for visited sets and deduplication during path evaluation.
type Term struct {
	Kind  TermKind
	Value string
	// Lang is the language tag, only meaningful for literals.
	Lang string
	// Datatype is the datatype IRI, only meaningful for literals.
	Datatype string
}

// IRI creates an IRI term.
func IRI(value string) Term {
	return Term{Kind: KindIRI, Value: value}
}

// Blank creates a blank node term with the given label.
func Blank(label string) Term {
	return Term{Kind: KindBlank, Value: label}
}

// NewBlank mints a fresh blank node with a unique label.
func NewBlank() Term {
	return Term{Kind: KindBlank, Value: "b" + strings.ReplaceAll(uuid.New().String(), "-", "")}
}

// Literal creates a plain string literal.
func Literal(value string) Term {
	return Term{Kind: KindLiteral, Value: value}
}

// LangLiteral creates a language-tagged literal.
func LangLiteral(value, lang string) Term {
	return Term{Kind: KindLiteral, Value: value, Lang: lang}
}

// TypedLiteral creates a literal with an explicit datatype IRI.
func TypedLiteral(value, datatype string) Term {
	return Term{Kind: KindLiteral, Value: value, Datatype: datatype}
}

// IsZero reports whether t is the zero term (no valid term has an empty value).
func (t Term) IsZero() bool {
	return t.Value == "" && t.Kind == KindIRI && t.Lang == "" && t.Datatype == ""
}

// Compare defines the total order over terms: first by kind, then by value,
// then by language tag and datatype. The order carries no semantic meaning;
// it exists so indexes and result sets are deterministic.
func (t Term) Compare(o Term) int {
	if t.Kind != o.Kind {
		if t.Kind < o.Kind {
			return -1
		}
		return 1
	}
	if c := strings.Compare(t.Value, o.Value); c != 0 {
		return c
	}
	if c := strings.Compare(t.Lang, o.Lang); c != 0 {
		return c
	}
	return strings.Compare(t.Datatype, o.Datatype)
}

// String renders the term in N-Triples syntax. This is the canonical text
// form used by the wire protocol and the AOF.
func (t Term) String() string {
	switch t.Kind {
	case KindIRI:
		return "<" + t.Value + ">"
	case KindBlank:
		return "_:" + t.Value
	case KindLiteral:
		s := `"` + escapeLiteral(t.Value) + `"`
		if t.Lang != "" {
			return s + "@" + t.Lang
		}
		if t.Datatype != "" {
			return s + "^^<" + t.Datatype + ">"
		}
		return s
	default:
		return ""
	}
}

// ParseTerm parses a term in N-Triples syntax, the inverse of Term.String.
func ParseTerm(s string) (Term, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Term{}, fmt.Errorf("empty term")
	}
	switch {
	case strings.HasPrefix(s, "<"):
		if !strings.HasSuffix(s, ">") || len(s) < 3 {
			return Term{}, fmt.Errorf("malformed IRI: %s", s)
		}
		return IRI(s[1 : len(s)-1]), nil
	case strings.HasPrefix(s, "_:"):
		if len(s) == 2 {
			return Term{}, fmt.Errorf("blank node without label")
		}
		return Blank(s[2:]), nil
	case strings.HasPrefix(s, `"`):
		end := closingQuote(s)
		if end < 0 {
			return Term{}, fmt.Errorf("unterminated literal: %s", s)
		}
		value := unescapeLiteral(s[1:end])
		rest := s[end+1:]
		switch {
		case rest == "":
			return Literal(value), nil
		case strings.HasPrefix(rest, "@"):
			return LangLiteral(value, rest[1:]), nil
		case strings.HasPrefix(rest, "^^<") && strings.HasSuffix(rest, ">"):
			return TypedLiteral(value, rest[3:len(rest)-1]), nil
		default:
			return Term{}, fmt.Errorf("malformed literal suffix: %s", rest)
		}
	default:
		return Term{}, fmt.Errorf("unrecognized term: %s", s)
	}
}

// closingQuote returns the index of the closing unescaped quote, or -1.
func closingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}

func escapeLiteral(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\t", `\t`)
	return r.Replace(s)
}

func unescapeLiteral(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i == len(s)-1 {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
