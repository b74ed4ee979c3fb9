// Canonical text rendering of path expressions, using the conventional
// path-algebra syntax: ^ for inversion, / for sequencing, | for
// alternatives, !(...) for negation and * + ? {n} for repetition.
// Parentheses are inserted wherever precedence would otherwise mis-bind:
// repetition binds tightest, then sequencing, then alternatives.
package path

import (
	"fmt"
	"strings"
)

func (p Predicate) String() string {
	return p.Term.String()
}

func (i Inverse) String() string {
	return "^" + atom(i.Inner)
}

func (s Sequence) String() string {
	parts := make([]string, len(s.parts))
	for idx, part := range s.parts {
		if _, isAlt := part.(Alternative); isAlt {
			parts[idx] = "(" + part.String() + ")"
		} else {
			parts[idx] = part.String()
		}
	}
	return strings.Join(parts, "/")
}

func (a Alternative) String() string {
	parts := make([]string, len(a.parts))
	for idx, part := range a.parts {
		parts[idx] = part.String()
	}
	return strings.Join(parts, "|")
}

func (n Negated) String() string {
	steps := make([]string, len(n.steps))
	for idx, s := range n.steps {
		if s.Inverse {
			steps[idx] = "^" + s.Predicate.String()
		} else {
			steps[idx] = s.Predicate.String()
		}
	}
	return "!(" + strings.Join(steps, "|") + ")"
}

func (r Repeat) String() string {
	return atom(r.inner) + r.mod.suffix()
}

func (m Mod) suffix() string {
	switch m.kind {
	case modZeroOrMore:
		return "*"
	case modOneOrMore:
		return "+"
	case modZeroOrOne:
		return "?"
	case modExact:
		return fmt.Sprintf("{%d}", m.count)
	default:
		return ""
	}
}

// atom renders p, parenthesized unless it already binds tighter than any
// surrounding operator.
func atom(p Path) string {
	switch p.(type) {
	case Predicate, Negated:
		return p.String()
	default:
		return "(" + p.String() + ")"
	}
}
