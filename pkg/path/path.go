// Package path implements the property-path algebra of TernDB: the path
// expression types, their construction and normalization rules, a total
// order usable for deterministic output, the canonical text rendering, and
// the lazy, cycle-safe evaluator over any core.Graph.
//
// Path values are immutable once constructed. Composition always produces
// new values, so paths can be shared freely between goroutines; all
// traversal state lives inside a single Eval call.
package path

import (
	"fmt"
	"slices"

	"github.com/sanonone/terndb/pkg/core"
)

// InvalidPathError reports a structurally illegal path construction, such
// as an empty sequence or negating a path that contains repetition. It is
// only ever returned by construction functions; evaluation is total over
// any Path value that exists.
type InvalidPathError struct {
	Reason string
}

func (e *InvalidPathError) Error() string {
	return "invalid path: " + e.Reason
}

func invalidf(format string, args ...any) error {
	return &InvalidPathError{Reason: fmt.Sprintf(format, args...)}
}

// Path is a property-path expression. It is a closed union: the only
// implementations are Predicate, Inverse, Sequence, Alternative, Negated
// and Repeat, all defined in this package.
type Path interface {
	// String renders the path in the conventional path-algebra syntax.
	// The rendering is canonical and round-trips through a path parser.
	String() string

	isPath()
}

// Predicate is the base case: a single forward predicate edge.
type Predicate struct {
	Term core.Term
}

// Inverse traverses its inner path with subject and object swapped.
// Construction guarantees the inner path is a Predicate: Invert distributes
// over every other variant.
type Inverse struct {
	Inner Path
}

// Sequence is the concatenation of two or more paths: the object matched by
// part i is the subject for part i+1. Construction keeps sequences flat,
// never nested, and never empty.
type Sequence struct {
	parts []Path
}

// Parts returns a copy of the sequence members, in order.
func (s Sequence) Parts() []Path { return slices.Clone(s.parts) }

// Alternative is the union of two or more paths. Members form a set:
// construction deduplicates them and stores them in canonical order.
type Alternative struct {
	parts []Path
}

// Parts returns a copy of the alternative members, in canonical order.
func (a Alternative) Parts() []Path { return slices.Clone(a.parts) }

// Step is one excluded (predicate, direction) entry of a negated path.
type Step struct {
	Predicate core.Term
	Inverse   bool
}

func (s Step) compare(o Step) int {
	if s.Inverse != o.Inverse {
		if !s.Inverse {
			return -1
		}
		return 1
	}
	return s.Predicate.Compare(o.Predicate)
}

// Negated matches any single edge, in either direction, whose predicate and
// direction are not in the excluded set.
type Negated struct {
	steps []Step
}

// Steps returns a copy of the excluded steps, in canonical order.
func (n Negated) Steps() []Step { return slices.Clone(n.steps) }

// modKind discriminates repetition modes.
type modKind uint8

const (
	modZeroOrMore modKind = iota
	modOneOrMore
	modZeroOrOne
	modExact
)

// Mod selects a repetition mode for NewRepeat.
type Mod struct {
	kind  modKind
	count int
}

// Repetition modes. Exact counts are built with Exactly.
var (
	ZeroOrMore = Mod{kind: modZeroOrMore}
	OneOrMore  = Mod{kind: modOneOrMore}
	ZeroOrOne  = Mod{kind: modZeroOrOne}
)

// Exactly returns the mode repeating a path exactly n times.
func Exactly(n int) Mod {
	return Mod{kind: modExact, count: n}
}

// Count returns the repetition count for an Exactly mode, and whether the
// mode is an exact count at all.
func (m Mod) Count() (int, bool) { return m.count, m.kind == modExact }

func (m Mod) compare(o Mod) int {
	if m.kind != o.kind {
		if m.kind < o.kind {
			return -1
		}
		return 1
	}
	return m.count - o.count
}

// Repeat applies its inner path repeatedly according to the mode.
type Repeat struct {
	inner Path
	mod   Mod
}

// Inner returns the repeated path.
func (r Repeat) Inner() Path { return r.inner }

// Mod returns the repetition mode.
func (r Repeat) Mod() Mod { return r.mod }

func (Predicate) isPath()   {}
func (Inverse) isPath()     {}
func (Sequence) isPath()    {}
func (Alternative) isPath() {}
func (Negated) isPath()     {}
func (Repeat) isPath()      {}

// NewPredicate creates the path matching a single forward edge with the
// given predicate.
func NewPredicate(p core.Term) Path {
	return Predicate{Term: p}
}

// Invert returns the inversion of p. It is total and structural:
// Invert(Invert(p)) is structurally identical to p, sequences are reversed
// with each part inverted, alternative members are inverted member-wise,
// and negated steps flip direction.
func Invert(p Path) Path {
	switch v := p.(type) {
	case Predicate:
		return Inverse{Inner: v}
	case Inverse:
		return v.Inner
	case Sequence:
		parts := make([]Path, len(v.parts))
		for i, part := range v.parts {
			parts[len(parts)-1-i] = Invert(part)
		}
		return Sequence{parts: parts}
	case Alternative:
		parts := make([]Path, len(v.parts))
		for i, part := range v.parts {
			parts[i] = Invert(part)
		}
		return Alternative{parts: canonicalSet(parts)}
	case Negated:
		steps := make([]Step, len(v.steps))
		for i, s := range v.steps {
			steps[i] = Step{Predicate: s.Predicate, Inverse: !s.Inverse}
		}
		return Negated{steps: canonicalSteps(steps)}
	case Repeat:
		return Repeat{inner: Invert(v.inner), mod: v.mod}
	default:
		// The union is closed; this is unreachable for constructed values.
		panic(fmt.Sprintf("path: unknown variant %T", p))
	}
}

// NewSequence concatenates the given paths. Parts that are themselves
// sequences are spliced in flat rather than nested. A single part is
// returned as-is; zero parts is an InvalidPathError.
func NewSequence(parts ...Path) (Path, error) {
	flat := make([]Path, 0, len(parts))
	for _, p := range parts {
		if p == nil {
			return nil, invalidf("sequence part is nil")
		}
		if seq, ok := p.(Sequence); ok {
			flat = append(flat, seq.parts...)
			continue
		}
		flat = append(flat, p)
	}
	switch len(flat) {
	case 0:
		return nil, invalidf("sequence requires at least one part")
	case 1:
		return flat[0], nil
	default:
		return Sequence{parts: flat}, nil
	}
}

// NewAlternative unions the given paths. Parts that are themselves
// alternatives are flattened; members are deduplicated and stored in
// canonical order so equality and rendering are set-based. A single member
// is returned as-is; zero members is an InvalidPathError.
func NewAlternative(parts ...Path) (Path, error) {
	flat := make([]Path, 0, len(parts))
	for _, p := range parts {
		if p == nil {
			return nil, invalidf("alternative part is nil")
		}
		if alt, ok := p.(Alternative); ok {
			flat = append(flat, alt.parts...)
			continue
		}
		flat = append(flat, p)
	}
	if len(flat) == 0 {
		return nil, invalidf("alternative requires at least one part")
	}
	flat = canonicalSet(flat)
	if len(flat) == 1 {
		return flat[0], nil
	}
	return Alternative{parts: flat}, nil
}

// Negate builds the negated path excluding p. The argument must resolve to
// a flat set of predicates and inverted predicates: a Predicate, an
// inverted Predicate, or an Alternative of those. Anything containing
// repetition, sequencing or further negation is an InvalidPathError.
func Negate(p Path) (Path, error) {
	if p == nil {
		return nil, invalidf("cannot negate nil path")
	}
	steps, err := negatedSteps(p)
	if err != nil {
		return nil, err
	}
	return Negated{steps: canonicalSteps(steps)}, nil
}

func negatedSteps(p Path) ([]Step, error) {
	switch v := p.(type) {
	case Predicate:
		return []Step{{Predicate: v.Term}}, nil
	case Inverse:
		pred, ok := v.Inner.(Predicate)
		if !ok {
			return nil, invalidf("cannot negate inverse of %T", v.Inner)
		}
		return []Step{{Predicate: pred.Term, Inverse: true}}, nil
	case Alternative:
		var steps []Step
		for _, part := range v.parts {
			sub, err := negatedSteps(part)
			if err != nil {
				return nil, err
			}
			steps = append(steps, sub...)
		}
		return steps, nil
	case Negated:
		return nil, invalidf("cannot negate a negated path")
	case Repeat:
		return nil, invalidf("cannot negate a path containing repetition")
	default:
		return nil, invalidf("cannot negate %T", p)
	}
}

// NewRepeat wraps p in the given repetition mode. Exactly(1) collapses to p
// itself; a negative exact count is an InvalidPathError. Repeating a repeat
// is legal and kept nested: (p*)+ is not the same expression as p*.
func NewRepeat(p Path, mod Mod) (Path, error) {
	if p == nil {
		return nil, invalidf("cannot repeat nil path")
	}
	if mod.kind == modExact {
		if mod.count < 0 {
			return nil, invalidf("negative repeat count %d", mod.count)
		}
		if mod.count == 1 {
			return p, nil
		}
	}
	return Repeat{inner: p, mod: mod}, nil
}

// canonicalSet sorts paths into canonical order and removes duplicates.
func canonicalSet(parts []Path) []Path {
	slices.SortFunc(parts, Compare)
	return slices.CompactFunc(parts, Equal)
}

// canonicalSteps sorts negated steps and removes duplicates.
func canonicalSteps(steps []Step) []Step {
	slices.SortFunc(steps, Step.compare)
	return slices.CompactFunc(steps, func(a, b Step) bool { return a.compare(b) == 0 })
}
