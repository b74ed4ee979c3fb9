// Equality, hashing and total ordering over path expressions. The order is
// purely structural and has no semantic meaning; it exists so path sets can
// be deduplicated and rendered deterministically.
package path

import "hash/fnv"

// variantRank fixes the canonical ordering across variant kinds.
func variantRank(p Path) int {
	switch p.(type) {
	case Predicate:
		return 0
	case Inverse:
		return 1
	case Sequence:
		return 2
	case Alternative:
		return 3
	case Negated:
		return 4
	case Repeat:
		return 5
	default:
		return 6
	}
}

// Compare defines a strict weak ordering over paths: first by variant kind,
// then lexicographically by children. Compare(a, b) == 0 iff Equal(a, b).
func Compare(a, b Path) int {
	if ra, rb := variantRank(a), variantRank(b); ra != rb {
		return ra - rb
	}
	switch va := a.(type) {
	case Predicate:
		return va.Term.Compare(b.(Predicate).Term)
	case Inverse:
		return Compare(va.Inner, b.(Inverse).Inner)
	case Sequence:
		return comparePaths(va.parts, b.(Sequence).parts)
	case Alternative:
		// Members are canonically sorted at construction, so the unordered
		// set comparison reduces to a lexicographic one.
		return comparePaths(va.parts, b.(Alternative).parts)
	case Negated:
		vb := b.(Negated)
		for i := 0; i < len(va.steps) && i < len(vb.steps); i++ {
			if c := va.steps[i].compare(vb.steps[i]); c != 0 {
				return c
			}
		}
		return len(va.steps) - len(vb.steps)
	case Repeat:
		vb := b.(Repeat)
		if c := va.mod.compare(vb.mod); c != 0 {
			return c
		}
		return Compare(va.inner, vb.inner)
	default:
		return 0
	}
}

func comparePaths(a, b []Path) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}

// Equal reports structural equality. Alternative members and negated steps
// compare as sets thanks to their canonical construction order.
func Equal(a, b Path) bool {
	return Compare(a, b) == 0
}

// Hash returns a hash consistent with Equal: equal paths hash equally.
// It hashes the canonical rendering, which is unique per equivalence class.
func Hash(p Path) uint64 {
	h := fnv.New64a()
	h.Write([]byte(p.String()))
	return h.Sum64()
}
