package satx

// Unary is a truncated unary (thermometer) counter: Unary[i] is true iff
// the represented value is >= i+1. A chain of monotonicity clauses
// enforced at construction time keeps it a valid thermometer, so the
// only operation ever needed on it is asking "is the value >= k" — which
// is just indexing — or its negation, used by LteConst.
type Unary []Lit

// FromBool lifts a single literal into a bound-1 unary value: true means
// 1, false means 0.
func FromBool(l Lit) Unary {
	return Unary{l}
}

// MulConst scales a unary value by a non-negative constant. Because
// c*value >= k iff value >= ceil(k/c), the result can reuse the same
// literals rather than allocate new ones: each original digit is simply
// repeated c times.
func (u Unary) MulConst(c int) Unary {
	if c <= 0 {
		return Unary{}
	}
	out := make(Unary, 0, len(u)*c)
	for _, lit := range u {
		for r := 0; r < c; r++ {
			out = append(out, lit)
		}
	}
	return out
}

// LteConst returns a literal asserting that the represented value is <=
// n. Used both as a solve assumption (transient) and, during binary
// search, as a clause added permanently to tighten the search.
func (u Unary) LteConst(s *Solver, n int) Lit {
	if n < 0 {
		return s.FalseLit()
	}
	if n >= len(u) {
		return s.TrueLit()
	}
	return u[n].Negate()
}

// mergeTwo combines two unary values into one representing their sum,
// truncated at bound. It only asserts the forward implications needed
// for LteConst to be sound (large enough components force the
// corresponding output digit true); it never forces an output digit
// true that isn't implied, which is exactly what a truncated sum needs.
func mergeTwo(s *Solver, a, b Unary, bound int) Unary {
	total := len(a) + len(b)
	if bound > total {
		bound = total
	}
	if bound < 0 {
		bound = 0
	}
	c := make(Unary, bound)
	for t := 0; t < bound; t++ {
		c[t] = s.NewLit()
	}
	for t := 1; t < bound; t++ {
		s.AddClause(c[t].Negate(), c[t-1])
	}
	for i := 1; i <= len(a) && i <= bound; i++ {
		s.AddClause(a[i-1].Negate(), c[i-1])
	}
	for j := 1; j <= len(b) && j <= bound; j++ {
		s.AddClause(b[j-1].Negate(), c[j-1])
	}
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if i+j > bound {
				continue
			}
			s.AddClause(a[i-1].Negate(), b[j-1].Negate(), c[i+j-1])
		}
	}
	return c
}

// SumTruncate adds up a set of unary terms, clamping the result at k.
// The clamp is essential for tractability: without it the encoding size
// grows with the product of all term bounds rather than with k.
func SumTruncate(s *Solver, terms []Unary, k int) Unary {
	acc := Unary{}
	for _, t := range terms {
		acc = mergeTwo(s, acc, t, k)
	}
	return acc
}

// Sum adds up a set of unary terms without truncation.
func Sum(s *Solver, terms []Unary) Unary {
	total := 0
	for _, t := range terms {
		total += len(t)
	}
	return SumTruncate(s, terms, total)
}
