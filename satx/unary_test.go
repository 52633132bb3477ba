package satx

import "testing"

func TestUnaryLteConst(t *testing.T) {
	s := NewSolver()
	bits := []Lit{s.NewLit(), s.NewLit(), s.NewLit()}
	// Force monotonicity the way mergeTwo/SumTruncate would for a
	// 3-valued counter: bits[i] true implies bits[i-1] true.
	s.AddClause(bits[1].Negate(), bits[0])
	s.AddClause(bits[2].Negate(), bits[1])
	u := Unary(bits)

	// value == 2: bits = [true, true, false]
	if _, err := s.SolveUnderAssumptions(bits[0], bits[1], bits[2].Negate(), u.LteConst(s, 1)); err != ErrUnsat {
		t.Fatalf("expected unsat: value 2 should violate <=1")
	}
	if _, err := s.SolveUnderAssumptions(bits[0], bits[1], bits[2].Negate(), u.LteConst(s, 2)); err != nil {
		t.Fatalf("expected sat: value 2 satisfies <=2: %v", err)
	}
}

func TestSumTruncateCountsCorrectly(t *testing.T) {
	s := NewSolver()
	a := FromBool(s.NewLit())
	b := FromBool(s.NewLit())
	c := FromBool(s.NewLit())
	sum := SumTruncate(s, []Unary{a, b, c}, 4)

	// All three true: sum should be 3, so <=2 must be unsat and <=3 sat.
	if _, err := s.SolveUnderAssumptions(a[0], b[0], c[0], sum.LteConst(s, 2)); err != ErrUnsat {
		t.Fatalf("expected unsat: sum of three true bits is 3, not <=2")
	}
	if _, err := s.SolveUnderAssumptions(a[0], b[0], c[0], sum.LteConst(s, 3)); err != nil {
		t.Fatalf("expected sat: %v", err)
	}
}

func TestSumTruncateClampsSize(t *testing.T) {
	s := NewSolver()
	terms := make([]Unary, 5)
	for i := range terms {
		terms[i] = FromBool(s.NewLit())
	}
	sum := SumTruncate(s, terms, 2)
	if len(sum) != 2 {
		t.Fatalf("expected truncated sum to have bound 2, got %d", len(sum))
	}
}

func TestMulConst(t *testing.T) {
	s := NewSolver()
	l := s.NewLit()
	u := FromBool(l).MulConst(3)
	if len(u) != 3 {
		t.Fatalf("expected mul_const(3) of a bound-1 unary to have length 3, got %d", len(u))
	}

	model, err := s.SolveUnderAssumptions(l)
	if err != nil {
		t.Fatalf("expected sat: %v", err)
	}
	for _, bit := range u {
		if !model.Value(bit) {
			t.Fatalf("expected every replicated digit true when source literal is true")
		}
	}
}
