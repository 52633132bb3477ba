package satx

import "testing"

func TestSymbolicExactlyOne(t *testing.T) {
	s := NewSolver()
	sym := NewSymbolic(s, []string{"none", "red", "green"})

	model, err := s.SolveUnderAssumptions(sym.HasValue("red"))
	if err != nil {
		t.Fatalf("expected sat: %v", err)
	}
	if !model.Value(sym.HasValue("red")) {
		t.Fatalf("expected red true")
	}
	if model.Value(sym.HasValue("green")) {
		t.Fatalf("expected green false when red is asserted")
	}

	if _, err := s.SolveUnderAssumptions(sym.HasValue("red"), sym.HasValue("green")); err != ErrUnsat {
		t.Fatalf("expected unsat: two values can't both hold")
	}
}

func TestSymbolicUnknownValueIsFalse(t *testing.T) {
	s := NewSolver()
	sym := NewSymbolic(s, []int{1, 2, 3})
	if _, err := s.SolveUnderAssumptions(sym.HasValue(99)); err != ErrUnsat {
		t.Fatalf("expected unsat: value outside domain must be unsatisfiable when asserted")
	}
}
