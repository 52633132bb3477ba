package satx

import "testing"

func TestSolveUnderAssumptionsBasic(t *testing.T) {
	s := NewSolver()
	a := s.NewLit()
	b := s.NewLit()
	s.AddClause(a, b) // a OR b

	model, err := s.SolveUnderAssumptions(a.Negate())
	if err != nil {
		t.Fatalf("expected sat, got %v", err)
	}
	if !model.Value(b) {
		t.Fatalf("expected b true when a is false")
	}
}

func TestSolveUnderAssumptionsUnsat(t *testing.T) {
	s := NewSolver()
	a := s.NewLit()
	s.AddClause(a)

	if _, err := s.SolveUnderAssumptions(a.Negate()); err != ErrUnsat {
		t.Fatalf("expected ErrUnsat, got %v", err)
	}
}

func TestAndLiteral(t *testing.T) {
	s := NewSolver()
	a := s.NewLit()
	b := s.NewLit()
	z := s.AndLiteral([]Lit{a, b})

	model, err := s.SolveUnderAssumptions(a, b)
	if err != nil {
		t.Fatalf("expected sat: %v", err)
	}
	if !model.Value(z) {
		t.Fatalf("expected z true when a and b true")
	}

	if _, err := s.SolveUnderAssumptions(a, b.Negate(), z); err != ErrUnsat {
		t.Fatalf("expected unsat when z asserted but b false, got %v", err)
	}
}

func TestOrLiteral(t *testing.T) {
	s := NewSolver()
	a := s.NewLit()
	b := s.NewLit()
	z := s.OrLiteral([]Lit{a, b})

	if _, err := s.SolveUnderAssumptions(a.Negate(), b.Negate(), z); err != ErrUnsat {
		t.Fatalf("expected unsat when z asserted but both disjuncts false, got %v", err)
	}

	model, err := s.SolveUnderAssumptions(a, b.Negate())
	if err != nil {
		t.Fatalf("expected sat: %v", err)
	}
	if !model.Value(z) {
		t.Fatalf("expected z true when a true")
	}
}

func TestTrueFalseLit(t *testing.T) {
	s := NewSolver()
	if _, err := s.SolveUnderAssumptions(s.FalseLit()); err != ErrUnsat {
		t.Fatalf("expected unsat asserting FalseLit")
	}
	if _, err := s.SolveUnderAssumptions(s.TrueLit()); err != nil {
		t.Fatalf("expected sat asserting TrueLit: %v", err)
	}
}
