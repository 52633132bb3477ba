package satx

import (
	"errors"

	"github.com/crillab/gophersat/solver"
	log "gopkg.in/inconshreveable/log15.v2"
)

// ErrUnsat is returned by SolveUnderAssumptions when the assumptions
// conflict with the permanent clause set. Creation of a variable never
// fails; only solving can.
var ErrUnsat = errors.New("satx: unsatisfiable under assumptions")

var logger log.Logger = log.Root()

// SetLogger rebinds the package logger under the given parent, following
// the same module-tagging convention as the rest of this repository.
func SetLogger(parent log.Logger) {
	logger = parent.New("module", "satx")
}

// Lit is a DIMACS-style signed literal: a positive value names variable
// v, a negative value names its negation. Lit(0) never occurs.
type Lit int

// Negate returns the complementary literal.
func (l Lit) Negate() Lit { return -l }

// Solver accumulates a permanent, append-only set of clauses over a
// growing set of variables. It does not keep an incremental solver
// instance alive between calls: gophersat's solver.Solver has no
// assumption push/pop, so each SolveUnderAssumptions call re-parses the
// accumulated clauses (plus one unit clause per assumption) into a fresh
// solver.Problem. This keeps the "clauses are append-only" invariant
// trivially true, at the cost of re-solving from scratch every call.
type Solver struct {
	nVars   int
	clauses [][]Lit
	trueLit Lit
}

// NewSolver creates an empty solver and reserves a literal that is
// always true, used internally by Unary.LteConst and by callers that
// need an always-satisfied literal as a placeholder assumption.
func NewSolver() *Solver {
	s := &Solver{}
	tl := s.NewLit()
	s.AddClause(tl)
	s.trueLit = tl
	return s
}

// NewLit allocates a fresh propositional variable and returns its
// positive literal.
func (s *Solver) NewLit() Lit {
	s.nVars++
	return Lit(s.nVars)
}

// TrueLit returns a literal that is permanently asserted true.
func (s *Solver) TrueLit() Lit { return s.trueLit }

// FalseLit returns a literal that is permanently asserted false.
func (s *Solver) FalseLit() Lit { return s.trueLit.Negate() }

// AddClause appends a disjunction of literals to the permanent clause
// set. Adding clauses only ever removes models; it is never undone.
func (s *Solver) AddClause(lits ...Lit) {
	cl := make([]Lit, len(lits))
	copy(cl, lits)
	s.clauses = append(s.clauses, cl)
}

// AndLiteral returns a fresh literal equivalent (by Tseitin encoding) to
// the conjunction of lits. An empty conjunction is vacuously true.
func (s *Solver) AndLiteral(lits []Lit) Lit {
	if len(lits) == 0 {
		return s.TrueLit()
	}
	if len(lits) == 1 {
		return lits[0]
	}
	z := s.NewLit()
	for _, l := range lits {
		s.AddClause(z.Negate(), l)
	}
	big := make([]Lit, 0, len(lits)+1)
	for _, l := range lits {
		big = append(big, l.Negate())
	}
	big = append(big, z)
	s.AddClause(big...)
	return z
}

// OrLiteral returns a fresh literal equivalent to the disjunction of
// lits, built as the De Morgan dual of AndLiteral.
func (s *Solver) OrLiteral(lits []Lit) Lit {
	if len(lits) == 0 {
		return s.FalseLit()
	}
	if len(lits) == 1 {
		return lits[0]
	}
	neg := make([]Lit, len(lits))
	for i, l := range lits {
		neg[i] = l.Negate()
	}
	return s.AndLiteral(neg).Negate()
}

// Model is a satisfying assignment returned by a successful solve.
type Model struct {
	values []bool // values[v-1] is the truth value of variable v
}

// Value reports the truth value of lit under this model.
func (m *Model) Value(l Lit) bool {
	v := int(l)
	neg := v < 0
	if neg {
		v = -v
	}
	val := m.values[v-1]
	if neg {
		return !val
	}
	return val
}

// SolveUnderAssumptions solves the permanent clause set together with
// one unit clause per assumption literal. It never mutates the
// permanent clause set. On success it returns a Model; on conflict it
// returns ErrUnsat.
func (s *Solver) SolveUnderAssumptions(assumptions ...Lit) (*Model, error) {
	dimacs := make([][]int, 0, len(s.clauses)+len(assumptions))
	for _, c := range s.clauses {
		row := make([]int, len(c))
		for i, l := range c {
			row[i] = int(l)
		}
		dimacs = append(dimacs, row)
	}
	for _, a := range assumptions {
		dimacs = append(dimacs, []int{int(a)})
	}

	pb := solver.ParseSlice(dimacs)
	if pb.NbVars < s.nVars {
		pb.NbVars = s.nVars
	}
	slv := solver.New(pb)
	status := slv.Solve()
	if status != solver.Sat {
		logger.Debug("solve under assumptions failed", "nbVars", s.nVars, "nbClauses", len(dimacs), "nbAssumptions", len(assumptions))
		return nil, ErrUnsat
	}
	return &Model{values: slv.Model()}, nil
}
