package optimize

import (
	"sort"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/keepsky/trainspotting/model"
	"github.com/keepsky/trainspotting/planner"
	"github.com/keepsky/trainspotting/satx"
)

// elementaryAtomic reports whether, in row, every elementary route's
// partial routes are either all occupied or all unoccupied.
func elementaryAtomic(inf model.Infrastructure, row map[model.PartialRouteId]*model.TrainId) bool {
	for _, group := range inf.ElementaryRoutes {
		active := 0
		for _, id := range group {
			if t, ok := row[id]; ok && t != nil {
				active++
			}
		}
		if active != 0 && active != len(group) {
			return false
		}
	}
	return true
}

// conflictsRespected reports whether row has no two mutually-conflicting
// partial routes simultaneously occupied.
func conflictsRespected(inf model.Infrastructure, row map[model.PartialRouteId]*model.TrainId) bool {
	for id, r := range inf.PartialRoutes {
		if len(r.Conflicts) == 0 || row[id] == nil {
			continue
		}
		for _, cref := range r.Conflicts[0] {
			if row[cref.Route] != nil {
				return false
			}
		}
	}
	return true
}

// elementaryTrace walks plan and returns the sequence of distinct
// elementary routes train occupies, collapsing consecutive repeats.
func elementaryTrace(plan planner.RoutePlan, train model.TrainId) []model.ElementaryRouteIdx {
	var trace []model.ElementaryRouteIdx
	for _, row := range plan {
		var here []model.ElementaryRouteIdx
		seen := make(map[model.ElementaryRouteIdx]bool)
		for id, t := range row {
			if t != nil && *t == train && !seen[id.Elementary] {
				seen[id.Elementary] = true
				here = append(here, id.Elementary)
			}
		}
		sort.Ints(here)
		for _, e := range here {
			if len(trace) == 0 || trace[len(trace)-1] != e {
				trace = append(trace, e)
			}
		}
	}
	return trace
}

// visitsSatisfiedInOrder reports whether trace contains, in order, a
// member of each of visits.
func visitsSatisfiedInOrder(trace []model.ElementaryRouteIdx, visits []model.RouteSet) bool {
	pos := 0
	for _, visit := range visits {
		found := false
		for ; pos < len(trace); pos++ {
			if visit.Contains(trace[pos]) {
				found = true
				pos++
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func TestOvertakeDispatchesRespectInvariants(t *testing.T) {
	Convey("Given the overtake scenario's first signal set", t, func() {
		inf, usage := overtakeModel()
		opt := NewSignalOptimizer(DefaultConfig(), inf, []model.Usage{usage})
		set, ok := opt.NextSignalSet()
		So(ok, ShouldBeTrue)

		dispatches := set.Dispatches()
		So(dispatches, ShouldHaveLength, 1)
		plans := dispatches[0]
		So(len(plans), ShouldBeGreaterThan, 0)

		Convey("every dispatch state respects elementary-route atomicity and conflict exclusion", func() {
			for _, plan := range plans {
				for _, row := range plan {
					So(elementaryAtomic(inf, row), ShouldBeTrue)
					So(conflictsRespected(inf, row), ShouldBeTrue)
				}
			}
		})

		Convey("every dispatch satisfies each train's visits in order", func() {
			for _, plan := range plans {
				for trainID, train := range usage.Trains {
					trace := elementaryTrace(plan, trainID)
					So(visitsSatisfiedInOrder(trace, train.Visits), ShouldBeTrue)
				}
			}
		})
	})
}

// feasibleWithoutSignal rebuilds the planner encoding from scratch with
// chosen's signals fixed active, sig fixed inactive, and every other
// candidate signal fixed inactive, then reports whether a feasible plan
// exists within a small bounded horizon.
func feasibleWithoutSignal(inf model.Infrastructure, usage model.Usage, chosen map[model.SignalId]struct{}, sig model.SignalId) bool {
	const maxStates = 6

	s := satx.NewSolver()
	activeSignals := make(map[model.SignalId]satx.Lit)
	for _, r := range inf.PartialRoutes {
		for _, candidate := range []model.SignalId{r.Entry, r.Exit} {
			if candidate.Kind != model.Signal {
				continue
			}
			if _, ok := activeSignals[candidate]; ok {
				continue
			}
			lit := s.NewLit()
			activeSignals[candidate] = lit
			_, isChosen := chosen[candidate]
			if candidate != sig && isChosen {
				s.AddClause(lit)
			} else {
				s.AddClause(lit.Negate())
			}
		}
	}

	var prev *planner.State
	for i := 0; i < maxStates; i++ {
		st := planner.MkState(s, prev, inf, usage, activeSignals)
		prev = st
		end := planner.EndStateCondition(s, usage, st)
		if _, err := s.SolveUnderAssumptions(end); err == nil {
			return true
		}
	}
	return false
}

func TestOvertakeSignalSetIsMinimal(t *testing.T) {
	Convey("Given the overtake scenario's first signal set", t, func() {
		inf, usage := overtakeModel()
		opt := NewSignalOptimizer(DefaultConfig(), inf, []model.Usage{usage})
		set, ok := opt.NextSignalSet()
		So(ok, ShouldBeTrue)

		chosen := set.Signals()
		So(len(chosen), ShouldBeGreaterThan, 0)

		Convey("removing any one active signal makes the usage infeasible within a bounded horizon", func() {
			for sig := range chosen {
				So(feasibleWithoutSignal(inf, usage, chosen, sig), ShouldBeFalse)
			}
		})
	})
}

func TestReduceDetectorsIsSubsetAndNecessary(t *testing.T) {
	Convey("Given the overtake scenario's first signal set and its reduced detectors", t, func() {
		inf, usage := overtakeModel()
		opt := NewSignalOptimizer(DefaultConfig(), inf, []model.Usage{usage})
		set, ok := opt.NextSignalSet()
		So(ok, ShouldBeTrue)

		dispatches := set.Dispatches()
		kept := set.ReduceDetectors(dispatches)

		candidates := make(map[model.SignalId]struct{})
		for _, r := range inf.PartialRoutes {
			if r.Entry.Kind == model.Detector {
				candidates[r.Entry] = struct{}{}
			}
			if r.Exit.Kind == model.Detector {
				candidates[r.Exit] = struct{}{}
			}
		}

		Convey("kept is a subset of the infrastructure's detector candidates", func() {
			for sig := range kept {
				So(sig.Kind, ShouldEqual, model.Detector)
				_, isCandidate := candidates[sig]
				So(isCandidate, ShouldBeTrue)
			}
		})

		Convey("forcing any kept detector inactive makes the reduction problem unsatisfiable", func() {
			for sig := range kept {
				rs, boundaryActive := opt.buildDetectorProblem(dispatches)
				assumptions := []satx.Lit{boundaryActive[sig].Negate()}
				for other, lit := range boundaryActive {
					if other == sig {
						continue
					}
					if _, isKept := kept[other]; isKept {
						assumptions = append(assumptions, lit)
					} else {
						assumptions = append(assumptions, lit.Negate())
					}
				}
				_, err := rs.SolveUnderAssumptions(assumptions...)
				So(err, ShouldEqual, satx.ErrUnsat)
			}
		})
	})
}
