// Copyright (C) 2008-2019 by Nicolas Piganeau and the TS2 TEAM
// (See AUTHORS file)
//
// This program is free software; you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation; either version 2 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program; if not, write to the
// Free Software Foundation, Inc.,
// 59 Temple Place - Suite 330, Boston, MA  02111-1307, USA.

package optimize

import (
	"github.com/keepsky/trainspotting/model"
	"github.com/keepsky/trainspotting/planner"
	"github.com/keepsky/trainspotting/satx"
)

// SignalSet is one candidate minimal set of active signals, together
// with the machinery to enumerate every dispatch (per-usage schedule
// combination) it admits. It is valid only until the optimizer it came
// from produces another SignalSet.
type SignalSet struct {
	optimizer  *SignalOptimizer
	generation int

	endState   satx.Lit
	thisSetLit satx.Lit
	signals    map[model.SignalId]struct{}
}

func (ss *SignalSet) checkLive() {
	if ss.optimizer.generation != ss.generation {
		panicInternal("signal set used after a later call to NextSignalSet")
	}
}

// Signals returns the chosen set of active signals.
func (ss *SignalSet) Signals() map[model.SignalId]struct{} {
	ss.checkLive()
	out := make(map[model.SignalId]struct{}, len(ss.signals))
	for sig := range ss.signals {
		out[sig] = struct{}{}
	}
	return out
}

// Dispatches enumerates the schedules each usage admits under this
// signal set, one slice of RoutePlans per usage. Each found schedule is
// excluded by its pattern of active routes, so schedules that differ only
// in which train occupies a route are returned once, not each.
func (ss *SignalSet) Dispatches() [][]planner.RoutePlan {
	ss.checkLive()
	o := ss.optimizer

	out := make([][]planner.RoutePlan, len(o.usages))
	for i := range o.usages {
		out[i] = ss.usageDispatches(o.states[i])
	}
	return out
}

func (ss *SignalSet) usageDispatches(states []*planner.State) []planner.RoutePlan {
	o := ss.optimizer
	var results []planner.RoutePlan
	assumptions := []satx.Lit{ss.endState, ss.thisSetLit}
	for {
		m, err := o.solve(assumptions...)
		if err != nil {
			break
		}
		plan := planner.ExtractRoutePlan(states, m)
		results = append(results, plan)

		o.Trace.Append("optimizer", "dispatch_found", map[string]interface{}{"states": len(states)})

		planner.DisallowSchedule(o.solver, states, m)
	}
	return results
}

// ReduceDetectors computes the minimal set of detectors needed to
// realize the given dispatches (one slice of RoutePlans per usage, as
// returned by Dispatches): a detector is required only where it
// disambiguates which of two adjacent partial routes a train is on, or
// where it is needed to exclude a conflicting route.
//
// It panics with an InternalError if the resulting detector problem is
// unsatisfiable, which would mean the dispatches passed in are not
// actually consistent with the infrastructure's own route conflicts —
// an invariant ReduceDetectors' caller is expected to uphold.
func (ss *SignalSet) ReduceDetectors(dispatches [][]planner.RoutePlan) map[model.SignalId]struct{} {
	ss.checkLive()
	o := ss.optimizer

	rs, boundaryActive := o.buildDetectorProblem(dispatches)

	var costs []satx.Unary
	for _, lit := range boundaryActive {
		costs = append(costs, satx.FromBool(lit))
	}
	sumCost := satx.Sum(rs, costs)

	lo, hi := 0, len(boundaryActive)
	for lo < hi {
		mid := (lo + hi) / 2
		if _, err := rs.SolveUnderAssumptions(sumCost.LteConst(rs, mid)); err == nil {
			hi = mid
			rs.AddClause(sumCost.LteConst(rs, mid))
		} else {
			lo = mid + 1
		}
	}
	bound := lo

	m, err := rs.SolveUnderAssumptions(sumCost.LteConst(rs, bound))
	if err != nil {
		panicInternal("reduce_detectors: inconsistent problem formulation")
	}

	result := make(map[model.SignalId]struct{})
	for sig, lit := range boundaryActive {
		if m.Value(lit) {
			result[sig] = struct{}{}
		}
	}
	o.Stats.RecordDetectorsPruned(len(boundaryActive) - len(result))
	o.Trace.Append("optimizer", "detectors_reduced", map[string]interface{}{
		"kept":  len(result),
		"total": len(boundaryActive),
	})
	return result
}

// buildDetectorProblem constructs the fresh, independent SAT problem
// §4.6 describes: one boundaryActive literal per distinct partial-route
// endpoint in o.inf, plus the detector-necessity and conflict-exclusion
// clauses for every (usage, dispatch, state) row in dispatches. It does
// not solve or minimize anything — ReduceDetectors drives the binary
// search over the returned literals; callers that need to probe a
// specific endpoint's necessity (fixing it false and checking the rest
// of the problem) can do so directly against the returned solver too,
// since it is freshly built and owned by the caller.
func (o *SignalOptimizer) buildDetectorProblem(dispatches [][]planner.RoutePlan) (*satx.Solver, map[model.SignalId]satx.Lit) {
	rs := satx.NewSolver()

	boundaryActive := make(map[model.SignalId]satx.Lit)
	entryFor := make(map[model.SignalId][]model.PartialRouteId)
	exitFor := make(map[model.SignalId][]model.PartialRouteId)

	for id, r := range o.inf.PartialRoutes {
		if _, ok := boundaryActive[r.Entry]; !ok {
			boundaryActive[r.Entry] = rs.NewLit()
		}
		if _, ok := boundaryActive[r.Exit]; !ok {
			boundaryActive[r.Exit] = rs.NewLit()
		}
		entryFor[r.Entry] = append(entryFor[r.Entry], id)
		exitFor[r.Exit] = append(exitFor[r.Exit], id)
	}

	for usageIdx, usagePlans := range dispatches {
		nTrains := len(o.usages[usageIdx].Trains)
		for _, plan := range usagePlans {
			for _, row := range plan {
				occ := make(map[model.PartialRouteId]satx.Symbolic[optTrainSlot])
				for id := range o.inf.PartialRoutes {
					if fixed, ok := row[id]; ok && fixed != nil {
						occ[id] = satx.NewSymbolic(rs, []optTrainSlot{{present: true, train: *fixed}})
					} else {
						domain := make([]optTrainSlot, 0, nTrains+1)
						domain = append(domain, optTrainSlot{})
						for t := 0; t < nTrains; t++ {
							domain = append(domain, optTrainSlot{present: true, train: t})
						}
						occ[id] = satx.NewSymbolic(rs, domain)
					}
				}

				for sig := range boundaryActive {
					for train := 0; train < nTrains; train++ {
						for _, before := range exitFor[sig] {
							clause := []satx.Lit{boundaryActive[sig], occ[before].HasValue(optTrainSlot{present: true, train: train}).Negate()}
							for _, after := range entryFor[sig] {
								clause = append(clause, occ[after].HasValue(optTrainSlot{present: true, train: train}))
							}
							rs.AddClause(clause...)
						}
					}
				}

				for id, r := range o.inf.PartialRoutes {
					if len(r.Conflicts) == 0 {
						continue
					}
					for _, cref := range r.Conflicts[0] {
						other, ok := occ[cref.Route]
						if !ok {
							continue
						}
						rs.AddClause(occ[id].HasValue(optTrainSlot{}), other.HasValue(optTrainSlot{}))
					}
				}
			}
		}
	}

	return rs, boundaryActive
}

// optTrainSlot is ReduceDetectors' own occupation domain value: distinct
// from planner's unexported occValue since this pass reasons over fixed
// route plans rather than the live planning encoding.
type optTrainSlot struct {
	present bool
	train   model.TrainId
}
