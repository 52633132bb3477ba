package planner

import (
	"sort"

	"github.com/keepsky/trainspotting/model"
	"github.com/keepsky/trainspotting/satx"
)

// occupationDomain lists every possible occupation value for a usage,
// in a stable order: None first, then Some(t) for every train id in
// ascending order.
func occupationDomain(usage model.Usage) []occValue {
	ids := make([]model.TrainId, 0, len(usage.Trains))
	for t := range usage.Trains {
		ids = append(ids, t)
	}
	sort.Ints(ids)
	domain := make([]occValue, 0, len(ids)+1)
	domain = append(domain, noneOcc)
	for _, t := range ids {
		domain = append(domain, someOcc(t))
	}
	return domain
}

// sortedElementaryIndices returns the elementary-route indices that
// appear in inf.ElementaryRoutes, in ascending order, for deterministic
// clause generation.
func sortedElementaryIndices(inf model.Infrastructure) []int {
	idx := make([]int, len(inf.ElementaryRoutes))
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func sortedRouteIds(inf model.Infrastructure) []model.PartialRouteId {
	ids := make([]model.PartialRouteId, 0, len(inf.PartialRoutes))
	for id := range inf.PartialRoutes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if ids[i].Elementary != ids[j].Elementary {
			return ids[i].Elementary < ids[j].Elementary
		}
		return ids[i].Segment < ids[j].Segment
	})
	return ids
}

// sigActive returns the literal asserting that endpoint sig is active:
// the caller-supplied activation literal for Signal endpoints, or an
// always-true literal for every other endpoint kind (Boundary,
// Detector, and Anonymous are never excluded by the main encoding —
// detectors are handled separately by the detector-reduction pass).
func sigActive(s *satx.Solver, activeSignals map[model.SignalId]satx.Lit, sig model.SignalId) satx.Lit {
	if activeSignals == nil {
		return s.TrueLit()
	}
	if sig.Kind != model.Signal {
		return s.TrueLit()
	}
	if lit, ok := activeSignals[sig]; ok {
		return lit
	}
	return s.TrueLit()
}

// routesWithExit returns every partial route whose exit equals sig,
// excluding the route named by self (if non-nil).
func routesWithExit(inf model.Infrastructure, sig model.SignalId, self *model.PartialRouteId) []model.PartialRouteId {
	var out []model.PartialRouteId
	for id, r := range inf.PartialRoutes {
		if self != nil && id == *self {
			continue
		}
		if r.Exit == sig {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Elementary != out[j].Elementary {
			return out[i].Elementary < out[j].Elementary
		}
		return out[i].Segment < out[j].Segment
	})
	return out
}

// MkState builds the next propositional state of usage's planner
// encoding, given the previous state (or nil for the first state). If
// activeSignals is non-nil, route allocation additionally requires both
// endpoints of the route to be active signals (or boundaries/detectors,
// which are always considered active here).
func MkState(s *satx.Solver, prev *State, inf model.Infrastructure, usage model.Usage, activeSignals map[model.SignalId]satx.Lit) *State {
	domain := occupationDomain(usage)
	routeIds := sortedRouteIds(inf)

	elemActive := make([]satx.Lit, len(inf.ElementaryRoutes))
	for _, e := range sortedElementaryIndices(inf) {
		elemActive[e] = s.NewLit()
	}

	routes := make(map[model.PartialRouteId]RouteSlot, len(routeIds))
	for _, id := range routeIds {
		r := inf.PartialRoutes[id]
		active := elemActive[id.Elementary]
		occ := satx.NewSymbolic(s, domain)

		// #2 allocation requires valid boundaries
		s.AddClause(active.Negate(), sigActive(s, activeSignals, r.Entry))
		s.AddClause(active.Negate(), sigActive(s, activeSignals, r.Exit))

		// #5 occupation <-> activation
		s.AddClause(active.Negate(), occ.HasValue(noneOcc).Negate())
		s.AddClause(active, occ.HasValue(noneOcc))

		routes[id] = RouteSlot{Active: active, Occupation: occ}
	}

	// #3 conflict exclusion, using overlap choice 0 (the only overlap
	// the current specification ever populates; the index is reserved
	// for future multi-overlap support).
	for _, id := range routeIds {
		r := inf.PartialRoutes[id]
		if len(r.Conflicts) == 0 {
			continue
		}
		for _, cref := range r.Conflicts[0] {
			other, ok := routes[cref.Route]
			if !ok {
				continue
			}
			s.AddClause(routes[id].Active.Negate(), other.Active.Negate())
		}
	}

	// newlyEntered[id][t] is true iff train t newly starts occupying
	// route id this step (it was not occupying it at the previous
	// state, or this is the first state).
	newlyEntered := make(map[model.PartialRouteId]map[model.TrainId]satx.Lit, len(routeIds))
	for _, id := range routeIds {
		r := inf.PartialRoutes[id]
		slot := routes[id]
		newlyEntered[id] = make(map[model.TrainId]satx.Lit, len(usage.Trains))
		for t := range usage.Trains {
			hasNow := slot.Occupation.HasValue(someOcc(t))
			var wasPrev satx.Lit
			if prev != nil {
				if prevSlot, ok := prev.Routes[id]; ok {
					wasPrev = prevSlot.Occupation.HasValue(someOcc(t))
				} else {
					wasPrev = s.FalseLit()
				}
			} else {
				wasPrev = s.FalseLit()
			}
			nLit := s.AndLiteral([]satx.Lit{hasNow, wasPrev.Negate()})
			newlyEntered[id][t] = nLit

			// #6 train continuity (simplified): a train can only newly
			// enter a route from a model boundary, or by continuing
			// from an adjacent route it occupied at the previous step.
			if r.Entry != model.BoundarySignal {
				preds := routesWithExit(inf, r.Entry, &id)
				var predLits []satx.Lit
				if prev != nil {
					for _, p := range preds {
						if prevSlot, ok := prev.Routes[p]; ok {
							predLits = append(predLits, prevSlot.Occupation.HasValue(someOcc(t)))
						}
					}
				}
				allowed := s.OrLiteral(predLits)
				s.AddClause(nLit.Negate(), allowed)
			}

			// #11 wait_conflict: a route may only progress (be newly
			// entered) while its named conflicting route is free.
			if r.WaitConflict != nil {
				if waitSlot, ok := routes[r.WaitConflict.Route]; ok {
					s.AddClause(nLit.Negate(), waitSlot.Active.Negate())
				}
			}
		}
	}

	trains := make(map[model.TrainId]*TrainProgress, len(usage.Trains))
	trainIds := make([]model.TrainId, 0, len(usage.Trains))
	for t := range usage.Trains {
		trainIds = append(trainIds, t)
	}
	sort.Ints(trainIds)

	for _, t := range trainIds {
		train := usage.Trains[t]
		n := len(train.Visits)

		completedDomain := make([]int, n+1)
		for i := range completedDomain {
			completedDomain[i] = i
		}
		completed := satx.NewSymbolic(s, completedDomain)

		var prevCompleted *satx.Symbolic[int]
		if prev != nil {
			if pt, ok := prev.Trains[t]; ok {
				prevCompleted = &pt.Completed
			}
		}

		// #7 progress on visits: increments by exactly one, exactly
		// when the train newly enters a route whose elementary route
		// is in the next required visit set; otherwise unchanged.
		for c := 0; c <= n; c++ {
			var prevHasC satx.Lit
			if prevCompleted != nil {
				prevHasC = prevCompleted.HasValue(c)
			} else {
				if c == 0 {
					prevHasC = s.TrueLit()
				} else {
					prevHasC = s.FalseLit()
				}
			}

			if c < n {
				var matching []satx.Lit
				for _, id := range routeIds {
					if usage.Trains[t].Visits[c].Contains(id.Elementary) {
						matching = append(matching, newlyEntered[id][t])
					}
				}
				anyMatch := s.OrLiteral(matching)

				// old==c and a matching route newly entered => new==c+1
				s.AddClause(prevHasC.Negate(), anyMatch.Negate(), completed.HasValue(c+1))
				// old==c and no matching route newly entered => new==c
				s.AddClause(prevHasC.Negate(), anyMatch, completed.HasValue(c))
			} else {
				// all visits already satisfied: stays satisfied
				s.AddClause(prevHasC.Negate(), completed.HasValue(c))
			}
		}

		// #8 currently sitting on an exit-boundary route. Spawning
		// itself needs no separate latch: #6 continuity already
		// requires that a train newly entering a non-boundary-entry
		// route have occupied a predecessor route the step before, so
		// by induction from the first state (where that predecessor
		// requirement forces false) every train's occupation traces
		// back to a boundary-entry route.
		var atExit []satx.Lit
		for _, id := range routeIds {
			if inf.PartialRoutes[id].Exit == model.BoundarySignal {
				atExit = append(atExit, routes[id].Occupation.HasValue(someOcc(t)))
			}
		}
		atExitLit := s.OrLiteral(atExit)

		// everExited: latched true once a state transition is observed
		// where the train held an exit-boundary route and now occupies
		// nothing at all.
		var everExitedLit satx.Lit
		if prev == nil {
			everExitedLit = s.FalseLit()
		} else {
			pt := prev.Trains[t]
			var prevAtExit satx.Lit
			var prevEverExited satx.Lit
			if pt != nil {
				prevAtExit = pt.atExitBoundary
				prevEverExited = pt.everExited
			} else {
				prevAtExit = s.FalseLit()
				prevEverExited = s.FalseLit()
			}
			var occupiesNothing []satx.Lit
			for _, id := range routeIds {
				occupiesNothing = append(occupiesNothing, routes[id].Occupation.HasValue(someOcc(t)).Negate())
			}
			nowEmpty := s.AndLiteral(occupiesNothing)
			exitedNow := s.AndLiteral([]satx.Lit{prevAtExit, nowEmpty})
			everExitedLit = s.OrLiteral([]satx.Lit{prevEverExited, exitedNow})
		}

		trains[t] = &TrainProgress{
			Completed:      completed,
			everExited:     everExitedLit,
			atExitBoundary: atExitLit,
			nVisits:        n,
		}
	}

	// #10 ordering: for each TrainOrd{A,B}, the first step at which A
	// is active must not be later than the first step at which B is
	// active.
	everActive := make(map[model.PartialRouteId]satx.Lit, len(routeIds))
	for _, id := range routeIds {
		var prevEver satx.Lit
		if prev != nil {
			if l, ok := prev.EverActive[id]; ok {
				prevEver = l
			} else {
				prevEver = s.FalseLit()
			}
		} else {
			prevEver = s.FalseLit()
		}
		everActive[id] = s.OrLiteral([]satx.Lit{prevEver, routes[id].Active})
	}

	for _, ord := range usage.TrainOrd {
		aSlot, aok := routes[ord.A]
		bSlot, bok := routes[ord.B]
		if !aok || !bok {
			continue
		}
		var prevEverA, prevEverB satx.Lit
		if prev != nil {
			if l, ok := prev.EverActive[ord.A]; ok {
				prevEverA = l
			} else {
				prevEverA = s.FalseLit()
			}
			if l, ok := prev.EverActive[ord.B]; ok {
				prevEverB = l
			} else {
				prevEverB = s.FalseLit()
			}
		} else {
			prevEverA = s.FalseLit()
			prevEverB = s.FalseLit()
		}
		// bSlot active now, not previously ever active => a must
		// already be (ever) active by now.
		s.AddClause(bSlot.Active.Negate(), prevEverB, prevEverA, aSlot.Active)
	}

	return &State{
		Routes:     routes,
		Trains:     trains,
		EverActive: everActive,
	}
}
