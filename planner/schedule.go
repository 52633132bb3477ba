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

package planner

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/keepsky/trainspotting/model"
	"github.com/keepsky/trainspotting/satx"
)

// ErrHorizonExhausted is returned by MkSchedule when no satisfying
// schedule was found within maxStates states. The caller decides
// whether to retry with a larger horizon or give up.
var ErrHorizonExhausted = errors.New("planner: no schedule within horizon")

// EndStateCondition is true exactly when every train in usage has
// completed all of its visits and is terminal (departed, or parked on
// an exit-boundary route) at state.
func EndStateCondition(s *satx.Solver, usage model.Usage, state *State) satx.Lit {
	ids := make([]model.TrainId, 0, len(usage.Trains))
	for t := range usage.Trains {
		ids = append(ids, t)
	}
	sort.Ints(ids)

	var terminal []satx.Lit
	for _, t := range ids {
		tp := state.Trains[t]
		terminal = append(terminal, tp.Terminal(s))
	}
	return s.AndLiteral(terminal)
}

// MkSchedule grows a usage's state horizon one state at a time, trying
// after each new state whether the horizon can already end (every train
// terminal). It stops and returns the first satisfying horizon found,
// or ErrHorizonExhausted once maxStates states have been built without
// success. The clauses it asserts on the solver are permanent: calling
// MkSchedule again on the same solver after a successful call explores
// disjoint models only via assumptions or DisallowSchedule, never by
// retracting anything already asserted.
func MkSchedule(s *satx.Solver, inf model.Infrastructure, usage model.Usage, activeSignals map[model.SignalId]satx.Lit, maxStates int) ([]*State, *satx.Model, error) {
	var states []*State
	var prev *State
	for i := 0; i < maxStates; i++ {
		st := MkState(s, prev, inf, usage, activeSignals)
		states = append(states, st)
		prev = st

		end := EndStateCondition(s, usage, st)
		m, err := s.SolveUnderAssumptions(end)
		if err == satx.ErrUnsat {
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		return states, m, nil
	}
	return nil, nil, ErrHorizonExhausted
}

// DisallowSchedule asserts a permanent blocking clause excluding the
// exact combination of active routes observed in model across all of
// states, forcing any subsequent solve to find a different schedule (or
// prove none exists).
func DisallowSchedule(s *satx.Solver, states []*State, m *satx.Model) {
	var blocking []satx.Lit
	for _, st := range states {
		ids := make([]model.PartialRouteId, 0, len(st.Routes))
		for id := range st.Routes {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool {
			if ids[i].Elementary != ids[j].Elementary {
				return ids[i].Elementary < ids[j].Elementary
			}
			return ids[i].Segment < ids[j].Segment
		})
		for _, id := range ids {
			active := st.Routes[id].Active
			if m.Value(active) {
				blocking = append(blocking, active.Negate())
			} else {
				blocking = append(blocking, active)
			}
		}
	}
	if len(blocking) == 0 {
		return
	}
	s.AddClause(blocking...)
}

// FormatSchedule renders states under model as a human-readable table,
// one line per state, listing the train occupying each active route.
// Intended for debug logging, not machine consumption.
func FormatSchedule(states []*State, m *satx.Model) string {
	var b strings.Builder
	for i, st := range states {
		ids := make([]model.PartialRouteId, 0, len(st.Routes))
		for id := range st.Routes {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(a, c int) bool {
			if ids[a].Elementary != ids[c].Elementary {
				return ids[a].Elementary < ids[c].Elementary
			}
			return ids[a].Segment < ids[c].Segment
		})

		fmt.Fprintf(&b, "state %d:", i)
		any := false
		for _, id := range ids {
			slot := st.Routes[id]
			if !m.Value(slot.Active) {
				continue
			}
			any = true
			fmt.Fprintf(&b, " %d/%d=", id.Elementary, id.Segment)
			wrote := false
			for t := range st.Trains {
				if m.Value(slot.Occupation.HasValue(someOcc(t))) {
					fmt.Fprintf(&b, "train%d", t)
					wrote = true
					break
				}
			}
			if !wrote {
				b.WriteString("?")
			}
		}
		if !any {
			b.WriteString(" (empty)")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// ExtractRoutePlan reads a concrete RoutePlan out of states under model:
// one row per state, one entry per partial route, nil when the route is
// inactive at that state.
func ExtractRoutePlan(states []*State, m *satx.Model) RoutePlan {
	plan := make(RoutePlan, len(states))
	for i, st := range states {
		row := make(map[model.PartialRouteId]*model.TrainId, len(st.Routes))
		for id, slot := range st.Routes {
			if !m.Value(slot.Active) {
				row[id] = nil
				continue
			}
			for t := range st.Trains {
				t := t
				if m.Value(slot.Occupation.HasValue(someOcc(t))) {
					row[id] = &t
					break
				}
			}
		}
		plan[i] = row
	}
	return plan
}
