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

// Package planner builds, per usage, a growing list of propositional
// states: snapshots of which partial routes are active and which train
// occupies each. State i+1 is constrained relative to state i so that
// valid models of the solver form a feasible movement plan.
package planner

import (
	log "gopkg.in/inconshreveable/log15.v2"

	"github.com/keepsky/trainspotting/model"
	"github.com/keepsky/trainspotting/satx"
)

var logger log.Logger = log.Root()

// SetLogger rebinds the package logger under the given parent.
func SetLogger(parent log.Logger) {
	logger = parent.New("module", "planner")
}

// occValue is the comparable domain value for a route's occupation
// symbolic: either unoccupied, or occupied by a specific train.
type occValue struct {
	present bool
	train   model.TrainId
}

var noneOcc = occValue{}

func someOcc(t model.TrainId) occValue { return occValue{present: true, train: t} }

// RouteSlot is the propositional state of one partial route at one
// step: whether it is active, and, if so, which train occupies it.
type RouteSlot struct {
	Active     satx.Lit
	Occupation satx.Symbolic[occValue]
}

// TrainProgress is the propositional state of one train at one step:
// how many of its visits have been satisfied so far, and the bits used
// for exit bookkeeping (a latched "has exited" bit and a per-state
// "on an exit-boundary route" bit).
type TrainProgress struct {
	// Completed is one-hot over 0..len(visits), the number of visits
	// satisfied so far.
	Completed satx.Symbolic[int]

	// everExited latches true once the train has, in some earlier
	// transition, vacated every route after having last held one whose
	// exit is a model boundary.
	everExited satx.Lit

	// atExitBoundary is true if, at this very state, the train
	// occupies some route whose exit is a model boundary.
	atExitBoundary satx.Lit

	// nVisits is len(train.Visits), the value Completed must reach for
	// every visit to be satisfied.
	nVisits int
}

// Terminal is true once the train has completed every required visit
// AND has either fully departed the model or is currently sitting on a
// route that exits to a model boundary, matching the spec's "all visits
// completed AND train has exited or is in a terminal state" wording.
func (tp TrainProgress) Terminal(s *satx.Solver) satx.Lit {
	departed := s.OrLiteral([]satx.Lit{tp.everExited, tp.atExitBoundary})
	return s.AndLiteral([]satx.Lit{tp.Completed.HasValue(tp.nVisits), departed})
}

// State is one propositional snapshot of a usage's planning horizon.
type State struct {
	Routes map[model.PartialRouteId]RouteSlot
	Trains map[model.TrainId]*TrainProgress

	// EverActive[r] latches true once the route has been active at
	// this state or any earlier one. Used to encode TrainOrd's "first
	// occupied" ordering without tracking per-train occupation history.
	EverActive map[model.PartialRouteId]satx.Lit
}

// RoutePlan is one usage's full schedule: one row per state, each row
// the occupation of every partial route at that state.
type RoutePlan []map[model.PartialRouteId]*model.TrainId
