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

// Package model holds the infrastructure and usage values the planner
// and optimizer consume. It has no behavior of its own: values of these
// types are produced by collaborators outside this module's scope
// (graph/DSL parsers) and consumed here as plain data.
package model

// SignalKind tags the four flavors of endpoint a partial route can
// begin or end at.
type SignalKind int

const (
	// Boundary marks a model edge; always considered active.
	Boundary SignalKind = iota
	// Signal is a candidate for the signal optimizer's activation
	// literals.
	Signal
	// Detector subdivides an elementary route into partial routes and
	// is minimized separately by the detector-reduction pass.
	Detector
	// Anonymous is an endpoint that participates in no optimization —
	// always considered active, like Boundary.
	Anonymous
)

func (k SignalKind) String() string {
	switch k {
	case Boundary:
		return "Boundary"
	case Signal:
		return "Signal"
	case Detector:
		return "Detector"
	case Anonymous:
		return "Anonymous"
	default:
		return "Unknown"
	}
}

// SignalId identifies a partial route endpoint. Index is meaningless
// when Kind is Boundary.
type SignalId struct {
	Kind  SignalKind
	Index int
}

// BoundarySignal is the single Boundary endpoint value.
var BoundarySignal = SignalId{Kind: Boundary}

// Sig builds a Signal(i) endpoint.
func Sig(i int) SignalId { return SignalId{Kind: Signal, Index: i} }

// Det builds a Detector(i) endpoint.
func Det(i int) SignalId { return SignalId{Kind: Detector, Index: i} }

// Anon builds an Anonymous(i) endpoint.
func Anon(i int) SignalId { return SignalId{Kind: Anonymous, Index: i} }

// ElementaryRouteIdx indexes Infrastructure.ElementaryRoutes, and is
// also the first component of every PartialRouteId belonging to that
// elementary route.
type ElementaryRouteIdx = int

// PartialRouteId names one partial route: the elementary route it
// belongs to, and its segment index within that elementary route
// (segments are separated by intermediate detectors).
type PartialRouteId struct {
	Elementary ElementaryRouteIdx
	Segment    int
}

// OverlapIdx indexes a partial route's conflict sets. The current
// specification only ever populates a single overlap choice (index 0);
// the index is reserved for future use and is not otherwise meaningful
// here.
type OverlapIdx = int

// ConflictRef names a partial route at a given overlap choice that is
// mutually exclusive with some other route.
type ConflictRef struct {
	Route   PartialRouteId
	Overlap OverlapIdx
}

// PartialRoute is an atomic unit of route allocation between two
// signal-like endpoints.
type PartialRoute struct {
	Entry, Exit SignalId

	// Conflicts[ov] is the set of routes (at their own chosen overlap)
	// that must not be simultaneously active with this route when this
	// route is at overlap choice ov.
	Conflicts [][]ConflictRef

	// WaitConflict, if set, names a route that must be free before this
	// route may progress (a train head may move into it).
	WaitConflict *ConflictRef

	// Length is the route's length in meters.
	Length float64
}

// Infrastructure is the static track model: a partition of partial
// routes into elementary routes (indexed by PartialRouteId.Elementary),
// each activated atomically.
type Infrastructure struct {
	PartialRoutes    map[PartialRouteId]PartialRoute
	ElementaryRoutes [][]PartialRouteId
}

// TrainId identifies a train within a Usage.
type TrainId = int

// RouteSet is an unordered set of elementary route indices, used to
// express "any of these elementary routes satisfies this visit".
type RouteSet map[ElementaryRouteIdx]struct{}

// NewRouteSet builds a RouteSet from a list of elementary route indices.
func NewRouteSet(ids ...ElementaryRouteIdx) RouteSet {
	s := make(RouteSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Contains reports whether e is a member of the set.
func (s RouteSet) Contains(e ElementaryRouteIdx) bool {
	_, ok := s[e]
	return ok
}

// Train is one movement through the infrastructure: a physical length
// and an ordered sequence of visits, each visit a set of acceptable
// elementary routes that must be satisfied in order.
type Train struct {
	Length float64
	Visits []RouteSet
}

// TrainOrd asserts that the step in which A is first occupied must not
// exceed the step in which B is first occupied.
type TrainOrd struct {
	A, B PartialRouteId
}

// Usage is a scenario of interest: a set of trains together with
// cross-train ordering constraints.
type Usage struct {
	Trains   map[TrainId]Train
	TrainOrd []TrainOrd
}
