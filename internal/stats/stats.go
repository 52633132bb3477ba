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

// Package stats keeps rolling-window counters describing the signal
// optimizer's own behavior: how many SAT calls it has made, how long
// they took, and how the candidate signal/detector sets it has produced
// are trending. It is diagnostic only — nothing here feeds back into
// the optimizer's decisions.
package stats

import (
	"sort"
	"sync"
	"time"
)

const defaultSolveWindow = 15 * time.Minute

type solvePoint struct {
	ts       time.Time
	dur      time.Duration
	sat      bool
	category string
}

// Snapshot is a point-in-time readout of the engine's counters.
type Snapshot struct {
	Time time.Time

	TotalSolves    int
	SatSolves      int
	UnsatSolves    int
	AverageSolveMs float64
	P90SolveMs     float64

	HorizonExpansions int
	SignalSetsFound   int
	DetectorsPruned   int
}

// Engine accumulates solve timings and counters behind a mutex, trimming
// entries older than its window on every write.
type Engine struct {
	mu     sync.RWMutex
	window time.Duration

	solves []solvePoint

	horizonExpansions int
	signalSetsFound   int
	detectorsPruned   int

	snapshots []Snapshot
}

// NewEngine builds a counters engine with the given rolling window
// (defaultSolveWindow if window <= 0).
func NewEngine(window time.Duration) *Engine {
	if window <= 0 {
		window = defaultSolveWindow
	}
	return &Engine{window: window}
}

// RecordSolve logs one SAT call's outcome and wall-clock duration.
func (e *Engine) RecordSolve(category string, dur time.Duration, sat bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.solves = append(e.solves, solvePoint{ts: time.Now().UTC(), dur: dur, sat: sat, category: category})
	e.trimSolvesLocked()
}

// RecordHorizonExpansion counts one additional state appended to some
// usage's planning horizon.
func (e *Engine) RecordHorizonExpansion() {
	e.mu.Lock()
	e.horizonExpansions++
	e.mu.Unlock()
}

// RecordSignalSetFound counts one candidate signal set produced by
// NextSignalSet.
func (e *Engine) RecordSignalSetFound() {
	e.mu.Lock()
	e.signalSetsFound++
	e.mu.Unlock()
}

// RecordDetectorsPruned counts detectors removed by a single
// ReduceDetectors pass.
func (e *Engine) RecordDetectorsPruned(n int) {
	e.mu.Lock()
	e.detectorsPruned += n
	e.mu.Unlock()
}

func (e *Engine) trimSolvesLocked() {
	cutoff := time.Now().UTC().Add(-e.window)
	i := 0
	for i < len(e.solves) && e.solves[i].ts.Before(cutoff) {
		i++
	}
	if i > 0 {
		e.solves = e.solves[i:]
	}
}

// Snapshot computes the current counters and appends the result to the
// engine's snapshot history.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.trimSolvesLocked()

	snap := Snapshot{
		Time:              time.Now().UTC(),
		HorizonExpansions: e.horizonExpansions,
		SignalSetsFound:   e.signalSetsFound,
		DetectorsPruned:   e.detectorsPruned,
	}

	durs := make([]float64, 0, len(e.solves))
	for _, p := range e.solves {
		snap.TotalSolves++
		if p.sat {
			snap.SatSolves++
		} else {
			snap.UnsatSolves++
		}
		durs = append(durs, float64(p.dur.Microseconds())/1000.0)
	}
	if len(durs) > 0 {
		sort.Float64s(durs)
		var sum float64
		for _, d := range durs {
			sum += d
		}
		snap.AverageSolveMs = sum / float64(len(durs))
		idx := (len(durs) * 90) / 100
		if idx >= len(durs) {
			idx = len(durs) - 1
		}
		snap.P90SolveMs = durs[idx]
	}

	e.snapshots = append(e.snapshots, snap)
	if len(e.snapshots) > 500 {
		e.snapshots = e.snapshots[len(e.snapshots)-500:]
	}
	return snap
}

// History returns the retained snapshot history, oldest first.
func (e *Engine) History() []Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Snapshot, len(e.snapshots))
	copy(out, e.snapshots)
	return out
}
