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

// Package optimize searches for a minimal set of signals (and, given a
// chosen signal set, a minimal set of detectors) that still lets every
// usage's trains run to completion.
package optimize

import (
	"sort"
	"sync"
	"time"

	log "gopkg.in/inconshreveable/log15.v2"

	"github.com/keepsky/trainspotting/internal/stats"
	"github.com/keepsky/trainspotting/internal/trace"
	"github.com/keepsky/trainspotting/model"
	"github.com/keepsky/trainspotting/planner"
	"github.com/keepsky/trainspotting/satx"
)

var logger log.Logger = log.Root()

// SetLogger rebinds the package logger under the given parent.
func SetLogger(parent log.Logger) {
	logger = parent.New("module", "optimize")
}

type optimizerState int

const (
	optimizerIdle optimizerState = iota
	optimizerEnumerating
)

// SignalOptimizer incrementally searches for signal sets, growing each
// usage's planning horizon only as far as needed. A solver session is
// shared across the whole search: every clause ever asserted stays
// asserted, and each NextSignalSet call first adds a blocking clause
// excluding the previously returned signal set, so successive sets differ
// in at least one signal's activation.
type SignalOptimizer struct {
	cfg Config

	mu    sync.Mutex
	state optimizerState

	solver        *satx.Solver
	activeSignals map[model.SignalId]satx.Lit

	inf    model.Infrastructure
	usages []model.Usage
	states [][]*planner.State

	lastSignalSetClause []satx.Lit
	failedStates         int
	generation           int

	Trace *trace.Log
	Stats *stats.Engine
}

// NewSignalOptimizer builds an optimizer over inf for the given usages,
// allocating one activation literal per distinct Signal endpoint and
// building each usage's first planning state.
func NewSignalOptimizer(cfg Config, inf model.Infrastructure, usages []model.Usage) *SignalOptimizer {
	s := satx.NewSolver()

	signals := make(map[model.SignalId]struct{})
	for _, r := range inf.PartialRoutes {
		if r.Entry.Kind == model.Signal {
			signals[r.Entry] = struct{}{}
		}
		if r.Exit.Kind == model.Signal {
			signals[r.Exit] = struct{}{}
		}
	}
	activeSignals := make(map[model.SignalId]satx.Lit, len(signals))
	for sig := range signals {
		activeSignals[sig] = s.NewLit()
	}

	o := &SignalOptimizer{
		cfg:           cfg,
		solver:        s,
		activeSignals: activeSignals,
		inf:           inf,
		usages:        usages,
		states:        make([][]*planner.State, len(usages)),
		Trace:         trace.NewLog(trace.DefaultCapacity),
		Stats:         stats.NewEngine(0),
	}
	o.addState()
	return o
}

func (o *SignalOptimizer) addState() {
	for i, usage := range o.usages {
		var prev *planner.State
		if n := len(o.states[i]); n > 0 {
			prev = o.states[i][n-1]
		}
		st := planner.MkState(o.solver, prev, o.inf, usage, o.activeSignals)
		o.states[i] = append(o.states[i], st)
	}
	o.Stats.RecordHorizonExpansion()
}

func (o *SignalOptimizer) solve(assumptions ...satx.Lit) (*satx.Model, error) {
	start := time.Now()
	m, err := o.solver.SolveUnderAssumptions(assumptions...)
	o.Stats.RecordSolve("optimize", time.Since(start), err == nil)
	return m, err
}

func (o *SignalOptimizer) endStateCondition() satx.Lit {
	var all []satx.Lit
	for _, usageStates := range o.states {
		last := usageStates[len(usageStates)-1]
		ids := make([]model.TrainId, 0, len(last.Trains))
		for t := range last.Trains {
			ids = append(ids, t)
		}
		sort.Ints(ids)
		for _, t := range ids {
			all = append(all, last.Trains[t].Terminal(o.solver))
		}
	}
	return o.solver.AndLiteral(all)
}

func (o *SignalOptimizer) sortedSignals() []model.SignalId {
	ids := make([]model.SignalId, 0, len(o.activeSignals))
	for sig := range o.activeSignals {
		ids = append(ids, sig)
	}
	sort.Slice(ids, func(i, j int) bool {
		if ids[i].Kind != ids[j].Kind {
			return ids[i].Kind < ids[j].Kind
		}
		return ids[i].Index < ids[j].Index
	})
	return ids
}

// NextSignalSet searches for the next, cost-minimal set of active
// signals under which every usage's trains can complete, excluding any
// set already returned by an earlier call. It returns (nil, false) once
// the horizon has been expanded MaxConsecutiveUnsatExpansions times in a
// row without yielding a satisfying assignment.
//
// The returned SignalSet borrows the optimizer's solver exclusively:
// calling NextSignalSet again invalidates it, and any later use of the
// stale handle panics with an InternalError.
func (o *SignalOptimizer) NextSignalSet() (*SignalSet, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.generation++
	o.state = optimizerEnumerating

	if o.lastSignalSetClause != nil {
		o.solver.AddClause(o.lastSignalSetClause...)
		o.lastSignalSetClause = nil
	}

	signals := o.sortedSignals()

	for {
		endState := o.endStateCondition()
		m, err := o.solve(endState)
		if err == satx.ErrUnsat {
			o.failedStates++
			if o.failedStates > o.cfg.MaxConsecutiveUnsatExpansions {
				logger.Info("no more signal sets found")
				o.state = optimizerIdle
				return nil, false
			}
			o.Trace.Append("optimizer", "horizon_expanded", nil)
			o.addState()
			continue
		}
		if err != nil {
			o.state = optimizerIdle
			return nil, false
		}
		o.failedStates = 0

		nSignals, nDetectors := 0, 0
		for _, sig := range signals {
			if !m.Value(o.activeSignals[sig]) {
				continue
			}
			if sig.Kind == model.Signal {
				nSignals++
			} else if sig.Kind == model.Detector {
				nDetectors++
			}
		}
		logger.Info("first solve successful", "n_signals", nSignals, "n_detectors", nDetectors)

		initCost := nSignals*o.cfg.RelativeSignalCost + nDetectors
		var costs []satx.Unary
		for _, sig := range signals {
			lit := o.activeSignals[sig]
			switch sig.Kind {
			case model.Signal:
				costs = append(costs, satx.FromBool(lit).MulConst(o.cfg.RelativeSignalCost))
			case model.Detector:
				costs = append(costs, satx.FromBool(lit))
			}
		}
		sumCost := satx.SumTruncate(o.solver, costs, initCost+1)

		lo, hi := 0, initCost
		for lo < hi {
			mid := (lo + hi) / 2
			_, err := o.solve(endState, sumCost.LteConst(o.solver, mid))
			if err == nil {
				hi = mid
			} else {
				lo = mid + 1
			}
		}
		bound := lo

		m, err = o.solve(endState, sumCost.LteConst(o.solver, bound))
		if err != nil {
			logger.Error("unsat at the optimized cost bound after a successful solve", "bound", bound)
			o.state = optimizerIdle
			return nil, false
		}

		chosen := make(map[model.SignalId]struct{})
		excludeClause := make([]satx.Lit, 0, len(signals))
		for _, sig := range signals {
			lit := o.activeSignals[sig]
			if m.Value(lit) {
				chosen[sig] = struct{}{}
				excludeClause = append(excludeClause, lit.Negate())
			} else {
				excludeClause = append(excludeClause, lit)
			}
		}

		thisSetLit := o.solver.NewLit()
		for _, sig := range signals {
			lit := o.activeSignals[sig]
			if _, ok := chosen[sig]; ok {
				o.solver.AddClause(thisSetLit.Negate(), lit)
			} else {
				o.solver.AddClause(thisSetLit.Negate(), lit.Negate())
			}
		}

		o.lastSignalSetClause = excludeClause
		o.Stats.RecordSignalSetFound()
		o.Trace.Append("optimizer", "signal_set_found", map[string]interface{}{
			"n_signals":   nSignals,
			"n_detectors": nDetectors,
			"bound":       bound,
		})

		return &SignalSet{
			optimizer:  o,
			generation: o.generation,
			endState:   endState,
			thisSetLit: thisSetLit,
			signals:    chosen,
		}, true
	}
}

