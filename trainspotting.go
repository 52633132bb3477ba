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

// Package trainspotting finds minimal signal and detector placements
// for a railway interlocking by encoding feasible train movement as a
// growing propositional satisfiability problem.
package trainspotting

import (
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	log "gopkg.in/inconshreveable/log15.v2"

	"github.com/keepsky/trainspotting/model"
	"github.com/keepsky/trainspotting/optimize"
	"github.com/keepsky/trainspotting/planner"
	"github.com/keepsky/trainspotting/satx"
)

// ConfigureLogging builds the root log15 logger used by every
// sub-package (satx, planner, optimize) and rebinds each package's
// logger underneath it. Output goes to stderr, colorized when it is a
// terminal.
func ConfigureLogging(lvl log.Lvl) log.Logger {
	var handler log.Handler
	if isatty.IsTerminal(os.Stderr.Fd()) {
		handler = log.StreamHandler(colorable.NewColorableStderr(), log.TerminalFormat())
	} else {
		handler = log.StreamHandler(os.Stderr, log.LogfmtFormat())
	}

	root := log.New()
	root.SetHandler(log.LvlFilterHandler(lvl, handler))

	satx.SetLogger(root)
	planner.SetLogger(root)
	optimize.SetLogger(root)

	return root
}

// SolveSignals is the library's single-shot entry point: it runs the
// optimizer to exhaustion, logging nothing itself, and returns every
// signal set found together with the dispatches and minimal detector
// set for each.
func SolveSignals(cfg optimize.Config, inf model.Infrastructure, usages []model.Usage) ([]Result, error) {
	opt := optimize.NewSignalOptimizer(cfg, inf, usages)

	var results []Result
	for {
		set, ok := opt.NextSignalSet()
		if !ok {
			break
		}
		dispatches := set.Dispatches()
		detectors := set.ReduceDetectors(dispatches)
		results = append(results, Result{
			Signals:    set.Signals(),
			Detectors:  detectors,
			Dispatches: dispatches,
		})
	}
	return results, nil
}

// Result is one signal set, its surviving detectors, and the schedules
// it admits for every usage.
type Result struct {
	Signals    map[model.SignalId]struct{}
	Detectors  map[model.SignalId]struct{}
	Dispatches [][]planner.RoutePlan
}
