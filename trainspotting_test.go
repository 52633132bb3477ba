package trainspotting

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	log "gopkg.in/inconshreveable/log15.v2"

	"github.com/keepsky/trainspotting/model"
	"github.com/keepsky/trainspotting/optimize"
)

func TestSolveSignalsOnTrivialModel(t *testing.T) {
	Convey("Given a single boundary-to-boundary route with one train", t, func() {
		inf := model.Infrastructure{
			PartialRoutes: map[model.PartialRouteId]model.PartialRoute{
				{Elementary: 0, Segment: 0}: {
					Entry:     model.BoundarySignal,
					Exit:      model.BoundarySignal,
					Conflicts: [][]model.ConflictRef{{}},
					Length:    1000,
				},
			},
			ElementaryRoutes: [][]model.PartialRouteId{
				{{Elementary: 0, Segment: 0}},
			},
		}
		usage := model.Usage{
			Trains: map[model.TrainId]model.Train{0: {Length: 100, Visits: nil}},
		}

		Convey("SolveSignals finds at least one signal set with no signals needed", func() {
			results, err := SolveSignals(optimize.DefaultConfig(), inf, []model.Usage{usage})
			So(err, ShouldBeNil)
			So(len(results), ShouldBeGreaterThan, 0)
			So(len(results[0].Signals), ShouldEqual, 0)
		})
	})
}

func TestConfigureLoggingReturnsRootLogger(t *testing.T) {
	Convey("ConfigureLogging returns a usable root logger", t, func() {
		root := ConfigureLogging(log.LvlInfo)
		So(root, ShouldNotBeNil)
	})
}
