package chart

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/Falcon0711/zStock/internal/chart/engine"
	"github.com/Falcon0711/zStock/internal/kv"
	"github.com/Falcon0711/zStock/internal/logger"
	"github.com/Falcon0711/zStock/internal/types"
)

// showSignalsKey persists the marker visibility preference. It is global,
// not per instrument.
const showSignalsKey = "showSignals"

// markerController owns the buy/sell signal arrows. The marker set is a
// pure function of the point array and the visibility flag; every change
// replaces the whole set atomically instead of patching it.
type markerController struct {
	kv      kv.Store
	log     *logger.Logger
	visible bool
}

func newMarkerController(store kv.Store, log *logger.Logger) *markerController {
	m := &markerController{
		kv:      store,
		log:     log,
		visible: true,
	}

	raw, ok, err := store.Get(showSignalsKey)
	if err != nil {
		log.Warn("cannot read marker visibility preference", zap.Error(err))

		return m
	}

	if ok {
		m.visible = raw == "true"
	}

	return m
}

func (m *markerController) setVisible(visible bool) error {
	m.visible = visible

	return m.kv.Set(showSignalsKey, strconv.FormatBool(visible))
}

func (m *markerController) apply(eng engine.Engine, points []types.ChartPoint, theme Theme) error {
	return eng.SetMarkers(computeMarks(points, m.visible, theme))
}

// computeMarks derives the full marker set: an upward arrow below every bar
// flagged as a buy, a downward arrow above every bar flagged as a sell.
// Hidden markers are an empty set, not a retained-but-invisible one.
func computeMarks(points []types.ChartPoint, visible bool, theme Theme) []types.Mark {
	if !visible {
		return nil
	}

	var marks []types.Mark

	for i, p := range points {
		if p.Buy {
			marks = append(marks, types.Mark{
				Index:    i,
				Time:     p.Time,
				Shape:    types.MarkShapeArrowUp,
				Position: types.MarkPositionBelowBar,
				Color:    theme.BuyMarkColor,
				Label:    "B",
			})
		}

		if p.Sell {
			marks = append(marks, types.Mark{
				Index:    i,
				Time:     p.Time,
				Shape:    types.MarkShapeArrowDown,
				Position: types.MarkPositionAboveBar,
				Color:    theme.SellMarkColor,
				Label:    "S",
			})
		}
	}

	return marks
}
