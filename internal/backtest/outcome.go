package backtest

import (
	"github.com/moznion/go-optional"

	"SignalSentinel/internal/model"
)

// DefaultHorizons are the forward-return horizons in bars.
var DefaultHorizons = []int{5, 10, 20}

// ForwardReturn returns the percentage change from bars[i] to bars[i+h].
// It is None when i+h is outside the series or the entry close is zero.
func ForwardReturn(bars []model.OHLCV, i, h int) optional.Option[float64] {
	if i < 0 || h < 0 || i+h >= len(bars) {
		return optional.None[float64]()
	}
	entry := bars[i].Close
	if entry == 0 {
		return optional.None[float64]()
	}
	return optional.Some((bars[i+h].Close - entry) / entry * 100)
}

// MeasureOutcomes annotates every event with its forward return at each
// horizon. Events are modified in place and the same slice is returned.
func MeasureOutcomes(events []model.SignalEvent, bars []model.OHLCV, horizons []int) []model.SignalEvent {
	for k := range events {
		returns := make(map[int]optional.Option[float64], len(horizons))
		for _, h := range horizons {
			returns[h] = ForwardReturn(bars, events[k].Index, h)
		}
		events[k].Returns = returns
	}
	return events
}
