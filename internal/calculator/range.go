package calculator

import (
	"github.com/markcheno/go-talib"

	"SignalSentinel/internal/errs"
	"SignalSentinel/internal/model"
)

// TradingDays52w is the number of trading days in a 52-week window.
const TradingDays52w = 252

// Calculate52WeekRange returns the highest high and lowest low of the most
// recent TradingDays52w bars, or of all bars when fewer are available.
func Calculate52WeekRange(dailyBars []model.OHLCV) (high, low float64, err error) {
	if len(dailyBars) == 0 {
		return 0, 0, errs.New(errs.ErrCodeDataUnavailable, "no daily bars provided")
	}
	window := min(len(dailyBars), TradingDays52w)
	recent := dailyBars[len(dailyBars)-window:]
	if window == 1 {
		return recent[0].High, recent[0].Low, nil
	}

	highs := make([]float64, window)
	lows := make([]float64, window)
	for i, b := range recent {
		highs[i], lows[i] = b.High, b.Low
	}
	return talib.Max(highs, window)[window-1], talib.Min(lows, window)[window-1], nil
}
