package calculator

import (
	"github.com/markcheno/go-talib"

	"SignalSentinel/internal/model"
)

// LiquidityWindow is the number of recent bars averaged by CheckLiquidity.
const LiquidityWindow = 20

// CheckLiquidity averages close*volume over the most recent bars and flags
// the series when the average traded value is below threshold. Shorter
// series are averaged over what is available.
func CheckLiquidity(bars []model.OHLCV, threshold float64) model.LiquidityCheck {
	check := model.LiquidityCheck{Threshold: threshold}
	if len(bars) == 0 {
		check.Low = true
		return check
	}

	window := LiquidityWindow
	if len(bars) < window {
		window = len(bars)
	}
	turnover := make([]float64, window)
	for i, b := range bars[len(bars)-window:] {
		turnover[i] = b.Close * b.Volume
	}

	if window == 1 {
		check.AvgDailyValue = turnover[0]
	} else {
		sma := talib.Sma(turnover, window)
		check.AvgDailyValue = sma[len(sma)-1]
	}
	check.Low = check.AvgDailyValue < threshold
	return check
}
