// Package convergence projects when two indicator series may cross by
// extrapolating the slope of their most recent points. It is a short
// horizon heuristic, not a forecast.
package convergence

import (
	"math"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"

	"SignalSentinel/internal/model"
)

// DefaultWindow is the number of trailing points fitted.
const DefaultWindow = 5

// Pair labels reported by PredictAll.
const (
	PairFastMid = "MA 9 / MA 21"
	PairMidSlow = "MA 21 / MA 50"
)

// Slope fits an ordinary least squares line to y over x = 0..len(y)-1 and
// returns its slope. Fewer than two points give a slope of zero.
func Slope(y []float64) float64 {
	n := float64(len(y))
	if n < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, yi := range y {
		xi := float64(i)
		sumX += xi
		sumY += yi
		sumXY += xi * yi
		sumXX += xi * xi
	}
	denominator := n*sumXX - sumX*sumX
	if denominator == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denominator
}

// Predict estimates when short will cross long. Only the last window points
// of each series are used. The pair converges when the gap and the net
// slope have opposite signs; the estimate is |gap / net| bars rounded to
// one decimal. Series shorter than window yield a non-converging estimate.
func Predict(label string, short, long []float64, window int) model.ConvergenceEstimate {
	est := model.ConvergenceEstimate{
		Pair:        label,
		Trend:       model.TrendBearish,
		DaysToCross: optional.None[float64](),
	}
	if window < 2 || len(short) < window || len(long) < window {
		return est
	}

	s := short[len(short)-window:]
	l := long[len(long)-window:]
	est.SlopeShort = Slope(s)
	est.SlopeLong = Slope(l)
	est.NetSlope = est.SlopeShort - est.SlopeLong
	est.Gap = s[window-1] - l[window-1]
	if est.Gap > 0 {
		est.Trend = model.TrendBullish
	}

	converging := (est.Gap > 0 && est.NetSlope < 0) || (est.Gap < 0 && est.NetSlope > 0)
	if !converging {
		return est
	}
	days := math.Abs(est.Gap / est.NetSlope)
	est.Converging = true
	est.DaysToCross = optional.Some(decimal.NewFromFloat(days).Round(1).InexactFloat64())
	return est
}

// PredictAll evaluates the tracked MA pairs of an indicator series.
func PredictAll(ind *model.IndicatorSeries, window int) []model.ConvergenceEstimate {
	return []model.ConvergenceEstimate{
		Predict(PairFastMid, ind.MAFast, ind.MAMid, window),
		Predict(PairMidSlow, ind.MAMid, ind.MASlow, window),
	}
}
