package model

import "github.com/moznion/go-optional"

// Trend is the current ordering of an MA pair.
type Trend string

const (
	TrendBullish Trend = "BULLISH"
	TrendBearish Trend = "BEARISH"
)

// ConvergenceEstimate projects when two series may intersect if their
// recent linear slopes persist.
type ConvergenceEstimate struct {
	Pair       string
	Gap        float64
	SlopeShort float64
	SlopeLong  float64
	NetSlope   float64
	Trend      Trend
	Converging bool
	// DaysToCross is set only when Converging, rounded to one decimal.
	DaysToCross optional.Option[float64]
}
