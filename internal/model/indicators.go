package model

import "github.com/moznion/go-optional"

// IndicatorSeries holds the indicator arrays derived from a PriceSeries.
// Index i of every array refers to the same bar as DailyBars[i].
type IndicatorSeries struct {
	MAFast []float64 // EMA 9
	MAMid  []float64 // EMA 21
	MASlow []float64 // EMA 50
	EMA12  []float64
	EMA26  []float64
	MACD   []float64 // EMA12 - EMA26

	// RSI is None during the warm-up window and for flat windows (0/0).
	RSI []optional.Option[float64]
}

// Len returns the number of bars covered by the series.
func (s *IndicatorSeries) Len() int {
	return len(s.MAFast)
}
