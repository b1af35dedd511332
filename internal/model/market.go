package model

import "time"

// OHLCV represents a single daily candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// PriceSeries holds the raw daily history fetched for one ticker.
// Bars are ascending by date with no duplicate dates.
type PriceSeries struct {
	Symbol    string
	DailyBars []OHLCV
	FetchedAt time.Time
}

// Closes returns the close prices of the series in order.
func (s *PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.DailyBars))
	for i, b := range s.DailyBars {
		closes[i] = b.Close
	}
	return closes
}

// Last returns the most recent bar. The series must not be empty.
func (s *PriceSeries) Last() OHLCV {
	return s.DailyBars[len(s.DailyBars)-1]
}
