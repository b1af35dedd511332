package model

import (
	"time"

	"github.com/moznion/go-optional"
)

// LiquidityCheck is the result of the traded-value heuristic.
type LiquidityCheck struct {
	AvgDailyValue float64
	Threshold     float64
	Low           bool
}

// Report is the structured output of one analysis run. Renderers only
// format this value, they do not compute anything.
type Report struct {
	Ticker       string
	AsOf         time.Time
	Bars         int
	CurrentPrice float64
	CurrentRSI   optional.Option[float64]
	High52w      float64
	Low52w       float64
	Liquidity    LiquidityCheck

	Horizons       []int
	WinRateHorizon int
	Summaries      []SignalSummary
	TotalEvents    int

	// NoSignals is set when the backtest produced no events at all.
	NoSignals bool
	// InsufficientHistory is set when the series is too short to scan.
	InsufficientHistory bool

	Convergence []ConvergenceEstimate
	Advice      []string
}
