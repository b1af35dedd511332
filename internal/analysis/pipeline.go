// Package analysis chains the pure analysis stages into one run:
// indicators, signal detection, forward outcomes, aggregation and the
// convergence projection.
package analysis

import (
	"fmt"
	"sort"

	"SignalSentinel/internal/backtest"
	"SignalSentinel/internal/calculator"
	"SignalSentinel/internal/convergence"
	"SignalSentinel/internal/errs"
	"SignalSentinel/internal/model"
	"SignalSentinel/internal/strategy"
)

// DefaultLiquidityThreshold is the minimum average daily traded value
// (close * volume, IDR) before a liquidity warning is attached.
const DefaultLiquidityThreshold = 5_000_000_000

// Options parameterise one analysis run.
type Options struct {
	Horizons       []int
	WinRateHorizon int
	// StartOffset and EndMargin bound the detector scan. EndMargin < 0
	// selects the longest horizon.
	StartOffset        int
	EndMargin          int
	Policy             strategy.Policy
	ConvergenceWindow  int
	LiquidityThreshold float64
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Horizons:           append([]int(nil), backtest.DefaultHorizons...),
		WinRateHorizon:     5,
		StartOffset:        strategy.DefaultStartOffset,
		EndMargin:          -1,
		Policy:             strategy.PolicyExclusive,
		ConvergenceWindow:  convergence.DefaultWindow,
		LiquidityThreshold: DefaultLiquidityThreshold,
	}
}

// Validate checks the options and normalises the horizon list.
func (o *Options) Validate() error {
	if len(o.Horizons) == 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "at least one horizon is required")
	}
	seen := make(map[int]bool, len(o.Horizons))
	var horizons []int
	for _, h := range o.Horizons {
		if h <= 0 {
			return errs.Newf(errs.ErrCodeInvalidConfig, "horizon must be positive, got %d", h)
		}
		if !seen[h] {
			seen[h] = true
			horizons = append(horizons, h)
		}
	}
	sort.Ints(horizons)
	o.Horizons = horizons
	if !seen[o.WinRateHorizon] {
		return errs.Newf(errs.ErrCodeInvalidConfig,
			"win rate horizon %d is not one of the horizons %v", o.WinRateHorizon, o.Horizons)
	}
	if o.StartOffset < 1 {
		return errs.Newf(errs.ErrCodeInvalidConfig, "start offset must be at least 1, got %d", o.StartOffset)
	}
	if o.ConvergenceWindow < 2 {
		return errs.Newf(errs.ErrCodeInvalidConfig, "convergence window must be at least 2, got %d", o.ConvergenceWindow)
	}
	if _, err := strategy.ParsePolicy(string(o.Policy)); err != nil {
		return err
	}
	return nil
}

func (o *Options) detectorConfig() strategy.DetectorConfig {
	margin := o.EndMargin
	if margin < 0 {
		margin = o.Horizons[len(o.Horizons)-1]
	}
	return strategy.DetectorConfig{
		StartOffset: o.StartOffset,
		EndMargin:   margin,
		Policy:      o.Policy,
	}
}

// Analyze runs every stage over an already fetched series. Insufficient
// history is not an error: the report comes back with InsufficientHistory
// set and no summaries.
func Analyze(series *model.PriceSeries, opts Options) (*model.Report, error) {
	if series == nil || len(series.DailyBars) == 0 {
		return nil, errs.New(errs.ErrCodeDataUnavailable, "empty price series")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	bars := series.DailyBars
	ind := calculator.Compute(bars)
	last := len(bars) - 1

	report := &model.Report{
		Ticker:         series.Symbol,
		AsOf:           bars[last].Time,
		Bars:           len(bars),
		CurrentPrice:   bars[last].Close,
		CurrentRSI:     ind.RSI[last],
		Liquidity:      calculator.CheckLiquidity(bars, opts.LiquidityThreshold),
		Horizons:       opts.Horizons,
		WinRateHorizon: opts.WinRateHorizon,
		Convergence:    convergence.PredictAll(&ind, opts.ConvergenceWindow),
	}
	if high, low, err := calculator.Calculate52WeekRange(bars); err == nil {
		report.High52w, report.Low52w = high, low
	}

	events, err := strategy.Detect(bars, &ind, opts.detectorConfig())
	switch {
	case errs.HasCode(err, errs.ErrCodeInsufficientHistory):
		report.InsufficientHistory = true
		report.NoSignals = true
		return report, nil
	case err != nil:
		return nil, fmt.Errorf("detect signals: %w", err)
	}

	events = backtest.MeasureOutcomes(events, bars, opts.Horizons)
	report.TotalEvents = len(events)
	report.Summaries = backtest.Aggregate(events, opts.Horizons, opts.WinRateHorizon)
	report.NoSignals = len(report.Summaries) == 0
	report.Advice = strategy.Advise(report.Summaries, opts.WinRateHorizon)
	return report, nil
}
