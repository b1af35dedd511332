package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalSentinel/internal/collector"
	"SignalSentinel/internal/errs"
	"SignalSentinel/internal/logger"
	"SignalSentinel/internal/model"
	"SignalSentinel/internal/strategy"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func barsFrom(closes []float64) []model.OHLCV {
	bars := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = model.OHLCV{
			Time:   day0.AddDate(0, 0, i),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 1_000_000,
		}
	}
	return bars
}

// crossoverCloses falls steadily and jumps at bar 55, which lifts EMA 9
// over EMA 21 on that bar.
func crossoverCloses(n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		if i < 55 {
			closes[i] = float64(100 - i)
		} else {
			closes[i] = 150
		}
	}
	return closes
}

func flatCloses(n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100
	}
	return closes
}

func shortHorizonOptions() Options {
	opts := DefaultOptions()
	opts.Horizons = []int{5}
	opts.WinRateHorizon = 5
	opts.EndMargin = 0
	return opts
}

func summaryFor(r *model.Report, kind model.SignalKind) (model.SignalSummary, bool) {
	for _, s := range r.Summaries {
		if s.Kind == kind {
			return s, true
		}
	}
	return model.SignalSummary{}, false
}

func TestAnalyze_CrossoverWithoutForwardData(t *testing.T) {
	series := &model.PriceSeries{Symbol: "TEST.JK", DailyBars: barsFrom(crossoverCloses(60))}

	r, err := Analyze(series, shortHorizonOptions())
	require.NoError(t, err)
	assert.False(t, r.NoSignals)
	assert.False(t, r.InsufficientHistory)

	s, ok := summaryFor(r, model.SignalMAFastOverMid)
	require.True(t, ok)
	assert.Equal(t, 1, s.Count)
	// bar 55 + 5 is past the end of a 60 bar series
	assert.True(t, s.MeanReturns[5].IsNone())
	assert.True(t, s.WinRate.IsNone())

	// exclusive policy: MACD and RSI fire on bar 55 too but lose to the MA cross
	_, ok = summaryFor(r, model.SignalMACDCrossUp)
	assert.False(t, ok)
	_, ok = summaryFor(r, model.SignalRSIOverbought)
	assert.False(t, ok)
}

func TestAnalyze_CrossoverWithForwardData(t *testing.T) {
	series := &model.PriceSeries{Symbol: "TEST.JK", DailyBars: barsFrom(crossoverCloses(61))}

	r, err := Analyze(series, shortHorizonOptions())
	require.NoError(t, err)

	s, ok := summaryFor(r, model.SignalMAFastOverMid)
	require.True(t, ok)
	require.True(t, s.MeanReturns[5].IsSome())
	assert.InDelta(t, 0.0, s.MeanReturns[5].Unwrap(), 1e-9)
	// a zero return is not a win
	assert.InDelta(t, 0.0, s.WinRate.Unwrap(), 1e-9)

	assert.Equal(t, "TEST.JK", r.Ticker)
	assert.Equal(t, 61, r.Bars)
	assert.Equal(t, 150.0, r.CurrentPrice)
	assert.Equal(t, day0.AddDate(0, 0, 60), r.AsOf)
	assert.Len(t, r.Convergence, 2)
	assert.True(t, r.Liquidity.Low)
}

func TestAnalyze_IndependentPolicy(t *testing.T) {
	opts := shortHorizonOptions()
	opts.Policy = strategy.PolicyIndependent
	series := &model.PriceSeries{Symbol: "TEST.JK", DailyBars: barsFrom(crossoverCloses(60))}

	r, err := Analyze(series, opts)
	require.NoError(t, err)

	for _, kind := range []model.SignalKind{
		model.SignalMAFastOverMid, model.SignalMACDCrossUp, model.SignalRSIOverbought,
	} {
		s, ok := summaryFor(r, kind)
		require.True(t, ok, kind)
		assert.Equal(t, 1, s.Count, kind)
	}
	assert.Greater(t, r.TotalEvents, 2)
}

func TestAnalyze_InsufficientHistory(t *testing.T) {
	series := &model.PriceSeries{Symbol: "TEST.JK", DailyBars: barsFrom(crossoverCloses(30))}

	r, err := Analyze(series, DefaultOptions())
	require.NoError(t, err)
	assert.True(t, r.InsufficientHistory)
	assert.True(t, r.NoSignals)
	assert.Empty(t, r.Summaries)
	assert.Len(t, r.Convergence, 2)
	assert.Equal(t, 30, r.Bars)
}

func TestAnalyze_NoSignals(t *testing.T) {
	series := &model.PriceSeries{Symbol: "FLAT.JK", DailyBars: barsFrom(flatCloses(90))}

	r, err := Analyze(series, DefaultOptions())
	require.NoError(t, err)
	assert.True(t, r.NoSignals)
	assert.False(t, r.InsufficientHistory)
	assert.Nil(t, r.Summaries)
	assert.Zero(t, r.TotalEvents)
	assert.True(t, r.CurrentRSI.IsNone())
	for _, c := range r.Convergence {
		assert.False(t, c.Converging)
	}
}

func TestAnalyze_EmptySeries(t *testing.T) {
	_, err := Analyze(&model.PriceSeries{Symbol: "X"}, DefaultOptions())
	assert.True(t, errs.HasCode(err, errs.ErrCodeDataUnavailable))

	_, err = Analyze(nil, DefaultOptions())
	assert.True(t, errs.HasCode(err, errs.ErrCodeDataUnavailable))
}

func TestOptionsValidate(t *testing.T) {
	opts := DefaultOptions()
	opts.Horizons = []int{20, 5, 10, 5}
	require.NoError(t, opts.Validate())
	assert.Equal(t, []int{5, 10, 20}, opts.Horizons)
	assert.Equal(t, 20, opts.detectorConfig().EndMargin)

	opts.EndMargin = 0
	assert.Equal(t, 0, opts.detectorConfig().EndMargin)

	tests := []struct {
		name   string
		mutate func(o *Options)
	}{
		{"no horizons", func(o *Options) { o.Horizons = nil }},
		{"negative horizon", func(o *Options) { o.Horizons = []int{-5} }},
		{"win horizon missing", func(o *Options) { o.WinRateHorizon = 7 }},
		{"zero start", func(o *Options) { o.StartOffset = 0 }},
		{"tiny window", func(o *Options) { o.ConvergenceWindow = 1 }},
		{"bad policy", func(o *Options) { o.Policy = "first-wins" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := DefaultOptions()
			tt.mutate(&o)
			err := o.Validate()
			require.Error(t, err)
			assert.True(t, errs.HasCode(err, errs.ErrCodeInvalidConfig))
		})
	}
}

type failingRecorder struct{ calls int }

func (f *failingRecorder) RecordReport(_ *model.Report) error {
	f.calls++
	return errors.New("disk full")
}

func (f *failingRecorder) Close() error { return nil }

func TestRunner_Run(t *testing.T) {
	log := logger.NewNop()
	fetcher := &collector.MockFetcher{DailyData: barsFrom(crossoverCloses(61))}
	rec := &failingRecorder{}
	runner := NewRunner(collector.NewCollector(fetcher, "", log), rec, shortHorizonOptions(), collector.DefaultMarketSuffix, log)

	r, err := runner.Run(context.Background(), " bbca ")
	require.NoError(t, err)
	assert.Equal(t, "BBCA.JK", r.Ticker)
	assert.Equal(t, 1, fetcher.Calls)
	assert.Equal(t, 1, rec.calls)
}

func TestRunner_DataUnavailable(t *testing.T) {
	log := logger.NewNop()
	fetcher := &collector.MockFetcher{Err: errors.New("connection refused")}
	runner := NewRunner(collector.NewCollector(fetcher, "", log), nil, DefaultOptions(), collector.DefaultMarketSuffix, log)

	r, err := runner.Run(context.Background(), "XXXX")
	assert.Nil(t, r)
	assert.True(t, errs.HasCode(err, errs.ErrCodeDataUnavailable))
	assert.Equal(t, 1, fetcher.Calls)

	fetcher.Err = nil
	_, err = runner.Run(context.Background(), "XXXX")
	assert.True(t, errs.HasCode(err, errs.ErrCodeDataUnavailable))
	assert.Equal(t, 2, fetcher.Calls)
}
