package collector

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"SignalSentinel/internal/errs"
	"SignalSentinel/internal/logger"
	"SignalSentinel/internal/model"
)

// DefaultLookback is the history requested when none is configured.
const DefaultLookback = "2y"

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	DailyData []model.OHLCV
	Err       error
	Calls     int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyBars(_ context.Context, _ string, _ string) ([]model.OHLCV, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.DailyData, nil
}

// Collector fetches and cleans the daily history of one ticker.
type Collector struct {
	Fetcher  Fetcher
	Lookback string
	Logger   *logger.Logger
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, lookback string, log *logger.Logger) *Collector {
	if lookback == "" {
		lookback = DefaultLookback
	}
	return &Collector{Fetcher: fetcher, Lookback: lookback, Logger: log}
}

// Collect calls the fetcher exactly once. A fetch error or an empty result
// is reported as ErrCodeDataUnavailable so the caller stops before any
// indicator work. The returned bars are ascending with one bar per date.
func (c *Collector) Collect(ctx context.Context, symbol string) (*model.PriceSeries, error) {
	bars, err := c.Fetcher.FetchDailyBars(ctx, symbol, c.Lookback)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeDataUnavailable, "fetch daily bars for "+symbol, err)
	}
	if len(bars) == 0 {
		return nil, errs.Newf(errs.ErrCodeDataUnavailable,
			"no data for %s, is it delisted or suspended?", symbol)
	}

	cleaned := cleanBars(bars)
	if dropped := len(bars) - len(cleaned); dropped > 0 {
		c.Logger.Debug("dropped duplicate bars",
			zap.String("ticker", symbol), zap.Int("dropped", dropped))
	}
	c.Logger.Info("collected daily bars",
		zap.String("ticker", symbol),
		zap.String("source", c.Fetcher.Name()),
		zap.Int("bars", len(cleaned)))

	return &model.PriceSeries{
		Symbol:    symbol,
		DailyBars: cleaned,
		FetchedAt: time.Now(),
	}, nil
}

// cleanBars sorts bars by time and keeps the last bar seen for each
// calendar date. Yahoo repeats the live bar during trading hours.
func cleanBars(bars []model.OHLCV) []model.OHLCV {
	sorted := make([]model.OHLCV, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })

	out := sorted[:0]
	for _, b := range sorted {
		if len(out) > 0 && sameDate(out[len(out)-1].Time, b.Time) {
			out[len(out)-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
