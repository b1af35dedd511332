package collector

import (
	"context"

	"SignalSentinel/internal/model"
)

// Fetcher defines the interface for fetching daily market data.
// lookback is a Yahoo style range such as "1y" or "2y".
type Fetcher interface {
	FetchDailyBars(ctx context.Context, symbol, lookback string) ([]model.OHLCV, error)
	Name() string
}
