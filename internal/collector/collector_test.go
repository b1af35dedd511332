package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalSentinel/internal/errs"
	"SignalSentinel/internal/logger"
	"SignalSentinel/internal/model"
)

func TestNormalizeTicker(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"bbca", "BBCA.JK"},
		{" antm ", "ANTM.JK"},
		{"BBCA.JK", "BBCA.JK"},
		{"aapl", "AAPL.JK"},
		{"msft.us", "MSFT.US"},
		{"goto1", "GOTO1"},
		{"ihsg", "^JKSE"},
		{"^gspc", "^GSPC"},
		{"abc", "ABC"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeTicker(tt.in, DefaultMarketSuffix), tt.in)
	}
	assert.Equal(t, "BBCA", NormalizeTicker("bbca", ""))
}

func TestCollect_SortsAndDeduplicates(t *testing.T) {
	day := func(d, hour int) time.Time { return time.Date(2024, 5, d, hour, 0, 0, 0, time.UTC) }
	fetcher := &MockFetcher{DailyData: []model.OHLCV{
		{Time: day(3, 0), Close: 3},
		{Time: day(1, 0), Close: 1},
		{Time: day(2, 0), Close: 2},
		{Time: day(3, 9), Close: 3.5},
	}}
	c := NewCollector(fetcher, "", logger.NewNop())

	series, err := c.Collect(context.Background(), "BBCA.JK")
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.Calls)
	assert.Equal(t, DefaultLookback, c.Lookback)
	assert.Equal(t, []float64{1, 2, 3.5}, series.Closes())
	assert.Equal(t, 3.5, series.Last().Close)
}

func TestCollect_EmptyIsDataUnavailable(t *testing.T) {
	fetcher := &MockFetcher{}
	_, err := NewCollector(fetcher, "1y", logger.NewNop()).Collect(context.Background(), "XXXX.JK")
	assert.True(t, errs.HasCode(err, errs.ErrCodeDataUnavailable))
	assert.Equal(t, 1, fetcher.Calls)
}

func TestCollect_FetchErrorIsDataUnavailable(t *testing.T) {
	cause := errors.New("timeout")
	fetcher := &MockFetcher{Err: cause}
	_, err := NewCollector(fetcher, "1y", logger.NewNop()).Collect(context.Background(), "BBCA.JK")
	assert.True(t, errs.HasCode(err, errs.ErrCodeDataUnavailable))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 1, fetcher.Calls)
}

const yahooBody = `{"chart":{"result":[{"timestamp":[1717372800,1717459200,1717545600],
"indicators":{"quote":[{"open":[9000,null,9100],"high":[9100,null,9200],"low":[8900,null,9000],
"close":[9050,null,9150],"volume":[1000000,null,2000000]}]}}],"error":null}}`

func TestYahooFetcher_ParsesChart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/BBCA.JK", r.URL.Path)
		assert.Equal(t, "2y", r.URL.Query().Get("range"))
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		fmt.Fprint(w, yahooBody)
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	bars, err := f.FetchDailyBars(context.Background(), "BBCA.JK", "2y")
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 9050.0, bars[0].Close)
	assert.Equal(t, 2000000.0, bars[1].Volume)
	assert.Equal(t, int64(1717545600), bars[1].Time.Unix())
}

func TestYahooFetcher_UnknownSymbolIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`)
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	bars, err := f.FetchDailyBars(context.Background(), "ZZZZ.JK", "2y")
	require.NoError(t, err)
	assert.Empty(t, bars)
}

func TestYahooFetcher_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	_, err := f.FetchDailyBars(context.Background(), "BBCA.JK", "2y")
	assert.ErrorContains(t, err, "status 502")
}

func TestRESTFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "TLKM.JK", r.URL.Query().Get("symbol"))
		fmt.Fprint(w, `[{"timestamp":1717372800,"open":1,"high":2,"low":0.5,"close":1.5,"volume":10}]`)
	}))
	defer srv.Close()

	f := NewRESTFetcher(srv.URL, "secret", "")
	bars, err := f.FetchDailyBars(context.Background(), "TLKM.JK", "1y")
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, 1.5, bars[0].Close)
	assert.Equal(t, "rest", f.Name())
}
