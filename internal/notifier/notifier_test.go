package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalSentinel/internal/logger"
	"SignalSentinel/internal/model"
)

func sampleReport() *model.Report {
	return &model.Report{
		Ticker:         "BBCA.JK",
		AsOf:           time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		Bars:           480,
		CurrentPrice:   9875,
		CurrentRSI:     optional.Some(61.25),
		High52w:        10950,
		Low52w:         8800,
		Liquidity:      model.LiquidityCheck{AvgDailyValue: 1e12, Threshold: 5e9},
		Horizons:       []int{5, 10},
		WinRateHorizon: 5,
		TotalEvents:    3,
		Summaries: []model.SignalSummary{
			{
				Kind:        model.SignalRSIOverbought,
				Count:       2,
				MeanReturns: map[int]optional.Option[float64]{5: optional.Some(1.234), 10: optional.None[float64]()},
				WinRate:     optional.Some(50.0),
			},
			{
				Kind:        model.SignalMACDCrossUp,
				Count:       1,
				MeanReturns: map[int]optional.Option[float64]{5: optional.Some(-2.0), 10: optional.Some(0.5)},
				WinRate:     optional.Some(0.0),
			},
		},
		Convergence: []model.ConvergenceEstimate{
			{Pair: "MA 9 / MA 21", Trend: model.TrendBullish, Converging: true, DaysToCross: optional.Some(2.7)},
			{Pair: "MA 21 / MA 50", Trend: model.TrendBearish, DaysToCross: optional.None[float64]()},
		},
		Advice: []string{"RSI > 70 is NOISE. Price goes sideways."},
	}
}

func TestSummaryRows(t *testing.T) {
	rows := SummaryRows(sampleReport())
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Signal", "Count", "Avg 5d %", "Avg 10d %", "Win 5d %"}, rows[0])
	assert.Equal(t, []string{"RSI Enter Overbought (>70)", "2", "1.23", "-", "50.00"}, rows[1])
	assert.Equal(t, []string{"MACD Zero Cross Up (Bull)", "1", "-2.00", "0.50", "0.00"}, rows[2])
}

func TestConvergenceLine(t *testing.T) {
	r := sampleReport()
	assert.Equal(t, "MA 9 / MA 21: BULLISH, converging, cross in ~2.7 days", ConvergenceLine(r.Convergence[0]))
	assert.Equal(t, "MA 21 / MA 50: BEARISH, diverging / no estimate", ConvergenceLine(r.Convergence[1]))
}

func TestFormatTerminalReport(t *testing.T) {
	out := FormatTerminalReport(sampleReport())
	assert.Contains(t, out, "BEHAVIOR REPORT FOR BBCA.JK")
	assert.Contains(t, out, "RSI Enter Overbought (>70)")
	assert.Contains(t, out, "RSI 61.3")
	assert.Contains(t, out, "Skeptic's analysis")
	assert.NotContains(t, out, "low liquidity")
}

func TestFormatTerminalReport_States(t *testing.T) {
	r := sampleReport()
	r.Summaries = nil
	r.NoSignals = true
	r.Liquidity.Low = true
	r.CurrentRSI = optional.None[float64]()
	out := FormatTerminalReport(r)
	assert.Contains(t, out, "No significant signals found")
	assert.Contains(t, out, "low liquidity")
	assert.Contains(t, out, "RSI n/a")
	assert.NotContains(t, out, "Avg 5d")

	r.InsufficientHistory = true
	assert.Contains(t, FormatTerminalReport(r), "Insufficient history")
}

func TestFormatTelegramReport_EscapesHTML(t *testing.T) {
	r := sampleReport()
	r.Summaries = append(r.Summaries, model.SignalSummary{
		Kind: model.SignalRSIOversold, Count: 1,
		MeanReturns: map[int]optional.Option[float64]{5: optional.Some(1.0), 10: optional.Some(1.0)},
		WinRate:     optional.Some(100.0),
	})
	out := FormatTelegramReport(r)
	assert.Contains(t, out, "RSI Enter Oversold (&lt;30)")
	assert.Contains(t, out, "(&gt;70)")
	assert.Contains(t, out, "<pre>")
}

func TestTelegramSend(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("TOKEN", "42", "", logger.NewNop())
	tn.APIBase = srv.URL
	require.True(t, tn.Enabled())
	require.NoError(t, tn.SendWithRetry(context.Background(), "hello", 2))
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "HTML", got["parse_mode"])
	assert.Equal(t, "hello", got["text"])
}

func TestTelegramSend_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("TOKEN", "42", "", logger.NewNop())
	tn.APIBase = srv.URL
	err := tn.SendWithRetry(context.Background(), "hello", 0)
	assert.ErrorContains(t, err, "status 400")
	assert.False(t, NewTelegramNotifier("", "", "", logger.NewNop()).Enabled())
}

func TestPoll_DispatchesCommands(t *testing.T) {
	var replies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			assert.Equal(t, "7", r.URL.Query().Get("offset"))
			fmt.Fprint(w, `{"ok":true,"result":[
				{"update_id":7,"message":{"text":" /analyze bbca "}},
				{"update_id":8}
			]}`)
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			replies = append(replies, body["text"])
			fmt.Fprint(w, `{"ok":true}`)
		}
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("TOKEN", "42", "", logger.NewNop())
	tn.APIBase = srv.URL

	var commands []string
	next, err := tn.poll(context.Background(), srv.Client(), 7, func(_ context.Context, cmd string) string {
		commands = append(commands, cmd)
		return "ok: " + cmd
	})
	require.NoError(t, err)
	assert.Equal(t, 9, next)
	assert.Equal(t, []string{"/analyze bbca"}, commands)
	assert.Equal(t, []string{"ok: /analyze bbca"}, replies)
}

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{"short"}, splitMessage("short", 10))

	parts := splitMessage("ab\n<pre>x\ny\nz\n</pre>\nend", 21)
	assert.Equal(t, []string{"ab\n<pre>x\ny\nz\n</pre>", "\nend"}, parts)

	parts = splitMessage("<pre>aaaa\nbbbb\ncccc\n</pre>", 21)
	assert.Equal(t, []string{"<pre>aaaa\nbbbb\n</pre>", "<pre>cccc\n</pre>"}, parts)
}

func TestSplitMessage_RuneBoundaries(t *testing.T) {
	text := "ab\n" + strings.Repeat("é", 20)
	parts := splitMessage(text, 15)
	require.Len(t, parts, 6)
	for _, p := range parts {
		assert.True(t, utf8.ValidString(p), p)
		assert.LessOrEqual(t, len(p), 15)
	}
	assert.Equal(t, text, strings.Join(parts, ""))
}

func TestSplitMessage_LongReportKeepsPreBalanced(t *testing.T) {
	text := "📊 <b>BBCA.JK</b>\n<pre>" + strings.Repeat("MACD Zero Cross Up (Bull) | 12 | 1.25 | -0.50\n", 300) + "</pre>\n👉 done"
	parts := splitMessage(text, MaxMessageLen)
	require.Greater(t, len(parts), 1)
	for _, p := range parts {
		assert.LessOrEqual(t, len(p), MaxMessageLen)
		assert.Equal(t, strings.Count(p, "<pre>"), strings.Count(p, "</pre>"))
		assert.True(t, utf8.ValidString(p))
	}
	assert.True(t, strings.HasPrefix(parts[1], "<pre>"))
	assert.True(t, strings.HasSuffix(parts[len(parts)-1], "👉 done"))
}

func TestTelegramSend_APIRejects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":false,"description":"Bad Request: chat not found"}`)
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("TOKEN", "42", "", logger.NewNop())
	tn.APIBase = srv.URL
	assert.ErrorContains(t, tn.Send(context.Background(), "hello"), "chat not found")
}
