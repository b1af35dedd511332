package strategy

import (
	"fmt"

	"SignalSentinel/internal/model"
)

// Thresholds used by Advise.
const (
	momentumReturnPct = 0.5
	macdFailWinRate   = 50.0
)

// Advise turns the backtest summary into short plain-language notes about
// how this instrument has reacted to its signals. It reads the mean return
// and win rate at the designated horizon.
func Advise(summaries []model.SignalSummary, horizon int) []string {
	var notes []string
	for _, s := range summaries {
		switch s.Kind {
		case model.SignalRSIOverbought:
			if note, ok := adviseOverbought(s, horizon); ok {
				notes = append(notes, note)
			}
		case model.SignalMACDCrossUp:
			if note, ok := adviseMACDUp(s); ok {
				notes = append(notes, note)
			}
		}
	}
	return notes
}

// adviseOverbought classifies RSI > 70 as momentum, reversal or noise.
func adviseOverbought(s model.SignalSummary, horizon int) (string, bool) {
	mean, ok := s.MeanReturns[horizon]
	if !ok || mean.IsNone() {
		return "", false
	}
	avg := mean.Unwrap()
	switch {
	case avg > momentumReturnPct:
		return fmt.Sprintf("RSI > 70 is a MOMENTUM signal here. Price tends to keep rising (%+.1f%% after %d bars). Don't sell too early.", avg, horizon), true
	case avg < -momentumReturnPct:
		return fmt.Sprintf("RSI > 70 is a TRUE REVERSAL signal here. Price tends to drop (%+.1f%% after %d bars). Take profit.", avg, horizon), true
	default:
		return "RSI > 70 is NOISE. Price goes sideways.", true
	}
}

// adviseMACDUp warns when MACD zero-cross up loses more often than it wins.
func adviseMACDUp(s model.SignalSummary) (string, bool) {
	if s.WinRate.IsNone() {
		return "", false
	}
	wr := s.WinRate.Unwrap()
	if wr >= macdFailWinRate {
		return "", false
	}
	return fmt.Sprintf("CAUTION: MACD Zero Cross Up often FAILS (Win Rate %.0f%%). Wait for confirmation.", wr), true
}
