package strategy

import (
	"fmt"

	"SignalSentinel/internal/errs"
	"SignalSentinel/internal/model"
)

// Policy decides what happens when several conditions hold on the same bar.
type Policy string

const (
	// PolicyExclusive keeps only the first true condition in priority order.
	PolicyExclusive Policy = "exclusive"
	// PolicyIndependent emits one event per true condition.
	PolicyIndependent Policy = "independent"
)

// ParsePolicy validates a policy name. Empty selects PolicyExclusive.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicyExclusive:
		return PolicyExclusive, nil
	case PolicyIndependent:
		return PolicyIndependent, nil
	}
	return "", errs.Newf(errs.ErrCodeInvalidConfig, "unknown signal policy %q", s)
}

// Default detector bounds.
const (
	DefaultStartOffset = 50
	RSIOverbought      = 70.0
	RSIOversold        = 30.0
)

// DetectorConfig bounds the scan. Bars before StartOffset are a guard band
// for indicator stability; the last EndMargin bars are kept free so that
// forward returns can be measured.
type DetectorConfig struct {
	StartOffset int
	EndMargin   int
	Policy      Policy
}

// condition reports whether a signal fires between bar i-1 and bar i.
type condition struct {
	kind model.SignalKind
	test func(ind *model.IndicatorSeries, i int) bool
}

// conditions is the fixed priority order of the detector.
var conditions = []condition{
	{model.SignalMAFastOverMid, func(ind *model.IndicatorSeries, i int) bool {
		return crossedAbove(ind.MAFast, ind.MAMid, i)
	}},
	{model.SignalMAFastUnderMid, func(ind *model.IndicatorSeries, i int) bool {
		return crossedAbove(ind.MAMid, ind.MAFast, i)
	}},
	{model.SignalMAMidOverSlow, func(ind *model.IndicatorSeries, i int) bool {
		return crossedAbove(ind.MAMid, ind.MASlow, i)
	}},
	{model.SignalMAMidUnderSlow, func(ind *model.IndicatorSeries, i int) bool {
		return crossedAbove(ind.MASlow, ind.MAMid, i)
	}},
	{model.SignalMACDCrossUp, func(ind *model.IndicatorSeries, i int) bool {
		return ind.MACD[i-1] < 0 && ind.MACD[i] > 0
	}},
	{model.SignalMACDCrossDown, func(ind *model.IndicatorSeries, i int) bool {
		return ind.MACD[i-1] > 0 && ind.MACD[i] < 0
	}},
	{model.SignalRSIOverbought, func(ind *model.IndicatorSeries, i int) bool {
		prev, curr, ok := rsiPair(ind, i)
		return ok && prev < RSIOverbought && curr >= RSIOverbought
	}},
	{model.SignalRSIOversold, func(ind *model.IndicatorSeries, i int) bool {
		prev, curr, ok := rsiPair(ind, i)
		return ok && prev > RSIOversold && curr <= RSIOversold
	}},
}

// crossedAbove reports a strict below-to-above transition of a over b.
func crossedAbove(a, b []float64, i int) bool {
	return a[i-1] < b[i-1] && a[i] > b[i]
}

func rsiPair(ind *model.IndicatorSeries, i int) (prev, curr float64, ok bool) {
	if ind.RSI[i-1].IsNone() || ind.RSI[i].IsNone() {
		return 0, 0, false
	}
	return ind.RSI[i-1].Unwrap(), ind.RSI[i].Unwrap(), true
}

// Detect scans the indicator series and returns events in chronological
// order. bars supplies time and close for each event and must be aligned
// with ind.
//
// When no bar falls inside [StartOffset, N-EndMargin) an
// ErrCodeInsufficientHistory error is returned with no events. A negative
// EndMargin is ErrCodeInvalidConfig.
func Detect(bars []model.OHLCV, ind *model.IndicatorSeries, cfg DetectorConfig) ([]model.SignalEvent, error) {
	n := ind.Len()
	if len(bars) != n {
		return nil, fmt.Errorf("detect: %d bars but %d indicator values", len(bars), n)
	}
	if cfg.EndMargin < 0 {
		return nil, errs.Newf(errs.ErrCodeInvalidConfig, "end margin must not be negative, got %d", cfg.EndMargin)
	}
	start := cfg.StartOffset
	if start < 1 {
		start = 1
	}
	end := n - cfg.EndMargin
	if end <= start {
		return nil, errs.Newf(errs.ErrCodeInsufficientHistory,
			"need more than %d bars to scan, have %d", start+cfg.EndMargin, n)
	}

	var events []model.SignalEvent
	for i := start; i < end; i++ {
		for _, c := range conditions {
			if !c.test(ind, i) {
				continue
			}
			events = append(events, model.SignalEvent{
				Index: i,
				Time:  bars[i].Time,
				Kind:  c.kind,
				Close: bars[i].Close,
			})
			if cfg.Policy != PolicyIndependent {
				break
			}
		}
	}
	return events, nil
}
