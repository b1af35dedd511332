package calculator

import "SignalSentinel/internal/model"

// Compute derives the full indicator series for the given bars. It is a
// pure transform: the result has the same length as bars.
func Compute(bars []model.OHLCV) model.IndicatorSeries {
	closes := extractCloses(bars)
	ema12 := CalculateEMA(closes, SpanMACDF)
	ema26 := CalculateEMA(closes, SpanMACDS)
	return model.IndicatorSeries{
		MAFast: CalculateEMA(closes, SpanFast),
		MAMid:  CalculateEMA(closes, SpanMid),
		MASlow: CalculateEMA(closes, SpanSlow),
		EMA12:  ema12,
		EMA26:  ema26,
		MACD:   CalculateMACD(ema12, ema26),
		RSI:    CalculateRSI(closes, RSIPeriod),
	}
}
