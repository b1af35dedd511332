package calculator

import "SignalSentinel/internal/model"

// Smoothing spans used by the indicator series.
const (
	SpanFast  = 9
	SpanMid   = 21
	SpanSlow  = 50
	SpanMACDF = 12
	SpanMACDS = 26
)

// CalculateEMA returns the exponential moving average of prices with the
// given span. ema[0] = prices[0]; no warm-up window is required.
func CalculateEMA(prices []float64, span int) []float64 {
	out := make([]float64, len(prices))
	if len(prices) == 0 || span <= 0 {
		return out
	}
	alpha := 2.0 / float64(span+1)
	acc := prices[0]
	for i, p := range prices {
		if i > 0 {
			acc += alpha * (p - acc)
		}
		out[i] = acc
	}
	return out
}

// CalculateMACD returns the pointwise difference of two EMA series.
func CalculateMACD(fast, slow []float64) []float64 {
	n := len(fast)
	if len(slow) < n {
		n = len(slow)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = fast[i] - slow[i]
	}
	return out
}

func extractCloses(bars []model.OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
