package calculator

import "github.com/moznion/go-optional"

// RSIPeriod is the trailing window of the relative strength index.
const RSIPeriod = 14

// CalculateRSI computes the simple-average RSI for every bar.
//
// gain and loss are plain means of the trailing `period` deltas, not Wilder
// smoothed. The first `period` values have no full window and are None. A
// window with no losses saturates to 100; a window with neither gains nor
// losses is 0/0 and stays None.
func CalculateRSI(closes []float64, period int) []optional.Option[float64] {
	out := make([]optional.Option[float64], len(closes))
	for i := range out {
		out[i] = optional.None[float64]()
	}
	if period <= 0 || len(closes) <= period {
		return out
	}

	// window holds the last `period` deltas as a ring.
	gains := make([]float64, period)
	losses := make([]float64, period)
	for i := 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		slot := (i - 1) % period
		gains[slot], losses[slot] = 0, 0
		if delta > 0 {
			gains[slot] = delta
		} else if delta < 0 {
			losses[slot] = -delta
		}
		if i < period {
			continue
		}

		var sumGain, sumLoss float64
		for k := 0; k < period; k++ {
			sumGain += gains[k]
			sumLoss += losses[k]
		}
		avgGain := sumGain / float64(period)
		avgLoss := sumLoss / float64(period)

		switch {
		case avgLoss == 0 && avgGain == 0:
			// flat window, left undefined
		case avgLoss == 0:
			out[i] = optional.Some(100.0)
		default:
			rs := avgGain / avgLoss
			out[i] = optional.Some(100.0 - 100.0/(1.0+rs))
		}
	}
	return out
}
