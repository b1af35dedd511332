package model

import (
	"time"

	"github.com/moznion/go-optional"
)

// SignalKind identifies one of the crossover conditions the detector knows.
type SignalKind string

const (
	SignalMAFastOverMid  SignalKind = "MA_FAST_OVER_MID"
	SignalMAFastUnderMid SignalKind = "MA_FAST_UNDER_MID"
	SignalMAMidOverSlow  SignalKind = "MA_MID_OVER_SLOW"
	SignalMAMidUnderSlow SignalKind = "MA_MID_UNDER_SLOW"
	SignalMACDCrossUp    SignalKind = "MACD_CROSS_UP"
	SignalMACDCrossDown  SignalKind = "MACD_CROSS_DOWN"
	SignalRSIOverbought  SignalKind = "RSI_OVERBOUGHT"
	SignalRSIOversold    SignalKind = "RSI_OVERSOLD"
)

var signalLabels = map[SignalKind]string{
	SignalMAFastOverMid:  "MA 9 Cross Over 21 (Bull)",
	SignalMAFastUnderMid: "MA 9 Cross Under 21 (Bear)",
	SignalMAMidOverSlow:  "MA 21 Cross Over 50 (Bull Trend)",
	SignalMAMidUnderSlow: "MA 21 Cross Under 50 (Bear Trend)",
	SignalMACDCrossUp:    "MACD Zero Cross Up (Bull)",
	SignalMACDCrossDown:  "MACD Zero Cross Down (Bear)",
	SignalRSIOverbought:  "RSI Enter Overbought (>70)",
	SignalRSIOversold:    "RSI Enter Oversold (<30)",
}

// Label returns the human readable name of the signal.
func (k SignalKind) Label() string {
	if l, ok := signalLabels[k]; ok {
		return l
	}
	return string(k)
}

// SignalEvent is a single detected signal. Returns is filled in by the
// outcome measurer, keyed by horizon in bars.
type SignalEvent struct {
	Index   int
	Time    time.Time
	Kind    SignalKind
	Close   float64
	Returns map[int]optional.Option[float64]
}

// SignalSummary aggregates all events of one kind.
type SignalSummary struct {
	Kind        SignalKind
	Count       int
	MeanReturns map[int]optional.Option[float64]
	WinRate     optional.Option[float64] // percent, 0..100
}
