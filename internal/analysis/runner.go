package analysis

import (
	"context"

	"go.uber.org/zap"

	"SignalSentinel/internal/collector"
	"SignalSentinel/internal/logger"
	"SignalSentinel/internal/model"
	"SignalSentinel/internal/recorder"
)

// Runner performs complete runs for one ticker at a time: normalise,
// fetch once, analyse, archive.
type Runner struct {
	Collector    *collector.Collector
	Recorder     recorder.Recorder
	Options      Options
	MarketSuffix string
	Logger       *logger.Logger
}

// NewRunner creates a Runner. A nil recorder disables archiving.
func NewRunner(col *collector.Collector, rec recorder.Recorder, opts Options, suffix string, log *logger.Logger) *Runner {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Runner{
		Collector:    col,
		Recorder:     rec,
		Options:      opts,
		MarketSuffix: suffix,
		Logger:       log,
	}
}

// Run analyses one ticker. Data errors abort the run before any indicator
// is computed. Archive failures are logged and do not fail the run.
func (r *Runner) Run(ctx context.Context, input string) (*model.Report, error) {
	ticker := collector.NormalizeTicker(input, r.MarketSuffix)
	log := r.Logger.With(zap.String("ticker", ticker))
	log.Info("analysis started", zap.String("input", input))

	series, err := r.Collector.Collect(ctx, ticker)
	if err != nil {
		log.Warn("collect failed", zap.Error(err))
		return nil, err
	}

	report, err := Analyze(series, r.Options)
	if err != nil {
		log.Error("analysis failed", zap.Error(err))
		return nil, err
	}

	log.Info("analysis finished",
		zap.Int("bars", report.Bars),
		zap.Int("events", report.TotalEvents),
		zap.Bool("insufficient_history", report.InsufficientHistory),
		zap.Bool("low_liquidity", report.Liquidity.Low))

	if err := r.Recorder.RecordReport(report); err != nil {
		log.Error("record report", zap.Error(err))
	}
	return report, nil
}
