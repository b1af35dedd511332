package scheduler

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"SignalSentinel/internal/analysis"
	"SignalSentinel/internal/collector"
	"SignalSentinel/internal/errs"
	"SignalSentinel/internal/logger"
	"SignalSentinel/internal/notifier"
)

// Sender delivers a rendered message.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

const sendRetries = 3

// Scheduler runs the watchlist on a cron schedule and answers bot commands.
type Scheduler struct {
	Cron     *cron.Cron
	Runner   *analysis.Runner
	Notifier Sender
	Tickers  []string
	Logger   *logger.Logger
	Ctx      context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, runner *analysis.Runner, sender Sender, tickers []string, log *logger.Logger) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds(), cron.WithLogger(cronLogger{log})),
		Runner:   runner,
		Notifier: sender,
		Tickers:  tickers,
		Logger:   log,
		Ctx:      ctx,
	}
}

// Register adds the watchlist job.
func (s *Scheduler) Register(expr string) error {
	if _, err := s.Cron.AddFunc(expr, s.watchTask); err != nil {
		return fmt.Errorf("register watch task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Logger.Info("scheduler started", zap.Int("jobs", len(s.Cron.Entries())))
}

// Stop stops the cron scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Logger.Info("scheduler stopped")
}

// RunNow executes the watch task immediately.
func (s *Scheduler) RunNow() {
	s.watchTask()
}

// watchTask analyses every ticker in turn. One failing ticker does not stop
// the others.
func (s *Scheduler) watchTask() {
	s.Logger.Info("running watch task", zap.Strings("tickers", s.Tickers))
	for _, t := range s.Tickers {
		if s.Ctx.Err() != nil {
			return
		}
		s.trySend(s.analyze(s.Ctx, t))
	}
}

// analyze runs one ticker and renders the outcome as a chat message.
func (s *Scheduler) analyze(ctx context.Context, ticker string) string {
	symbol := html.EscapeString(collector.NormalizeTicker(ticker, s.Runner.MarketSuffix))
	report, err := s.Runner.Run(ctx, ticker)
	switch {
	case errs.HasCode(err, errs.ErrCodeDataUnavailable):
		return fmt.Sprintf("❌ Data not found for <b>%s</b>. Is it delisted or suspended?", symbol)
	case err != nil:
		return fmt.Sprintf("❌ Analysis of <b>%s</b> failed.", symbol)
	}
	return notifier.FormatTelegramReport(report)
}

const helpText = "Available commands:\n• /analyze &lt;TICKER&gt; - backtest signals for one ticker\n• /watchlist - show scheduled tickers"

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	switch strings.ToLower(fields[0]) {
	case "/analyze":
		if len(fields) < 2 {
			return "Usage: /analyze &lt;TICKER&gt;"
		}
		return s.analyze(ctx, fields[1])
	case "/watchlist":
		if len(s.Tickers) == 0 {
			return "Watchlist is empty."
		}
		return "Watchlist: " + strings.Join(s.Tickers, ", ")
	default:
		return helpText
	}
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, sendRetries); err != nil {
		s.Logger.Error("send notification", zap.Error(err))
	}
}

// cronLogger routes cron's own messages to zap.
type cronLogger struct {
	log *logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.Sugar().Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
