package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"SignalSentinel/internal/analysis"
	"SignalSentinel/internal/collector"
	"SignalSentinel/internal/config"
	"SignalSentinel/internal/errs"
	"SignalSentinel/internal/logger"
	"SignalSentinel/internal/notifier"
	"SignalSentinel/internal/recorder"
	"SignalSentinel/internal/scheduler"
)

// app bundles what both commands need.
type app struct {
	cfg    *config.Config
	log    *logger.Logger
	rec    recorder.Recorder
	runner *analysis.Runner
}

func (a *app) close() {
	if err := a.rec.Close(); err != nil {
		a.log.Warn("close recorder", zap.Error(err))
	}
	_ = a.log.Sync()
}

// setup loads the config, applies command line overrides and wires the
// pipeline.
func setup(cmd *cli.Command) (*app, error) {
	cfgPath := cmd.String("config")
	if v := os.Getenv("CONFIG_PATH"); v != "" && !cmd.IsSet("config") {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, err := logger.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidConfig, "init logger", err)
	}

	var fetcher collector.Fetcher
	switch cfg.DataSource.Provider {
	case config.ProviderREST:
		fetcher = collector.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	default:
		fetcher = collector.NewYahooFetcher(cfg.Proxy)
	}
	log.Debug("data source", zap.String("provider", fetcher.Name()))

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			log.Warn("init sqlite recorder failed, using noop", zap.Error(err))
		} else {
			rec = sr
		}
	}

	col := collector.NewCollector(fetcher, cfg.DataSource.Lookback, log)
	runner := analysis.NewRunner(col, rec, cfg.ToOptions(), cfg.DataSource.MarketSuffix, log)
	return &app{cfg: cfg, log: log, rec: rec, runner: runner}, nil
}

// applyFlags overrides config values with flags given on the command line.
func applyFlags(cmd *cli.Command, cfg *config.Config) error {
	if cmd.IsSet("log-level") {
		cfg.LogLevel = cmd.String("log-level")
	}
	if cmd.IsSet("db") {
		cfg.Database.SQLitePath = cmd.String("db")
	}
	if cmd.IsSet("lookback") {
		cfg.DataSource.Lookback = cmd.String("lookback")
	}
	if cmd.IsSet("policy") {
		cfg.Analysis.SignalPolicy = cmd.String("policy")
	}
	if cmd.IsSet("horizons") {
		h, err := config.ParseHorizons(cmd.String("horizons"))
		if err != nil {
			return err
		}
		cfg.Analysis.Horizons = h
	}
	for name, dst := range map[string]*int{
		"win-horizon":  &cfg.Analysis.WinRateHorizon,
		"start-offset": &cfg.Analysis.StartOffset,
		"window":       &cfg.Analysis.ConvergenceWindow,
	} {
		if !cmd.IsSet(name) {
			continue
		}
		v, err := strconv.Atoi(cmd.String(name))
		if err != nil {
			return errs.Newf(errs.ErrCodeInvalidConfig, "--%s: %q is not a number", name, cmd.String(name))
		}
		*dst = v
	}
	if cmd.IsSet("end-margin") {
		v, err := strconv.Atoi(cmd.String("end-margin"))
		if err != nil {
			return errs.Newf(errs.ErrCodeInvalidConfig, "--end-margin: %q is not a number", cmd.String("end-margin"))
		}
		cfg.Analysis.EndMargin = &v
	}
	return nil
}

func analyzeAction(ctx context.Context, cmd *cli.Command) error {
	ticker := cmd.Args().First()
	if ticker == "" {
		return cli.Exit("usage: sentinel analyze <TICKER>", 2)
	}
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	report, err := a.runner.Run(ctx, ticker)
	if errs.HasCode(err, errs.ErrCodeDataUnavailable) {
		return cli.Exit(fmt.Sprintf("Data not found for %s. Is it delisted or suspended?", ticker), 1)
	}
	if err != nil {
		return err
	}
	fmt.Print(notifier.FormatTerminalReport(report))

	if cmd.Bool("telegram") {
		tn := notifier.NewTelegramNotifier(a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID, a.cfg.Proxy, a.log)
		if !tn.Enabled() {
			a.log.Warn("telegram requested but bot_token/chat_id are not configured")
			return nil
		}
		if err := tn.SendWithRetry(ctx, notifier.FormatTelegramReport(report), 3); err != nil {
			a.log.Error("send report", zap.Error(err))
		}
	}
	return nil
}

func watchAction(ctx context.Context, cmd *cli.Command) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.close()
	if cmd.IsSet("tickers") {
		a.cfg.Watch.Tickers = config.SplitList(cmd.String("tickers"))
	}
	if err := a.cfg.ValidateWatch(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tn := notifier.NewTelegramNotifier(a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID, a.cfg.Proxy, a.log)
	sched := scheduler.NewScheduler(ctx, a.runner, tn, a.cfg.Watch.Tickers, a.log)
	if err := sched.Register(a.cfg.Watch.Cron); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidConfig, "register watch task", err)
	}
	sched.Start()
	defer sched.Stop()

	go tn.StartPolling(ctx, sched.HandleCommand)

	if cmd.Bool("run-now") {
		go sched.RunNow()
	}

	a.log.Info("watching", zap.Strings("tickers", a.cfg.Watch.Tickers), zap.String("cron", a.cfg.Watch.Cron))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-ctx.Done():
	}
	a.log.Info("shutdown signal received, stopping")
	return nil
}

func analysisFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "lookback", Aliases: []string{"l"}, Usage: "history to fetch, e.g. `2y`, 5y, max"},
		&cli.StringFlag{Name: "horizons", Usage: "comma separated forward horizons in bars (default 5,10,20)"},
		&cli.StringFlag{Name: "win-horizon", Usage: "horizon used for the win rate (default 5)"},
		&cli.StringFlag{Name: "policy", Aliases: []string{"p"}, Usage: "signal policy: exclusive or independent"},
		&cli.StringFlag{Name: "start-offset", Usage: "first bar the detector scans (default 50)"},
		&cli.StringFlag{Name: "end-margin", Usage: "bars left unscanned at the end (default longest horizon)"},
		&cli.StringFlag{Name: "window", Usage: "convergence regression window (default 5)"},
		&cli.StringFlag{Name: "db", Usage: "SQLite report archive path"},
	}
}

func main() {
	cmd := &cli.Command{
		Name:  "sentinel",
		Usage: "Backtest how an instrument reacts to MA, MACD and RSI signals",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the YAML config file",
				Value:   "configs/config.yaml",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "analyze",
				Usage:     "Analyse one ticker and print the behavior report",
				ArgsUsage: "<TICKER>",
				Flags: append(analysisFlags(), &cli.BoolFlag{
					Name:  "telegram",
					Usage: "also send the report to the configured Telegram chat",
				}),
				Action: analyzeAction,
			},
			{
				Name:  "watch",
				Usage: "Analyse a watchlist on a schedule and answer /analyze bot commands",
				Flags: append(analysisFlags(),
					&cli.StringFlag{Name: "tickers", Aliases: []string{"t"}, Usage: "comma separated watchlist"},
					&cli.BoolFlag{Name: "run-now", Usage: "run the watchlist once at startup"},
				),
				Action: watchAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
