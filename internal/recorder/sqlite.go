package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/moznion/go-optional"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"SignalSentinel/internal/logger"
	"SignalSentinel/internal/model"
)

// SQLiteRecorder archives reports to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *logger.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log *logger.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboards can read while a watch run writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: log}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS reports (
			id                   INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp            INTEGER NOT NULL,
			ticker               TEXT NOT NULL,
			as_of                INTEGER NOT NULL,
			bars                 INTEGER,
			current_price        REAL,
			current_rsi          REAL,
			high_52w             REAL,
			low_52w              REAL,
			avg_daily_value      REAL,
			low_liquidity        INTEGER,
			total_events         INTEGER,
			insufficient_history INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_ticker_ts ON reports(ticker, timestamp)`,

		`CREATE TABLE IF NOT EXISTS signal_summaries (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			report_id   INTEGER NOT NULL REFERENCES reports(id),
			kind        TEXT NOT NULL,
			count       INTEGER,
			horizon     INTEGER,
			mean_return REAL,
			win_rate    REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_summaries_report ON signal_summaries(report_id)`,

		`CREATE TABLE IF NOT EXISTS convergence_estimates (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			report_id     INTEGER NOT NULL REFERENCES reports(id),
			pair          TEXT NOT NULL,
			trend         TEXT,
			gap           REAL,
			net_slope     REAL,
			days_to_cross REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_convergence_report ON convergence_estimates(report_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// nullable maps an undefined value to SQL NULL.
func nullable(v optional.Option[float64]) sql.NullFloat64 {
	if v.IsNone() {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v.Unwrap(), Valid: true}
}

// RecordReport stores the report with one summary row per kind and horizon.
func (r *SQLiteRecorder) RecordReport(report *model.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`INSERT INTO reports
		(timestamp, ticker, as_of, bars, current_price, current_rsi, high_52w, low_52w,
		 avg_daily_value, low_liquidity, total_events, insufficient_history)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), report.Ticker, report.AsOf.Unix(), report.Bars,
		report.CurrentPrice, nullable(report.CurrentRSI), report.High52w, report.Low52w,
		report.Liquidity.AvgDailyValue, report.Liquidity.Low,
		report.TotalEvents, report.InsufficientHistory,
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	reportID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("report id: %w", err)
	}

	for _, s := range report.Summaries {
		for _, h := range report.Horizons {
			var winRate sql.NullFloat64
			if h == report.WinRateHorizon {
				winRate = nullable(s.WinRate)
			}
			if _, err := tx.Exec(`INSERT INTO signal_summaries
				(report_id, kind, count, horizon, mean_return, win_rate)
				VALUES (?,?,?,?,?,?)`,
				reportID, string(s.Kind), s.Count, h, nullable(s.MeanReturns[h]), winRate,
			); err != nil {
				return fmt.Errorf("insert summary: %w", err)
			}
		}
	}

	for _, c := range report.Convergence {
		if _, err := tx.Exec(`INSERT INTO convergence_estimates
			(report_id, pair, trend, gap, net_slope, days_to_cross)
			VALUES (?,?,?,?,?,?)`,
			reportID, c.Pair, string(c.Trend), c.Gap, c.NetSlope, nullable(c.DaysToCross),
		); err != nil {
			return fmt.Errorf("insert convergence: %w", err)
		}
	}

	return tx.Commit()
}

// CountReports returns the number of archived reports for ticker.
func (r *SQLiteRecorder) CountReports(ticker string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM reports WHERE ticker = ?`, ticker).Scan(&n)
	return n, err
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info("closing sqlite recorder")
	return r.db.Close()
}
