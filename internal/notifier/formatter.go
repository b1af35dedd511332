package notifier

import (
	"fmt"
	"html"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"

	"SignalSentinel/internal/model"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numStyle    = cellStyle.Align(lipgloss.Right)
)

const undefined = "-"

// pct renders a percentage with two decimals, or "-" when undefined.
func pct(v optional.Option[float64]) string {
	if v.IsNone() {
		return undefined
	}
	return decimal.NewFromFloat(v.Unwrap()).StringFixed(2)
}

// price renders a price with two decimals.
func price(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func rsi(v optional.Option[float64]) string {
	if v.IsNone() {
		return "n/a"
	}
	return decimal.NewFromFloat(v.Unwrap()).StringFixed(1)
}

// SummaryRows returns the backtest table as plain string rows, header
// first. Renderers for different outputs share it.
func SummaryRows(r *model.Report) [][]string {
	header := []string{"Signal", "Count"}
	for _, h := range r.Horizons {
		header = append(header, fmt.Sprintf("Avg %dd %%", h))
	}
	header = append(header, fmt.Sprintf("Win %dd %%", r.WinRateHorizon))

	rows := [][]string{header}
	for _, s := range r.Summaries {
		row := []string{s.Kind.Label(), fmt.Sprintf("%d", s.Count)}
		for _, h := range r.Horizons {
			row = append(row, pct(s.MeanReturns[h]))
		}
		row = append(row, pct(s.WinRate))
		rows = append(rows, row)
	}
	return rows
}

// ConvergenceLine describes one MA pair projection.
func ConvergenceLine(c model.ConvergenceEstimate) string {
	if c.Converging {
		return fmt.Sprintf("%s: %s, converging, cross in ~%s days", c.Pair, c.Trend, rsi(c.DaysToCross))
	}
	return fmt.Sprintf("%s: %s, diverging / no estimate", c.Pair, c.Trend)
}

// FormatTerminalReport renders the report for a terminal.
func FormatTerminalReport(r *model.Report) string {
	var b strings.Builder

	if r.Liquidity.Low {
		b.WriteString(warnStyle.Render(fmt.Sprintf(
			"WARNING: low liquidity (avg daily value %s < %s).", price(r.Liquidity.AvgDailyValue), price(r.Liquidity.Threshold))))
		b.WriteString("\n")
		b.WriteString(warnStyle.Render("Technical signals (MA/RSI) may be unreliable. Proceed with skepticism."))
		b.WriteString("\n\n")
	}

	b.WriteString(titleStyle.Render(fmt.Sprintf("=== BEHAVIOR REPORT FOR %s ===", r.Ticker)))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("As of %s | %d bars | Price %s | RSI %s | 52w %s - %s\n\n",
		r.AsOf.Format("2006-01-02"), r.Bars, price(r.CurrentPrice), rsi(r.CurrentRSI),
		price(r.Low52w), price(r.High52w)))

	switch {
	case r.InsufficientHistory:
		b.WriteString(fmt.Sprintf("Insufficient history: %d bars is too short to backtest signals.\n", r.Bars))
	case r.NoSignals:
		b.WriteString("No significant signals found in the lookback window.\n")
	default:
		rows := SummaryRows(r)
		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers(rows[0]...).
			Rows(rows[1:]...).
			StyleFunc(func(row, col int) lipgloss.Style {
				switch {
				case row == table.HeaderRow:
					return headerStyle
				case col == 0:
					return cellStyle
				default:
					return numStyle
				}
			})
		b.WriteString(t.String())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(titleStyle.Render("--- Trend convergence ---"))
	b.WriteString("\n")
	for _, c := range r.Convergence {
		b.WriteString("  " + ConvergenceLine(c) + "\n")
	}

	if len(r.Advice) > 0 {
		b.WriteString("\n")
		b.WriteString(titleStyle.Render(fmt.Sprintf("--- Skeptic's analysis for %s ---", r.Ticker)))
		b.WriteString("\n")
		for _, a := range r.Advice {
			b.WriteString("  > " + a + "\n")
		}
	}
	return b.String()
}

// FormatTelegramReport renders the report as Telegram HTML.
func FormatTelegramReport(r *model.Report) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>%s</b> | %s\n", html.EscapeString(r.Ticker), r.AsOf.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Price: %s | RSI: %s\n", price(r.CurrentPrice), rsi(r.CurrentRSI)))
	if r.Liquidity.Low {
		b.WriteString("⚠️ Low liquidity, signals may be unreliable\n")
	}
	b.WriteString("\n")

	switch {
	case r.InsufficientHistory:
		b.WriteString("Insufficient history to backtest signals.\n")
	case r.NoSignals:
		b.WriteString("No significant signals found.\n")
	default:
		b.WriteString("<pre>")
		for _, row := range SummaryRows(r) {
			b.WriteString(html.EscapeString(strings.Join(row, " | ")))
			b.WriteString("\n")
		}
		b.WriteString("</pre>\n")
	}

	b.WriteString("\n📈 <b>Convergence</b>\n")
	for _, c := range r.Convergence {
		b.WriteString(html.EscapeString(ConvergenceLine(c)) + "\n")
	}
	for _, a := range r.Advice {
		b.WriteString("👉 " + html.EscapeString(a) + "\n")
	}
	return b.String()
}
