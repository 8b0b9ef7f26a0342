package backtest

import (
	"fmt"
	"io"
)

// WriteResultsText writes a fixed-width summary table followed by the trade
// list of each pair. It stops at and returns the first write error.
func WriteResultsText(w io.Writer, results []PairResult) error {
	tw := &textWriter{w: w}
	row := "%-16s %-12s %-12s %6s %6s %10s %8s %10s %s\n"
	tw.printf(row, "PAIR", "START", "END", "POINTS", "TRADES", "TOTAL", "SHARPE", "MAX_DD", "STATUS")

	for _, r := range results {
		if len(r.Errors) > 0 {
			tw.printf(row, r.Pair.Label(), "-", "-", "-", "-", "-", "-", "-", "ERROR "+r.Errors[0])
			continue
		}
		tw.printf(row,
			r.Pair.Label(), r.Start, r.End,
			fmt.Sprint(r.Points), fmt.Sprint(len(r.Trades)),
			fmt.Sprintf("%.4f", r.Summary.TotalReturn),
			formatOptional(r.Summary.SharpeRatio),
			fmt.Sprintf("%.4f", r.Summary.MaxDrawdown),
			statusText(r),
		)
	}

	for _, r := range results {
		if len(r.Errors) > 0 {
			continue
		}
		tw.printf("\n[%s] window=%d entry=%.2f exit=%.2f cost=%.4f\n",
			r.Pair.Label(), r.Params.Window, r.Params.EntryThreshold, r.Params.ExitThreshold, r.Params.TransactionCost)
		for _, t := range r.Trades {
			tw.printf("  %s @ %.4f -> %s @ %.4f  pnl=%.4f\n",
				t.Entry.Time.Format(dateLayout), t.Entry.Price,
				t.Exit.Time.Format(dateLayout), t.Exit.Price, t.PnL)
		}
		if r.Status.OpenEntry != nil {
			tw.printf("  %s @ %.4f -> (open)\n", r.Status.OpenEntry.Time.Format(dateLayout), r.Status.OpenEntry.Price)
		}
	}
	return tw.err
}

type textWriter struct {
	w   io.Writer
	err error
}

func (tw *textWriter) printf(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.w, format, args...)
}

func statusText(r PairResult) string {
	z := "z=-"
	if r.Status.LastZ != nil {
		z = fmt.Sprintf("z=%.2f", *r.Status.LastZ)
	}
	s := z
	if r.Status.InTrade {
		s += " in_trade"
	}
	if r.Summary.NoTrades {
		s += " no_trades"
	}
	return s
}

func formatOptional(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}
