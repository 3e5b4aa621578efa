package reporting

import (
	"fmt"
	"strings"

	"pump-short-lab/internal/domain"
)

// RenderTradesCSV renders the trade log as a CSV string.
func RenderTradesCSV(trades []domain.Trade) string {
	var sb strings.Builder

	sb.WriteString("trade_id,run_id,timestamp_ms,symbol,action,price,size,fee,realized_pnl,reason\n")

	for _, t := range trades {
		sb.WriteString(fmt.Sprintf("%s,%s,%d,%s,%s,%.10f,%.10f,%.10f,%.10f,%s\n",
			t.TradeID,
			t.RunID,
			t.TimestampMs,
			t.Symbol,
			t.Action,
			t.Price,
			t.Size,
			t.Fee,
			t.RealizedPnL,
			csvEscape(t.Reason),
		))
	}

	return sb.String()
}

// RenderEquityCSV renders the equity curve as a CSV string.
func RenderEquityCSV(curve []domain.EquityPoint) string {
	var sb strings.Builder

	sb.WriteString("timestamp_ms,equity\n")

	for _, p := range curve {
		sb.WriteString(fmt.Sprintf("%d,%.10f\n", p.TimestampMs, p.Equity))
	}

	return sb.String()
}

// csvEscape quotes a field containing commas or quotes.
func csvEscape(s string) string {
	if !strings.ContainsAny(s, ",\"\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
