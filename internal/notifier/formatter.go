package notifier

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"CoinScope/internal/model"
)

// FormatDigest formats the n best-scored assets into a Telegram message.
// Assets without price history are listed by count only.
func FormatDigest(results []model.AnalyticsResult, n int, at time.Time) string {
	var (
		ranked []model.AnalyticsResult
		noData int
	)
	for _, r := range results {
		if r.HasData {
			ranked = append(ranked, r)
		} else {
			noData++
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].PerformanceScore > ranked[j].PerformanceScore })
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>CoinScope digest</b> | %s\n\n", at.Format("2006-01-02")))
	if len(ranked) == 0 {
		b.WriteString("No assets with price history yet.\n")
	}
	for i, r := range ranked {
		b.WriteString(fmt.Sprintf("%d. <b>%s</b> %s | score %.1f | 7d %s | 30d %s\n",
			i+1, html.EscapeString(r.Symbol), formatMoney(r.CurrentPrice), r.PerformanceScore,
			formatChange(r.PriceChange7d), formatChange(r.PriceChange30d)))
		if r.ForecastHorizonDays > 0 {
			b.WriteString(fmt.Sprintf("   %dd forecast %s (%s, %.0f%%)\n",
				r.ForecastHorizonDays, formatMoney(r.PredictedPrice),
				r.ForecastConfidenceLabel, r.ForecastConfidencePercent))
		}
	}
	if noData > 0 {
		b.WriteString(fmt.Sprintf("\n%d asset(s) without price history\n", noData))
	}
	return b.String()
}

// FormatDetail formats one asset's analytics for the /asset command.
func FormatDetail(d *model.AssetDetail) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔎 <b>%s</b> %s\n", html.EscapeString(d.Symbol), html.EscapeString(d.Name)))
	if len(d.Groups) > 0 {
		b.WriteString(fmt.Sprintf("Groups: %s\n", strings.Join(d.Groups, ", ")))
	}
	if !d.HasData {
		b.WriteString("\nNo price history available.")
		return b.String()
	}

	b.WriteString(fmt.Sprintf("\nPrice: %s\n", formatMoney(d.CurrentPrice)))
	if d.MarketCap != nil {
		b.WriteString(fmt.Sprintf("Market cap: %s\n", formatMoney(d.MarketCap.Round(0))))
	}
	b.WriteString(fmt.Sprintf("7d: %s | 30d: %s\n\n", formatChange(d.PriceChange7d), formatChange(d.PriceChange30d)))

	b.WriteString(fmt.Sprintf("📈 <b>Score %.1f</b>\n%s\n\n", d.PerformanceScore, html.EscapeString(d.ScoreExplanation)))
	if d.ForecastHorizonDays > 0 {
		b.WriteString(fmt.Sprintf("🔮 <b>%dd forecast %s</b> (%s)\n",
			d.ForecastHorizonDays, formatMoney(d.PredictedPrice), d.ForecastConfidenceLabel))
	}
	b.WriteString(html.EscapeString(d.ForecastExplanation))
	return b.String()
}

func formatChange(p *float64) string {
	if p == nil {
		return "n/a"
	}
	return fmt.Sprintf("%+.1f%%", *p)
}

// formatMoney prints more decimals for sub-dollar prices.
func formatMoney(d decimal.Decimal) string {
	abs := d.Abs()
	switch {
	case abs.IsZero():
		return "$0"
	case abs.LessThan(decimal.NewFromFloat(0.01)):
		return "$" + d.StringFixed(8)
	case abs.LessThan(decimal.NewFromInt(1)):
		return "$" + d.StringFixed(4)
	default:
		return "$" + d.StringFixed(2)
	}
}
