package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/shopspring/decimal"

	"CoinScope/internal/model"
	"CoinScope/internal/recorder"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

// renderDetail prints one asset's analytics as a two-column table followed
// by its volume histogram.
func renderDetail(w io.Writer, d *model.AssetDetail) {
	t := newTable(w)
	t.SetTitle(fmt.Sprintf("%s (%s)", d.Symbol, d.Name))
	t.AppendHeader(table.Row{"Metric", "Value"})

	if !d.HasData {
		t.AppendRow(table.Row{"Status", "no price history"})
		t.Render()
		return
	}

	t.AppendRows([]table.Row{
		{"Price", d.CurrentPrice.String()},
		{"Market cap", capString(d.MarketCap)},
		{"Groups", fmt.Sprint(d.Groups)},
		{"Score", fmt.Sprintf("%.1f", d.PerformanceScore)},
		{"Change 7d", changeString(d.PriceChange7d)},
		{"Change 30d", changeString(d.PriceChange30d)},
		{"Forecast", fmt.Sprintf("%s in %d days", d.PredictedPrice.String(), d.ForecastHorizonDays)},
		{"Confidence", fmt.Sprintf("%.1f%% %s", d.ForecastConfidencePercent, d.ForecastConfidenceLabel)},
	})
	t.AppendSeparator()
	t.AppendRow(table.Row{"Score", d.ScoreExplanation})
	t.AppendRow(table.Row{"Forecast", d.ForecastExplanation})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: 80},
	})
	t.Render()

	if len(d.VolumeBuckets) == 0 {
		return
	}
	vt := newTable(w)
	vt.SetTitle(fmt.Sprintf("Volume, last %d days", d.DisplayDays))
	vt.AppendHeader(table.Row{"Period", "Volume"})
	for _, b := range d.VolumeBuckets {
		vt.AppendRow(table.Row{b.Label, b.Value.StringFixed(2)})
	}
	vt.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
	})
	vt.Render()
}

func renderHistory(w io.Writer, symbol string, snaps []recorder.Snapshot) {
	t := newTable(w)
	t.SetTitle(symbol + " history")
	t.AppendHeader(table.Row{"Recorded", "Price", "Score", "7d", "30d", "Forecast", "Confidence"})
	for _, s := range snaps {
		if !s.HasData {
			t.AppendRow(table.Row{s.RecordedAt.Format("2006-01-02 15:04"), "-", "-", "-", "-", "-", "-"})
			continue
		}
		t.AppendRow(table.Row{
			s.RecordedAt.Format("2006-01-02 15:04"),
			s.CurrentPrice.String(),
			fmt.Sprintf("%.1f", s.Score),
			changeString(s.Change7d),
			changeString(s.Change30d),
			fmt.Sprintf("%s @%dd", s.PredictedPrice.String(), s.HorizonDays),
			fmt.Sprintf("%.1f%% %s", s.ConfidencePercent, s.ConfidenceLabel),
		})
	}
	if len(snaps) == 0 {
		t.AppendFooter(table.Row{"no snapshots recorded"})
	}
	t.Render()
}

func changeString(p *float64) string {
	if p == nil {
		return "n/a"
	}
	return fmt.Sprintf("%+.2f%%", *p)
}

func capString(d *decimal.Decimal) string {
	if d == nil {
		return "n/a"
	}
	return d.StringFixed(0)
}
