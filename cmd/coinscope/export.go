package main

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"

	"CoinScope/internal/dashboard"
	"CoinScope/internal/model"
)

const overviewSheet = "Overview"

var overviewHeader = []interface{}{
	"Symbol", "Name", "Price", "Market Cap", "Score", "Change 7d %", "Change 30d %",
	"Horizon Days", "Predicted Price", "Confidence %", "Confidence",
}

func (a *app) exportCmd() *cobra.Command {
	var (
		out    string
		groups []string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the analytics overview to an XLSX workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := contextOrBackground(cmd.Context())
			repo, err := a.openRepo(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			q := dashboard.Query{Sort: dashboard.SortScore, Desc: true}
			for _, g := range groups {
				q.Groups = append(q.Groups, strings.ToUpper(g))
			}
			results, err := a.newService(repo, nil).Overview(ctx, q)
			if err != nil {
				return err
			}

			f, err := buildWorkbook(results)
			if err != nil {
				return err
			}
			defer f.Close()
			if err := f.SaveAs(out); err != nil {
				return fmt.Errorf("save %s: %w", out, err)
			}
			log.Info().Str("file", out).Int("assets", len(results)).Msg("export written")
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "coinscope.xlsx", "Output file")
	cmd.Flags().StringSliceVar(&groups, "group", nil, "Only export assets in these groups")
	return cmd
}

// buildWorkbook lays out one overview row per asset and one volume sheet per
// asset with data.
func buildWorkbook(results []model.AnalyticsResult) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", overviewSheet); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeRow(f, overviewSheet, 1, overviewHeader); err != nil {
		f.Close()
		return nil, err
	}

	for i, r := range results {
		if err := writeRow(f, overviewSheet, i+2, overviewRow(r)); err != nil {
			f.Close()
			return nil, err
		}
		if !r.HasData {
			continue
		}
		if err := writeVolumeSheet(f, r); err != nil {
			f.Close()
			return nil, fmt.Errorf("volume sheet %s: %w", r.Symbol, err)
		}
	}
	return f, nil
}

func overviewRow(r model.AnalyticsResult) []interface{} {
	if !r.HasData {
		return []interface{}{r.Symbol, r.Name}
	}
	row := []interface{}{
		r.Symbol,
		r.Name,
		r.CurrentPrice.InexactFloat64(),
		nil,
		r.PerformanceScore,
		optionalFloat(r.PriceChange7d),
		optionalFloat(r.PriceChange30d),
		r.ForecastHorizonDays,
		r.PredictedPrice.InexactFloat64(),
		r.ForecastConfidencePercent,
		string(r.ForecastConfidenceLabel),
	}
	if r.MarketCap != nil {
		row[3] = r.MarketCap.InexactFloat64()
	}
	return row
}

func writeVolumeSheet(f *excelize.File, r model.AnalyticsResult) error {
	name := volumeSheetName(r.Symbol)
	if _, err := f.NewSheet(name); err != nil {
		return err
	}
	if err := writeRow(f, name, 1, []interface{}{"Period", "Volume"}); err != nil {
		return err
	}
	for i, b := range r.VolumeBuckets {
		if err := writeRow(f, name, i+2, []interface{}{b.Label, b.Value.InexactFloat64()}); err != nil {
			return err
		}
	}
	return nil
}

// volumeSheetName keeps within Excel's 31 character sheet name limit.
func volumeSheetName(symbol string) string {
	name := "Volume " + symbol
	if len(name) > 31 {
		name = name[:31]
	}
	return name
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func optionalFloat(p *float64) interface{} {
	if p == nil {
		return nil
	}
	return *p
}
