package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"CoinScope/internal/config"
	"CoinScope/internal/model"
)

// ErrCircuitOpen is returned while the breaker rejects calls after repeated failures.
var ErrCircuitOpen = errors.New("coingecko circuit open")

// CoinGecko implements Fetcher against the CoinGecko v3 REST API.
type CoinGecko struct {
	http     *resty.Client
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker
	currency string
	daysBack int
}

// NewCoinGecko creates a client with rate limiting and a circuit breaker.
// proxyURL may be empty.
func NewCoinGecko(cfg config.CoinGeckoConfig, proxyURL string) *CoinGecko {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		client.SetHeader("x-cg-demo-api-key", cfg.APIKey)
	}
	if proxyURL != "" {
		client.SetProxy(proxyURL)
	}

	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 30
	}

	st := gobreaker.Settings{
		Name:     "coingecko",
		Interval: time.Minute,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	}

	return &CoinGecko{
		http:     client,
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
		breaker:  gobreaker.NewCircuitBreaker(st),
		currency: cfg.VsCurrency,
		daysBack: cfg.DaysBack,
	}
}

func (c *CoinGecko) Name() string { return "coingecko" }

// get performs one rate-limited GET through the breaker and returns the body.
func (c *CoinGecko) get(ctx context.Context, path string, params map[string]string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	body, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(params).
			Get(path)
		if err != nil {
			return nil, fmt.Errorf("coingecko fetch %s: %w", path, err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("coingecko %s: status %d, body: %s", path, resp.StatusCode(), truncate(resp.String(), 200))
		}
		return resp.Body(), nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%s: %w", path, ErrCircuitOpen)
		}
		return nil, err
	}
	return body.([]byte), nil
}

// MarketsGlobal lists the largest coins by market cap.
func (c *CoinGecko) MarketsGlobal(ctx context.Context, perPage int) ([]MarketCoin, error) {
	return c.markets(ctx, "", perPage)
}

// MarketsByCategory lists the largest coins of one CoinGecko category, e.g. "meme-token".
func (c *CoinGecko) MarketsByCategory(ctx context.Context, category string, perPage int) ([]MarketCoin, error) {
	return c.markets(ctx, category, perPage)
}

func (c *CoinGecko) markets(ctx context.Context, category string, perPage int) ([]MarketCoin, error) {
	params := map[string]string{
		"vs_currency":             c.currency,
		"order":                   "market_cap_desc",
		"per_page":                strconv.Itoa(perPage),
		"page":                    "1",
		"sparkline":               "false",
		"price_change_percentage": "24h",
	}
	if category != "" {
		params["category"] = category
	}

	body, err := c.get(ctx, "/coins/markets", params)
	if err != nil {
		return nil, err
	}
	var coins []MarketCoin
	if err := json.Unmarshal(body, &coins); err != nil {
		return nil, fmt.Errorf("coingecko decode markets: %w", err)
	}
	return coins, nil
}

// marketChart is the /coins/{id}/market_chart payload. Each entry is
// [unix millis, value]; values may be null.
type marketChart struct {
	Prices       [][]json.Number `json:"prices"`
	MarketCaps   [][]json.Number `json:"market_caps"`
	TotalVolumes [][]json.Number `json:"total_volumes"`
}

// MarketChart returns the raw chart for the last days days, ascending.
// CoinGecko picks the granularity from the range.
func (c *CoinGecko) MarketChart(ctx context.Context, coinID string, days int) ([]model.PriceObservation, error) {
	body, err := c.get(ctx, "/coins/"+coinID+"/market_chart", map[string]string{
		"vs_currency": c.currency,
		"days":        strconv.Itoa(c.clampDays(days)),
		"precision":   "full",
	})
	if err != nil {
		return nil, err
	}
	var chart marketChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("coingecko decode chart for %s: %w", coinID, err)
	}
	return parseChart(chart)
}

// DailySeries returns one observation per UTC date; the last point of a
// date wins.
func (c *CoinGecko) DailySeries(ctx context.Context, coinID string, days int) ([]model.PriceObservation, error) {
	rows, err := c.MarketChart(ctx, coinID, days)
	if err != nil {
		return nil, err
	}
	return lastPerDay(rows), nil
}

// HourlySeries returns the chart rows as delivered.
func (c *CoinGecko) HourlySeries(ctx context.Context, coinID string, days int) ([]model.PriceObservation, error) {
	return c.MarketChart(ctx, coinID, days)
}

func (c *CoinGecko) clampDays(days int) int {
	if days < 1 {
		return 1
	}
	if c.daysBack > 0 && days > c.daysBack {
		return c.daysBack
	}
	return days
}

// parseChart zips the three series by position; the shortest one bounds the result.
func parseChart(chart marketChart) ([]model.PriceObservation, error) {
	n := min(len(chart.Prices), len(chart.MarketCaps), len(chart.TotalVolumes))
	rows := make([]model.PriceObservation, 0, n)
	for i := 0; i < n; i++ {
		p := chart.Prices[i]
		if len(p) < 2 {
			return nil, fmt.Errorf("malformed price entry %d", i)
		}
		ms, err := p[0].Float64()
		if err != nil {
			return nil, fmt.Errorf("price timestamp %d: %w", i, err)
		}
		if p[1] == "" {
			continue
		}
		price, err := decimal.NewFromString(p[1].String())
		if err != nil {
			return nil, fmt.Errorf("price %d: %w", i, err)
		}
		rows = append(rows, model.PriceObservation{
			Timestamp: time.UnixMilli(int64(ms)).UTC(),
			Price:     price,
			MarketCap: optionalValue(chart.MarketCaps[i]),
			Volume:    optionalValue(chart.TotalVolumes[i]),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Timestamp.Before(rows[j].Timestamp) })
	return rows, nil
}

func optionalValue(entry []json.Number) *decimal.Decimal {
	if len(entry) < 2 || entry[1] == "" {
		return nil
	}
	d, err := decimal.NewFromString(entry[1].String())
	if err != nil {
		return nil
	}
	return &d
}

// lastPerDay keeps the last row of each UTC date. rows must be ascending.
func lastPerDay(rows []model.PriceObservation) []model.PriceObservation {
	out := make([]model.PriceObservation, 0, len(rows))
	for _, r := range rows {
		if n := len(out); n > 0 && sameDay(out[n-1].Timestamp, r.Timestamp) {
			out[n-1] = r
			continue
		}
		out = append(out, r)
	}
	return out
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
