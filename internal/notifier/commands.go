package notifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"CoinScope/internal/dashboard"
	"CoinScope/internal/model"
	"CoinScope/internal/store"
)

// Analytics is the part of the dashboard service the bot commands use.
type Analytics interface {
	Overview(ctx context.Context, q dashboard.Query) ([]model.AnalyticsResult, error)
	Detail(ctx context.Context, symbol string, days int) (*model.AssetDetail, error)
}

const helpText = "Commands:\n/top [N] - best scored assets\n/asset SYMBOL - analytics for one asset"

// NewCommandHandler answers /top and /asset from the analytics service.
// digestSize is the default N for /top.
func NewCommandHandler(svc Analytics, digestSize int) CommandHandler {
	return func(ctx context.Context, command string) string {
		fields := strings.Fields(command)
		if len(fields) == 0 {
			return ""
		}
		// Telegram appends @botname in group chats.
		cmd, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")

		switch cmd {
		case "/top":
			n := digestSize
			if len(fields) > 1 {
				var v int
				if _, err := fmt.Sscanf(fields[1], "%d", &v); err != nil || v < 1 {
					return "Usage: /top [N]"
				}
				n = v
			}
			results, err := svc.Overview(ctx, dashboard.Query{Sort: dashboard.SortScore, Desc: true})
			if err != nil {
				return "❌ " + err.Error()
			}
			return FormatDigest(results, n, time.Now())

		case "/asset":
			if len(fields) < 2 {
				return "Usage: /asset SYMBOL"
			}
			d, err := svc.Detail(ctx, fields[1], 0)
			if errors.Is(err, store.ErrAssetNotFound) {
				return fmt.Sprintf("Unknown asset %s", strings.ToUpper(fields[1]))
			}
			if err != nil {
				return "❌ " + err.Error()
			}
			return FormatDetail(d)

		case "/start", "/help":
			return helpText
		default:
			return ""
		}
	}
}
