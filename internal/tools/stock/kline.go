package stock

import (
	"context"
	"fmt"
	"strings"
	"time"

	"advisor/internal/tools"
	"advisor/pkg/errors"
)

const defaultKlineDays = 60

// NewGetKlineTool loads recent daily candles for a stock.
func NewGetKlineTool(deps Deps) tools.Tool {
	params := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"code": map[string]interface{}{
				"type":        "string",
				"description": "股票代码，例如：sh.600519",
			},
			"days": map[string]interface{}{
				"type":        "integer",
				"description": "回看天数，默认60",
			},
		},
		"required": []string{"code"},
	}

	return tools.New("get_kline_data", "获取股票日K线历史数据", params, func(ctx context.Context, args tools.Args) (string, error) {
		if !deps.HasMarket() {
			return "", errors.Wrapf(errors.ErrInternal, "get_kline_data: market data client not configured")
		}

		code := args.String("code", "")
		if code == "" {
			return "", errors.Wrapf(errors.ErrInvalidInput, "get_kline_data: code is required")
		}

		days := args.Int("days", defaultKlineDays)
		if days <= 0 {
			days = defaultKlineDays
		}

		end := time.Now()
		start := end.AddDate(0, 0, -days)

		bars, err := deps.Market.GetKline(ctx, code, start, end)
		if err != nil {
			return "", errors.Wrap(err, "get_kline_data")
		}
		if len(bars) == 0 {
			return fmt.Sprintf("%s 在最近%d天内没有K线数据", code, days), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "%s 最近%d个交易日K线（日期 开盘 最高 最低 收盘 涨跌幅%% 成交量）：\n", code, len(bars))

		// Cap the verbatim listing, the tail is what technical analysis reads.
		listFrom := 0
		if len(bars) > 30 {
			listFrom = len(bars) - 30
			fmt.Fprintf(&sb, "（仅列出最近30个交易日）\n")
		}
		for _, bar := range bars[listFrom:] {
			fmt.Fprintf(&sb, "%s %.2f %.2f %.2f %.2f %.2f %.0f\n",
				bar.Date.Format("2006-01-02"), bar.Open, bar.High, bar.Low, bar.Close, bar.Pct, bar.Volume)
		}

		return strings.TrimRight(sb.String(), "\n"), nil
	})
}
