package stock

import (
	"context"
	"fmt"
	"strings"
	"time"

	"advisor/internal/tools"
	"advisor/pkg/errors"
)

const valuationLookbackDays = 30

// NewValuationTool returns recent valuation ratios for a stock.
func NewValuationTool(deps Deps) tools.Tool {
	params := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"code": map[string]interface{}{
				"type":        "string",
				"description": "股票代码，例如：sh.600519",
			},
		},
		"required": []string{"code"},
	}

	return tools.New("get_valuation_metrics", "获取股票近期估值指标（市盈率、市净率等）", params, func(ctx context.Context, args tools.Args) (string, error) {
		if !deps.HasMarket() {
			return "", errors.Wrapf(errors.ErrInternal, "get_valuation_metrics: market data client not configured")
		}

		code := args.String("code", "")
		if code == "" {
			return "", errors.Wrapf(errors.ErrInvalidInput, "get_valuation_metrics: code is required")
		}

		end := time.Now()
		start := end.AddDate(0, 0, -valuationLookbackDays)

		vals, err := deps.Market.GetValuation(ctx, code, start, end)
		if err != nil {
			return "", errors.Wrap(err, "get_valuation_metrics")
		}
		if len(vals) == 0 {
			return fmt.Sprintf("%s 在最近%d天内没有估值数据", code, valuationLookbackDays), nil
		}

		latest := vals[len(vals)-1]

		var sb strings.Builder
		fmt.Fprintf(&sb, "%s 估值指标（%s）：\n", code, latest.Date.Format("2006-01-02"))
		fmt.Fprintf(&sb, "收盘价: %.2f\n", latest.Close)
		fmt.Fprintf(&sb, "市盈率TTM: %.2f，市净率MRQ: %.2f\n", latest.PeTTM, latest.PbMRQ)
		fmt.Fprintf(&sb, "市销率TTM: %.2f，市现率TTM: %.2f\n", latest.PsTTM, latest.PcfTTM)
		fmt.Fprintf(&sb, "换手率: %.2f%%\n", latest.Turnover)

		// A simple range summary over the window gives the model context
		// for whether the current level is stretched.
		minPe, maxPe := vals[0].PeTTM, vals[0].PeTTM
		for _, v := range vals {
			if v.PeTTM < minPe {
				minPe = v.PeTTM
			}
			if v.PeTTM > maxPe {
				maxPe = v.PeTTM
			}
		}
		fmt.Fprintf(&sb, "近%d日市盈率区间: %.2f - %.2f", len(vals), minPe, maxPe)

		return sb.String(), nil
	})
}
