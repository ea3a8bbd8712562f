package stock

import (
	"context"
	"fmt"
	"strings"

	"advisor/internal/tools"
	"advisor/pkg/errors"
)

// NewGetQuoteTool returns the latest quote snapshot for a stock.
func NewGetQuoteTool(deps Deps) tools.Tool {
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

	return tools.New("get_stock_quote", "获取股票最新行情快照", params, func(ctx context.Context, args tools.Args) (string, error) {
		if !deps.HasMarket() {
			return "", errors.Wrapf(errors.ErrInternal, "get_stock_quote: market data client not configured")
		}

		code := args.String("code", "")
		if code == "" {
			return "", errors.Wrapf(errors.ErrInvalidInput, "get_stock_quote: code is required")
		}

		quote, err := deps.Market.GetQuote(ctx, code)
		if err != nil {
			return "", errors.Wrap(err, "get_stock_quote")
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "股票 %s", quote.Code)
		if quote.Name != "" {
			fmt.Fprintf(&sb, "（%s）", quote.Name)
		}
		fmt.Fprintf(&sb, " %s 行情：\n", quote.Date.Format("2006-01-02"))
		fmt.Fprintf(&sb, "最新价 %.2f，开盘 %.2f，最高 %.2f，最低 %.2f，昨收 %.2f\n",
			quote.Price, quote.Open, quote.High, quote.Low, quote.PrevClose)
		fmt.Fprintf(&sb, "成交量 %.0f，成交额 %.2f", quote.Volume, quote.Amount)

		return sb.String(), nil
	})
}
