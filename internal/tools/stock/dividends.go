package stock

import (
	"context"
	"fmt"
	"strings"
	"time"

	"advisor/internal/tools"
	"advisor/pkg/errors"
)

// NewDividendTool returns a stock's cash dividend records for one year.
func NewDividendTool(deps Deps) tools.Tool {
	params := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"code": map[string]interface{}{
				"type":        "string",
				"description": "股票代码，例如：sh.600519",
			},
			"year": map[string]interface{}{
				"type":        "integer",
				"description": "分红年份，例如：2024，默认为上一年",
			},
		},
		"required": []string{"code"},
	}

	return tools.New("get_dividend_data", "获取股票年度分红派息数据", params, func(ctx context.Context, args tools.Args) (string, error) {
		if !deps.HasMarket() {
			return "", errors.Wrapf(errors.ErrInternal, "get_dividend_data: market data client not configured")
		}

		code := args.String("code", "")
		if code == "" {
			return "", errors.Wrapf(errors.ErrInvalidInput, "get_dividend_data: code is required")
		}
		year := args.Int("year", time.Now().Year()-1)

		divs, err := deps.Market.GetDividends(ctx, code, year)
		if err != nil {
			return "", errors.Wrap(err, "get_dividend_data")
		}
		if len(divs) == 0 {
			return fmt.Sprintf("%s 在%d年没有分红记录", code, year), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "%s %d年分红派息：\n", divs[0].Code, year)
		for _, div := range divs {
			fmt.Fprintf(&sb, "每股现金分红: %.4f元\n", div.CashPerShare)
			fmt.Fprintf(&sb, "预案公告日: %s，股权登记日: %s\n", div.PlanDate, div.RegisterDate)
			fmt.Fprintf(&sb, "除权除息日: %s，派息日: %s\n", div.ExDate, div.PayDate)
		}
		return strings.TrimRight(sb.String(), "\n"), nil
	})
}
