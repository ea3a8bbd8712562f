package stock

import (
	"context"
	"fmt"
	"strings"

	"advisor/internal/tools"
	"advisor/pkg/errors"
)

// NewIndustryTool returns a stock's industry classification.
func NewIndustryTool(deps Deps) tools.Tool {
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

	return tools.New("get_stock_industry", "获取股票所属行业分类", params, func(ctx context.Context, args tools.Args) (string, error) {
		if !deps.HasMarket() {
			return "", errors.Wrapf(errors.ErrInternal, "get_stock_industry: market data client not configured")
		}

		code := args.String("code", "")
		if code == "" {
			return "", errors.Wrapf(errors.ErrInvalidInput, "get_stock_industry: code is required")
		}

		industry, err := deps.Market.GetIndustry(ctx, code)
		if err != nil {
			return "", errors.Wrap(err, "get_stock_industry")
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "%s 行业分类：\n", industry.Code)
		if industry.Name != "" {
			fmt.Fprintf(&sb, "名称: %s\n", industry.Name)
		}
		fmt.Fprintf(&sb, "所属行业: %s（%s）\n", industry.Industry, industry.Classification)
		fmt.Fprintf(&sb, "更新日期: %s", industry.Updated.Format("2006-01-02"))
		return sb.String(), nil
	})
}
