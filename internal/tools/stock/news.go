package stock

import (
	"context"
	"fmt"
	"strings"

	"advisor/internal/tools"
	"advisor/pkg/errors"
)

const defaultNewsLimit = 5

// NewGetNewsTool fetches recent headlines about a company or stock.
func NewGetNewsTool(deps Deps) tools.Tool {
	params := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "公司名称或股票代码",
			},
			"limit": map[string]interface{}{
				"type":        "integer",
				"description": "返回条数，默认5",
			},
		},
		"required": []string{"query"},
	}

	return tools.New("get_stock_news", "获取公司相关的近期新闻资讯", params, func(ctx context.Context, args tools.Args) (string, error) {
		if !deps.HasMarket() {
			return "", errors.Wrapf(errors.ErrInternal, "get_stock_news: market data client not configured")
		}

		query := args.String("query", "")
		if query == "" {
			return "", errors.Wrapf(errors.ErrInvalidInput, "get_stock_news: query is required")
		}

		limit := args.Int("limit", defaultNewsLimit)
		items, err := deps.Market.GetNews(ctx, query, limit)
		if err != nil {
			return "", errors.Wrap(err, "get_stock_news")
		}
		if len(items) == 0 {
			return fmt.Sprintf("未找到与 %s 相关的新闻", query), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "与 %s 相关的近期新闻：\n", query)
		for i, item := range items {
			fmt.Fprintf(&sb, "%d. [%s] %s（%s）\n", i+1, item.Source, item.Title, item.Published.Format("2006-01-02"))
			if item.Summary != "" {
				fmt.Fprintf(&sb, "   %s\n", item.Summary)
			}
		}

		return strings.TrimRight(sb.String(), "\n"), nil
	})
}
