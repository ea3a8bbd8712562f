package stock

import (
	"context"
	"fmt"
	"strings"

	"advisor/internal/tools"
	"advisor/pkg/errors"
)

const defaultConstituentLimit = 40

// NewIndexConstituentsTool lists CSI 300 member stocks, for peer and
// benchmark comparisons.
func NewIndexConstituentsTool(deps Deps) tools.Tool {
	params := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"limit": map[string]interface{}{
				"type":        "integer",
				"description": fmt.Sprintf("返回的成分股数量，默认%d", defaultConstituentLimit),
			},
		},
	}

	return tools.New("get_hs300_stocks", "获取沪深300指数成分股列表", params, func(ctx context.Context, args tools.Args) (string, error) {
		if !deps.HasMarket() {
			return "", errors.Wrapf(errors.ErrInternal, "get_hs300_stocks: market data client not configured")
		}

		limit := args.Int("limit", defaultConstituentLimit)

		members, err := deps.Market.GetIndexConstituents(ctx, "hs300", limit)
		if err != nil {
			return "", errors.Wrap(err, "get_hs300_stocks")
		}
		if len(members) == 0 {
			return "沪深300成分股数据暂不可用", nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "沪深300成分股（前%d只，更新于%s）：\n", len(members), members[0].Updated.Format("2006-01-02"))
		for _, m := range members {
			name := m.Name
			if name == "" {
				name = "-"
			}
			fmt.Fprintf(&sb, "%s %s\n", m.Code, name)
		}
		return strings.TrimRight(sb.String(), "\n"), nil
	})
}
