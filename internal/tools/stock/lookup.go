package stock

import (
	"context"
	"fmt"

	"advisor/internal/adapters/marketdata"
	"advisor/internal/tools"
	"advisor/pkg/errors"
)

// NewLookupCodeTool resolves a company name to its stock code.
func NewLookupCodeTool() tools.Tool {
	params := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"name": map[string]interface{}{
				"type":        "string",
				"description": "公司名称，例如：贵州茅台",
			},
		},
		"required": []string{"name"},
	}

	return tools.New("lookup_stock_code", "根据公司名称查询A股股票代码", params, func(ctx context.Context, args tools.Args) (string, error) {
		name := args.String("name", "")
		if name == "" {
			return "", errors.Wrapf(errors.ErrInvalidInput, "lookup_stock_code: name is required")
		}

		if code, ok := marketdata.LookupCode(name); ok {
			return fmt.Sprintf("%s 的股票代码是 %s", name, code), nil
		}

		if marketdata.IsCode(name) {
			code, err := marketdata.NormalizeCode(name)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%s 已是股票代码，标准形式为 %s", name, code), nil
		}

		return fmt.Sprintf("未找到 %s 对应的股票代码", name), nil
	})
}
