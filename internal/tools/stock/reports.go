package stock

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"advisor/internal/adapters/marketdata"
	"advisor/internal/tools"
	"advisor/pkg/errors"
)

type reportSpec struct {
	typ   marketdata.ReportType
	name  string
	label string
}

var reportSpecs = []reportSpec{
	{marketdata.ReportProfit, "get_profit_data", "盈利能力"},
	{marketdata.ReportOperation, "get_operation_data", "营运能力"},
	{marketdata.ReportGrowth, "get_growth_data", "成长能力"},
	{marketdata.ReportBalance, "get_balance_data", "偿债能力"},
	{marketdata.ReportCashFlow, "get_cash_flow_data", "现金流量"},
	{marketdata.ReportDupont, "get_dupont_data", "杜邦指数"},
}

// NewReportTools returns the six quarterly financial report tools, one
// per report family.
func NewReportTools(deps Deps) []tools.Tool {
	result := make([]tools.Tool, 0, len(reportSpecs))
	for _, spec := range reportSpecs {
		result = append(result, newReportTool(deps, spec))
	}
	return result
}

// NewProfitTool returns just the profitability report tool, for agents
// that need earnings data without the full report family.
func NewProfitTool(deps Deps) tools.Tool {
	return newReportTool(deps, reportSpecs[0])
}

func newReportTool(deps Deps, spec reportSpec) tools.Tool {
	params := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"code": map[string]interface{}{
				"type":        "string",
				"description": "股票代码，例如：sh.600519",
			},
			"year": map[string]interface{}{
				"type":        "integer",
				"description": "报告年份，例如：2024",
			},
			"quarter": map[string]interface{}{
				"type":        "integer",
				"description": "报告季度，1-4",
			},
		},
		"required": []string{"code", "year", "quarter"},
	}

	description := fmt.Sprintf("获取股票季度%s数据", spec.label)

	return tools.New(spec.name, description, params, func(ctx context.Context, args tools.Args) (string, error) {
		if !deps.HasMarket() {
			return "", errors.Wrapf(errors.ErrInternal, "%s: market data client not configured", spec.name)
		}

		code := args.String("code", "")
		year := args.Int("year", 0)
		quarter := args.Int("quarter", 0)
		if code == "" || year == 0 || quarter == 0 {
			return "", errors.Wrapf(errors.ErrInvalidInput, "%s: code, year and quarter are required", spec.name)
		}

		report, err := deps.Market.GetReport(ctx, code, spec.typ, year, quarter)
		if err != nil {
			return "", errors.Wrapf(err, "%s", spec.name)
		}

		return formatReport(spec.label, report), nil
	})
}

func formatReport(label string, report *marketdata.Report) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %d年第%d季度%s数据：\n", report.Code, report.Year, report.Quarter, label)

	keys := make([]string, 0, len(report.Fields))
	for key := range report.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		fmt.Fprintf(&sb, "%s: %s\n", key, report.Fields[key])
	}
	return strings.TrimRight(sb.String(), "\n")
}
