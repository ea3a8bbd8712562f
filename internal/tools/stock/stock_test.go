package stock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"advisor/internal/adapters/marketdata"
	"advisor/internal/tools"
)

func testDeps() Deps {
	return Deps{Market: marketdata.NewReferenceClient()}
}

func TestLookupCodeTool(t *testing.T) {
	tool := NewLookupCodeTool()
	ctx := context.Background()

	out, err := tool.Execute(ctx, tools.Args{"name": "贵州茅台"})
	require.NoError(t, err)
	assert.Contains(t, out, "sh.600519")

	out, err = tool.Execute(ctx, tools.Args{"name": "600519"})
	require.NoError(t, err)
	assert.Contains(t, out, "sh.600519")

	out, err = tool.Execute(ctx, tools.Args{"name": "不知名公司"})
	require.NoError(t, err)
	assert.Contains(t, out, "未找到")

	_, err = tool.Execute(ctx, tools.Args{})
	assert.Error(t, err)
}

func TestGetQuoteTool(t *testing.T) {
	tool := NewGetQuoteTool(testDeps())

	out, err := tool.Execute(context.Background(), tools.Args{"code": "sh.600519"})
	require.NoError(t, err)
	assert.Contains(t, out, "sh.600519")
	assert.Contains(t, out, "最新价")
}

func TestGetQuoteTool_NoMarket(t *testing.T) {
	tool := NewGetQuoteTool(Deps{})

	_, err := tool.Execute(context.Background(), tools.Args{"code": "sh.600519"})
	assert.Error(t, err)
}

func TestReportTools_AllFamilies(t *testing.T) {
	reportTools := NewReportTools(testDeps())
	require.Len(t, reportTools, 6)

	names := make([]string, 0, len(reportTools))
	ctx := context.Background()
	for _, tool := range reportTools {
		names = append(names, tool.Name())
		out, err := tool.Execute(ctx, tools.Args{
			"code":    "sh.600519",
			"year":    float64(2025),
			"quarter": float64(2),
		})
		require.NoError(t, err, tool.Name())
		assert.Contains(t, out, "2025年第2季度")
	}

	assert.Contains(t, names, "get_profit_data")
	assert.Contains(t, names, "get_dupont_data")
}

func TestReportTools_MissingArgs(t *testing.T) {
	tool := NewReportTools(testDeps())[0]

	_, err := tool.Execute(context.Background(), tools.Args{"code": "sh.600519"})
	assert.Error(t, err)
}

func TestKlineTool(t *testing.T) {
	tool := NewGetKlineTool(testDeps())

	out, err := tool.Execute(context.Background(), tools.Args{"code": "sh.600519", "days": float64(30)})
	require.NoError(t, err)
	assert.Contains(t, out, "K线")
}

func TestIndicatorsTool(t *testing.T) {
	tool := NewIndicatorsTool(testDeps())

	out, err := tool.Execute(context.Background(), tools.Args{"code": "sh.600519"})
	require.NoError(t, err)
	assert.Contains(t, out, "RSI14")
	assert.Contains(t, out, "MACD")
}

func TestValuationTool(t *testing.T) {
	tool := NewValuationTool(testDeps())

	out, err := tool.Execute(context.Background(), tools.Args{"code": "sh.600519"})
	require.NoError(t, err)
	assert.Contains(t, out, "市盈率")
}

func TestIndustryTool(t *testing.T) {
	tool := NewIndustryTool(testDeps())

	out, err := tool.Execute(context.Background(), tools.Args{"code": "sh.600519"})
	require.NoError(t, err)
	assert.Contains(t, out, "食品饮料")
	assert.Contains(t, out, "申万一级")

	_, err = tool.Execute(context.Background(), tools.Args{})
	assert.Error(t, err)
}

func TestDividendTool(t *testing.T) {
	tool := NewDividendTool(testDeps())

	out, err := tool.Execute(context.Background(), tools.Args{"code": "sh.600519", "year": float64(2024)})
	require.NoError(t, err)
	assert.Contains(t, out, "2024年分红派息")
	assert.Contains(t, out, "每股现金分红")
}

func TestIndexConstituentsTool(t *testing.T) {
	tool := NewIndexConstituentsTool(testDeps())

	out, err := tool.Execute(context.Background(), tools.Args{"limit": float64(5)})
	require.NoError(t, err)
	assert.Contains(t, out, "沪深300成分股")
	assert.Contains(t, out, "sh.600030")
}

func TestNewsTool(t *testing.T) {
	tool := NewGetNewsTool(testDeps())

	out, err := tool.Execute(context.Background(), tools.Args{"query": "贵州茅台", "limit": float64(3)})
	require.NoError(t, err)
	assert.Contains(t, out, "贵州茅台")
}
