package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePlan_PlainJSON(t *testing.T) {
	p, err := parsePlan(`{"stock_name": "贵州茅台", "stock_code": "sh.600519"}`)
	require.NoError(t, err)
	assert.Equal(t, "贵州茅台", p.StockName)
	assert.Equal(t, "sh.600519", p.StockCode)
}

func TestParsePlan_CodeFence(t *testing.T) {
	output := "```json\n{\"stock_name\": \"五粮液\", \"stock_code\": \"sz.000858\"}\n```"
	p, err := parsePlan(output)
	require.NoError(t, err)
	assert.Equal(t, "五粮液", p.StockName)
}

func TestParsePlan_JSONBuriedInProse(t *testing.T) {
	output := "好的，分析目标如下：{\"stock_name\": \"宁德时代\", \"stock_code\": \"sz.300750\"} 请确认。"
	p, err := parsePlan(output)
	require.NoError(t, err)
	assert.Equal(t, "sz.300750", p.StockCode)
}

func TestParsePlan_NotJSON(t *testing.T) {
	_, err := parsePlan("我不知道该分析哪只股票")
	assert.Error(t, err)
}

func TestResolveTarget_CuratedTableWins(t *testing.T) {
	// The curated table overrides whatever code the model guessed.
	name, code, err := resolveTarget(&plan{StockName: "贵州茅台", StockCode: "sz.999999"})
	require.NoError(t, err)
	assert.Equal(t, "贵州茅台", name)
	assert.Equal(t, "sh.600519", code)
}

func TestResolveTarget_NormalizesModelCode(t *testing.T) {
	_, code, err := resolveTarget(&plan{StockName: "某公司", StockCode: "600030"})
	require.NoError(t, err)
	assert.Equal(t, "sh.600030", code)
}

func TestResolveTarget_Unresolved(t *testing.T) {
	_, _, err := resolveTarget(&plan{StockName: "某不知名公司", StockCode: ""})
	assert.Error(t, err)

	_, _, err = resolveTarget(&plan{StockName: "", StockCode: "garbage"})
	assert.Error(t, err)
}
