package marketdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupCode_KnownNames(t *testing.T) {
	code, ok := LookupCode("贵州茅台")
	require.True(t, ok)
	assert.Equal(t, "sh.600519", code)

	code, ok = LookupCode("平安银行")
	require.True(t, ok)
	assert.Equal(t, "sz.000001", code)
}

func TestLookupCode_UnknownName(t *testing.T) {
	_, ok := LookupCode("不存在的公司")
	assert.False(t, ok)
}

func TestLookupName_Reverse(t *testing.T) {
	name, ok := LookupName("sh.600519")
	require.True(t, ok)
	// Both 贵州茅台 and 茅台 map to this code.
	assert.Contains(t, []string{"贵州茅台", "茅台"}, name)
}

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"sh.600519", "sh.600519"},
		{"SH.600519", "sh.600519"},
		{" sz.000001 ", "sz.000001"},
		{"600519", "sh.600519"},
		{"000001", "sz.000001"},
		{"300750", "sz.300750"},
	}

	for _, tt := range tests {
		got, err := NormalizeCode(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestNormalizeCode_Invalid(t *testing.T) {
	for _, in := range []string{"", "abc", "sh.12345", "12345", "sh600519", "bj.600519"} {
		_, err := NormalizeCode(in)
		assert.Error(t, err, in)
	}
}

func TestIsCode(t *testing.T) {
	assert.True(t, IsCode("sh.600519"))
	assert.True(t, IsCode("600519"))
	assert.False(t, IsCode("贵州茅台"))
	assert.False(t, IsCode("sh.60051"))
}

func TestMarketName(t *testing.T) {
	assert.Equal(t, "上海证券交易所", MarketName("sh.600519"))
	assert.Equal(t, "深圳证券交易所", MarketName("sz.000858"))
	assert.Equal(t, "香港交易所", MarketName("hk.00700"))
	assert.Equal(t, "未知市场", MarketName("600519"))
}
