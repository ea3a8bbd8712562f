package marketdata

import (
	"regexp"
	"strings"

	"advisor/pkg/errors"
)

// Codes follow the baostock convention: exchange prefix plus six digits,
// e.g. sh.600519 or sz.000001.
var codeRe = regexp.MustCompile(`^(sh|sz)\.\d{6}$`)

var bareCodeRe = regexp.MustCompile(`^\d{6}$`)

// stockNames maps well-known A-share company names to their codes. The
// classifier and the lookup tool consult this table before falling back
// to the model, so the common names resolve deterministically.
var stockNames = map[string]string{
	"贵州茅台": "sh.600519",
	"茅台":   "sh.600519",
	"五粮液":  "sz.000858",
	"平安银行": "sz.000001",
	"招商银行": "sh.600036",
	"中国平安": "sh.601318",
	"宁德时代": "sz.300750",
	"比亚迪":  "sz.002594",
	"隆基绿能": "sh.601012",
	"万科A":  "sz.000002",
	"万科":   "sz.000002",
	"美的集团": "sz.000333",
	"格力电器": "sz.000651",
	"中国石油": "sh.601857",
	"工商银行": "sh.601398",
	"建设银行": "sh.601939",
	"中国银行": "sh.601988",
	"农业银行": "sh.601288",
	"长江电力": "sh.600900",
	"海康威视": "sz.002415",
	"恒瑞医药": "sh.600276",
	"药明康德": "sh.603259",
	"东方财富": "sz.300059",
	"中芯国际": "sh.688981",
	"京东方A":  "sz.000725",
	"京东方":  "sz.000725",
	"伊利股份": "sh.600887",
	"山西汾酒": "sh.600809",
	"泸州老窖": "sz.000568",
	"三一重工": "sh.600031",
	"中信证券": "sh.600030",
}

// stockIndustries maps curated codes to their Shenwan first-level
// industry. Codes absent here fall back to a hash-derived bucket.
var stockIndustries = map[string]string{
	"sh.600519": "食品饮料",
	"sz.000858": "食品饮料",
	"sh.600809": "食品饮料",
	"sz.000568": "食品饮料",
	"sh.600887": "食品饮料",
	"sz.000001": "银行",
	"sh.600036": "银行",
	"sh.601398": "银行",
	"sh.601939": "银行",
	"sh.601988": "银行",
	"sh.601288": "银行",
	"sh.601318": "非银金融",
	"sh.600030": "非银金融",
	"sz.300059": "非银金融",
	"sz.300750": "电力设备",
	"sh.601012": "电力设备",
	"sz.002594": "汽车",
	"sz.000002": "房地产",
	"sz.000333": "家用电器",
	"sz.000651": "家用电器",
	"sh.601857": "石油石化",
	"sh.600900": "公用事业",
	"sz.002415": "计算机",
	"sh.688981": "电子",
	"sz.000725": "电子",
	"sh.600276": "医药生物",
	"sh.603259": "医药生物",
	"sh.600031": "机械设备",
}

// fallbackIndustries buckets uncurated codes deterministically.
var fallbackIndustries = []string{
	"机械设备", "电子", "医药生物", "化工", "计算机", "汽车", "建筑装饰", "有色金属",
}

// LookupCode resolves a company name to its code via the curated table.
func LookupCode(name string) (string, bool) {
	code, ok := stockNames[strings.TrimSpace(name)]
	return code, ok
}

// LookupName reverse-resolves a code to a company name, best effort.
func LookupName(code string) (string, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	for name, c := range stockNames {
		if c == code {
			return name, true
		}
	}
	return "", false
}

// KnownNames returns every curated company name. Order is unspecified.
func KnownNames() []string {
	names := make([]string, 0, len(stockNames))
	for name := range stockNames {
		names = append(names, name)
	}
	return names
}

// NormalizeCode canonicalizes user-supplied codes: lowercases the
// prefix and infers it for bare six-digit codes (6xxxxx → sh, else sz).
func NormalizeCode(raw string) (string, error) {
	code := strings.ToLower(strings.TrimSpace(raw))

	if bareCodeRe.MatchString(code) {
		if strings.HasPrefix(code, "6") {
			code = "sh." + code
		} else {
			code = "sz." + code
		}
	}

	if !codeRe.MatchString(code) {
		return "", errors.Wrapf(errors.ErrInvalidSymbol, "malformed stock code %q", raw)
	}
	return code, nil
}

// IsCode reports whether s already looks like a canonical or bare code.
func IsCode(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return codeRe.MatchString(s) || bareCodeRe.MatchString(s)
}

// MarketName returns the exchange name implied by the code prefix.
func MarketName(code string) string {
	switch {
	case strings.HasPrefix(code, "sh."):
		return "上海证券交易所"
	case strings.HasPrefix(code, "sz."):
		return "深圳证券交易所"
	case strings.HasPrefix(code, "hk."):
		return "香港交易所"
	default:
		return "未知市场"
	}
}
