package stock

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/markcheno/go-talib"

	"advisor/internal/adapters/marketdata"
	"advisor/internal/tools"
	"advisor/pkg/errors"
)

// indicatorLookbackDays gives enough history for the slowest indicator
// (SMA60) to produce a value even across holidays.
const indicatorLookbackDays = 180

// NewIndicatorsTool computes standard technical indicators over recent
// daily closes.
func NewIndicatorsTool(deps Deps) tools.Tool {
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

	return tools.New("calculate_technical_indicators", "计算股票常用技术指标（均线、RSI、MACD）", params, func(ctx context.Context, args tools.Args) (string, error) {
		if !deps.HasMarket() {
			return "", errors.Wrapf(errors.ErrInternal, "calculate_technical_indicators: market data client not configured")
		}

		code := args.String("code", "")
		if code == "" {
			return "", errors.Wrapf(errors.ErrInvalidInput, "calculate_technical_indicators: code is required")
		}

		end := time.Now()
		start := end.AddDate(0, 0, -indicatorLookbackDays)

		bars, err := deps.Market.GetKline(ctx, code, start, end)
		if err != nil {
			return "", errors.Wrap(err, "calculate_technical_indicators")
		}
		if len(bars) < 30 {
			return fmt.Sprintf("%s 历史数据不足（%d个交易日），无法计算技术指标", code, len(bars)), nil
		}

		closes := extractCloses(bars)

		sma20 := lastValue(talib.Sma(closes, 20))
		sma60 := lastValue(talib.Sma(closes, 60))
		ema12 := lastValue(talib.Ema(closes, 12))
		ema26 := lastValue(talib.Ema(closes, 26))
		rsi14 := lastValue(talib.Rsi(closes, 14))
		macdLine, signalLine, histogram := talib.Macd(closes, 12, 26, 9)

		var sb strings.Builder
		fmt.Fprintf(&sb, "%s 技术指标（截至 %s）：\n", code, bars[len(bars)-1].Date.Format("2006-01-02"))
		fmt.Fprintf(&sb, "收盘价: %.2f\n", closes[len(closes)-1])
		fmt.Fprintf(&sb, "SMA20: %.2f，SMA60: %.2f\n", sma20, sma60)
		fmt.Fprintf(&sb, "EMA12: %.2f，EMA26: %.2f\n", ema12, ema26)
		fmt.Fprintf(&sb, "RSI14: %.2f\n", rsi14)
		fmt.Fprintf(&sb, "MACD: %.4f，信号线: %.4f，柱: %.4f",
			lastValue(macdLine), lastValue(signalLine), lastValue(histogram))

		return sb.String(), nil
	})
}

// extractCloses pulls closes in chronological order for ta-lib.
func extractCloses(bars []marketdata.Bar) []float64 {
	closes := make([]float64, len(bars))
	for i, bar := range bars {
		closes[i] = bar.Close
	}
	return closes
}

// lastValue returns the most recent value of a ta-lib output series.
func lastValue(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return values[len(values)-1]
}
