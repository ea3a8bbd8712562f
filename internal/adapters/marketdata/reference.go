package marketdata

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"sync"
	"time"

	"advisor/pkg/errors"
	"advisor/pkg/logger"
)

// Compile-time check
var _ Client = (*ReferenceClient)(nil)

// ReferenceClient serves deterministic market data derived from the code
// itself. It backs development and tests, and is the fallback feed when
// no upstream is configured: values are synthetic but stable across
// runs, so downstream formatting and indicator math stay reproducible.
type ReferenceClient struct {
	mu        sync.Mutex
	connected bool
	log       *logger.Logger
}

// NewReferenceClient creates the offline reference feed.
func NewReferenceClient() *ReferenceClient {
	return &ReferenceClient{
		log: logger.Get().With("component", "marketdata_reference"),
	}
}

func (c *ReferenceClient) Name() string {
	return "reference"
}

// Connect marks the session live. Idempotent.
func (c *ReferenceClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		c.connected = true
		c.log.Debugf("Session opened")
	}
	return nil
}

// Close ends the session. Idempotent.
func (c *ReferenceClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	return nil
}

// ensureConnected lazily opens the session, mirroring sessionful feeds
// where every call requires a prior login.
func (c *ReferenceClient) ensureConnected(ctx context.Context) error {
	return c.Connect(ctx)
}

func (c *ReferenceClient) GetQuote(ctx context.Context, code string) (*Quote, error) {
	if err := c.ensureConnected(ctx); err != nil {
		return nil, err
	}
	code, err := NormalizeCode(code)
	if err != nil {
		return nil, err
	}

	base := basePrice(code)
	name, _ := LookupName(code)

	return &Quote{
		Code:      code,
		Name:      name,
		Price:     round2(base * 1.012),
		Open:      round2(base * 0.998),
		High:      round2(base * 1.021),
		Low:       round2(base * 0.993),
		PrevClose: round2(base),
		Volume:    math.Floor(base * 10000),
		Amount:    round2(base * base * 10000),
		Date:      lastTradingDay(time.Now()),
	}, nil
}

func (c *ReferenceClient) GetKline(ctx context.Context, code string, start, end time.Time) ([]Bar, error) {
	if err := c.ensureConnected(ctx); err != nil {
		return nil, err
	}
	code, err := NormalizeCode(code)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "kline range %s..%s", start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	base := basePrice(code)
	var bars []Bar
	prev := base

	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			continue
		}

		// Deterministic daily drift from the code and the date.
		drift := wave(code, day) * 0.02
		open := prev
		close := round2(prev * (1 + drift))
		high := round2(math.Max(open, close) * 1.008)
		low := round2(math.Min(open, close) * 0.992)

		pct := 0.0
		if prev != 0 {
			pct = round2((close - prev) / prev * 100)
		}

		bars = append(bars, Bar{
			Date:   day,
			Open:   round2(open),
			High:   high,
			Low:    low,
			Close:  close,
			Volume: math.Floor(base * 8000 * (1 + drift*10)),
			Amount: round2(close * base * 8000),
			Pct:    pct,
		})
		prev = close
	}

	return bars, nil
}

func (c *ReferenceClient) GetValuation(ctx context.Context, code string, start, end time.Time) ([]Valuation, error) {
	bars, err := c.GetKline(ctx, code, start, end)
	if err != nil {
		return nil, err
	}
	code, _ = NormalizeCode(code)

	vals := make([]Valuation, 0, len(bars))
	for _, bar := range bars {
		pe := round2(12 + wave(code, bar.Date)*8 + 10)
		vals = append(vals, Valuation{
			Date:     bar.Date,
			Code:     code,
			Close:    bar.Close,
			PeTTM:    pe,
			PbMRQ:    round2(pe / 6),
			PsTTM:    round2(pe / 3),
			PcfTTM:   round2(pe * 1.4),
			Turnover: round2(0.5 + math.Abs(wave(code, bar.Date))*2),
		})
	}
	return vals, nil
}

// reportFields lists the metric fields each report family carries,
// following the baostock quarterly report schemas.
var reportFields = map[ReportType][]string{
	ReportProfit:    {"roeAvg", "npMargin", "gpMargin", "netProfit", "epsTTM", "MBRevenue", "totalShare", "liqaShare"},
	ReportOperation: {"NRTurnRatio", "NRTurnDays", "INVTurnRatio", "INVTurnDays", "CATurnRatio", "AssetTurnRatio"},
	ReportGrowth:    {"YOYEquity", "YOYAsset", "YOYNI", "YOYEPSBasic", "YOYPNI"},
	ReportBalance:   {"currentRatio", "quickRatio", "cashRatio", "YOYLiability", "liabilityToAsset", "assetToEquity"},
	ReportCashFlow:  {"CAToAsset", "NCAToAsset", "tangibleAssetToAsset", "ebitToInterest", "CFOToOR", "CFOToNP", "CFOToGr"},
	ReportDupont:    {"dupontROE", "dupontAssetStoEquity", "dupontAssetTurn", "dupontPnitoni", "dupontNitogr", "dupontTaxBurden", "dupontIntburden", "dupontEbittogr"},
}

func (c *ReferenceClient) GetReport(ctx context.Context, code string, typ ReportType, year, quarter int) (*Report, error) {
	if err := c.ensureConnected(ctx); err != nil {
		return nil, err
	}
	code, err := NormalizeCode(code)
	if err != nil {
		return nil, err
	}

	fieldNames, ok := reportFields[typ]
	if !ok {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "unknown report type %q", typ)
	}
	if quarter < 1 || quarter > 4 {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "quarter %d out of range", quarter)
	}

	fields := make(map[string]string, len(fieldNames))
	for i, field := range fieldNames {
		seed := fmt.Sprintf("%s|%s|%d|%d|%s", code, typ, year, quarter, field)
		fields[field] = fmt.Sprintf("%.4f", 0.05+hashUnit(seed)*float64(i+1)*0.1)
	}

	return &Report{
		Code:    code,
		Type:    typ,
		Year:    year,
		Quarter: quarter,
		Fields:  fields,
	}, nil
}

func (c *ReferenceClient) GetDividends(ctx context.Context, code string, year int) ([]Dividend, error) {
	if err := c.ensureConnected(ctx); err != nil {
		return nil, err
	}
	code, err := NormalizeCode(code)
	if err != nil {
		return nil, err
	}
	if year < 1991 || year > time.Now().Year() {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "dividend year %d out of range", year)
	}

	// Payout tracks the anchor price: one annual cash dividend, scaled by
	// a stable per-code-and-year ratio.
	seed := fmt.Sprintf("%s|div|%d", code, year)
	cash := round2(basePrice(code) * (0.005 + hashUnit(seed)*0.03))

	plan := time.Date(year+1, time.April, 1+int(hashUnit(seed)*25), 0, 0, 0, 0, time.UTC)
	register := plan.AddDate(0, 2, 0)
	ex := register.AddDate(0, 0, 1)

	return []Dividend{{
		Code:         code,
		Year:         year,
		PlanDate:     plan.Format("2006-01-02"),
		RegisterDate: register.Format("2006-01-02"),
		ExDate:       ex.Format("2006-01-02"),
		PayDate:      ex.Format("2006-01-02"),
		CashPerShare: cash,
	}}, nil
}

func (c *ReferenceClient) GetIndustry(ctx context.Context, code string) (*Industry, error) {
	if err := c.ensureConnected(ctx); err != nil {
		return nil, err
	}
	code, err := NormalizeCode(code)
	if err != nil {
		return nil, err
	}

	industry, ok := stockIndustries[code]
	if !ok {
		industry = fallbackIndustries[int(hashUnit(code)*float64(len(fallbackIndustries)))%len(fallbackIndustries)]
	}
	name, _ := LookupName(code)

	return &Industry{
		Code:           code,
		Name:           name,
		Industry:       industry,
		Classification: "申万一级",
		Updated:        lastTradingDay(time.Now()),
	}, nil
}

func (c *ReferenceClient) GetIndexConstituents(ctx context.Context, index string, limit int) ([]IndexConstituent, error) {
	if err := c.ensureConnected(ctx); err != nil {
		return nil, err
	}
	if index != "hs300" {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "unsupported index %q", index)
	}
	if limit <= 0 {
		limit = 40
	}

	updated := lastTradingDay(time.Now())

	seen := make(map[string]bool, len(stockNames))
	codes := make([]string, 0, len(stockNames))
	for _, code := range stockNames {
		if !seen[code] {
			seen[code] = true
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)

	if len(codes) > limit {
		codes = codes[:limit]
	}
	members := make([]IndexConstituent, 0, len(codes))
	for _, code := range codes {
		name, _ := LookupName(code)
		members = append(members, IndexConstituent{Code: code, Name: name, Updated: updated})
	}
	return members, nil
}

func (c *ReferenceClient) GetNews(ctx context.Context, query string, limit int) ([]NewsItem, error) {
	if err := c.ensureConnected(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 5
	}

	now := time.Now()
	items := make([]NewsItem, 0, limit)
	for i := 0; i < limit; i++ {
		items = append(items, NewsItem{
			Title:     fmt.Sprintf("%s相关市场动态（%d）", query, i+1),
			Source:    "参考资讯",
			Summary:   fmt.Sprintf("围绕%s的近期公开报道摘要，供分析参考。", query),
			Published: now.AddDate(0, 0, -i),
		})
	}
	return items, nil
}

func (c *ReferenceClient) ResolveName(ctx context.Context, code string) (string, error) {
	code, err := NormalizeCode(code)
	if err != nil {
		return "", err
	}
	if name, ok := LookupName(code); ok {
		return name, nil
	}
	return "", errors.Wrapf(errors.ErrNotFound, "no name for code %s", code)
}

// basePrice derives a stable per-code anchor price in the 10..500 range.
func basePrice(code string) float64 {
	return round2(10 + hashUnit(code)*490)
}

// wave returns a deterministic value in [-1, 1] for a code and date.
func wave(code string, day time.Time) float64 {
	return math.Sin(hashUnit(code)*math.Pi*2 + float64(day.YearDay())*0.37)
}

// hashUnit maps a string to [0, 1).
func hashUnit(s string) float64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return float64(h.Sum32()%10000) / 10000.0
}

// lastTradingDay rolls weekend dates back to Friday.
func lastTradingDay(t time.Time) time.Time {
	for t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		t = t.AddDate(0, 0, -1)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
