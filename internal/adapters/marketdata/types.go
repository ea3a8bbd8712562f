package marketdata

import "time"

// Quote is the latest traded snapshot for one A-share security.
type Quote struct {
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	PrevClose float64   `json:"prev_close"`
	Volume    float64   `json:"volume"`
	Amount    float64   `json:"amount"`
	Date      time.Time `json:"date"`
}

// Bar is one daily OHLCV candle.
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
	Amount float64   `json:"amount"`
	Pct    float64   `json:"pct_chg"`
}

// ReportType selects one family of quarterly financial report.
type ReportType string

const (
	ReportProfit    ReportType = "profit"
	ReportOperation ReportType = "operation"
	ReportGrowth    ReportType = "growth"
	ReportBalance   ReportType = "balance"
	ReportCashFlow  ReportType = "cash_flow"
	ReportDupont    ReportType = "dupont"
)

// AllReportTypes lists every supported report family.
var AllReportTypes = []ReportType{
	ReportProfit, ReportOperation, ReportGrowth,
	ReportBalance, ReportCashFlow, ReportDupont,
}

// Report is one quarterly financial report: an ordered set of named
// metric fields, kept as strings the way the upstream feed delivers
// them so agents can quote values verbatim.
type Report struct {
	Code    string            `json:"code"`
	Type    ReportType        `json:"type"`
	Year    int               `json:"year"`
	Quarter int               `json:"quarter"`
	Fields  map[string]string `json:"fields"`
}

// Valuation is one day of valuation ratios.
type Valuation struct {
	Date     time.Time `json:"date"`
	Code     string    `json:"code"`
	Close    float64   `json:"close"`
	PeTTM    float64   `json:"pe_ttm"`
	PbMRQ    float64   `json:"pb_mrq"`
	PsTTM    float64   `json:"ps_ttm"`
	PcfTTM   float64   `json:"pcf_ncf_ttm"`
	Turnover float64   `json:"turnover"`
}

// Industry is one security's industry classification row.
type Industry struct {
	Code           string    `json:"code"`
	Name           string    `json:"name"`
	Industry       string    `json:"industry"`
	Classification string    `json:"classification"`
	Updated        time.Time `json:"updated"`
}

// Dividend is one annual cash dividend record.
type Dividend struct {
	Code         string  `json:"code"`
	Year         int     `json:"year"`
	PlanDate     string  `json:"plan_date"`
	RegisterDate string  `json:"register_date"`
	ExDate       string  `json:"ex_date"`
	PayDate      string  `json:"pay_date"`
	CashPerShare float64 `json:"cash_per_share"`
}

// IndexConstituent is one member of a benchmark index.
type IndexConstituent struct {
	Code    string    `json:"code"`
	Name    string    `json:"name"`
	Updated time.Time `json:"updated"`
}

// NewsItem is one recent headline with its snippet.
type NewsItem struct {
	Title     string    `json:"title"`
	Source    string    `json:"source"`
	Summary   string    `json:"summary"`
	URL       string    `json:"url"`
	Published time.Time `json:"published"`
}
