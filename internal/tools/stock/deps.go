package stock

import "advisor/internal/adapters/marketdata"

// Deps carries the shared dependencies for stock tools.
type Deps struct {
	Market marketdata.Client
}

// HasMarket reports whether a market data client is configured.
func (d Deps) HasMarket() bool {
	return d.Market != nil
}
