package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TickerEntry is one trading pair from an exchange market summary.
type TickerEntry struct {
	Pair          string          `json:"pair"`
	LastTrade     decimal.Decimal `json:"last_trade"`
	Bid           decimal.Decimal `json:"bid"`
	Ask           decimal.Decimal `json:"ask"`
	RollingVolume decimal.Decimal `json:"rolling_24_hour_volume"`
}

// Balance is one asset line of an exchange account.
type Balance struct {
	Asset     string          `json:"currency"`
	Available decimal.Decimal `json:"available"`
	Reserved  decimal.Decimal `json:"reserved"`
	Total     decimal.Decimal `json:"total"`
}

// MarketSnapshot is the exchange view attached to a wallet. It replaces any prior
// snapshot wholesale.
type MarketSnapshot struct {
	Exchange string        `json:"exchange"`
	AsOf     time.Time     `json:"as_of"`
	Tickers  []TickerEntry `json:"market_tickers"`
	Balances []Balance     `json:"account_info,omitempty"`
}

// Ticker returns the entry for pair, if present.
func (m *MarketSnapshot) Ticker(pair string) (TickerEntry, bool) {
	if m == nil {
		return TickerEntry{}, false
	}
	for _, t := range m.Tickers {
		if t.Pair == pair {
			return t, true
		}
	}
	return TickerEntry{}, false
}
