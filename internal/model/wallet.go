package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet is a customer-owned chain address with its latest enrichment attached.
type Wallet struct {
	ID               string          `json:"wallet_id"`
	Address          string          `json:"wallet_address"`
	CustomerID       string          `json:"customer_id"`
	Declared         bool            `json:"declared"`
	Blockchain       string          `json:"blockchain"`
	RiskScore        int             `json:"risk_score"`
	Balance          decimal.Decimal `json:"balance"`
	Currency         string          `json:"currency"`
	CompositeRisk    *int            `json:"combined_risk_score,omitempty"`
	MarketData       *MarketSnapshot `json:"market_data,omitempty"`
	ChainData        *ChainSnapshot  `json:"chain_data,omitempty"`
	MarketEnrichedAt *time.Time      `json:"market_enriched_at,omitempty"`
	ChainEnrichedAt  *time.Time      `json:"chain_enriched_at,omitempty"`
	LastEnriched     *time.Time      `json:"last_enriched,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	Source           string          `json:"source,omitempty"`
}

// EffectiveRisk is the last persisted composite score, or the base score when the
// wallet has never been enriched.
func (w Wallet) EffectiveRisk() int {
	if w.CompositeRisk != nil {
		return *w.CompositeRisk
	}
	return w.RiskScore
}

// Enrichment is the partial update written onto a wallet after one enrichment run.
// A nil snapshot clears the previously attached one.
type Enrichment struct {
	Market        *MarketSnapshot
	Chain         *ChainSnapshot
	CompositeRisk int
	EnrichedAt    time.Time
}
