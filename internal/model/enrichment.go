package model

import "time"

// ProviderStatus is the outcome of one provider call for one wallet.
type ProviderStatus string

const (
	ProviderOK      ProviderStatus = "ok"
	ProviderFailed  ProviderStatus = "failed"
	ProviderSkipped ProviderStatus = "skipped"
)

// IntegrationStatus summarises one provider across a batch.
type IntegrationStatus string

const (
	IntegrationEnabled     IntegrationStatus = "enabled"
	IntegrationDegraded    IntegrationStatus = "degraded"
	IntegrationUnavailable IntegrationStatus = "unavailable"
)

// EnrichedWallet is a wallet after an enrichment attempt. Error is set when the
// enrichment is missing for this wallet; the embedded wallet then holds stored state.
type EnrichedWallet struct {
	Wallet
	Breakdown    *RiskBreakdown `json:"risk_breakdown,omitempty"`
	MarketStatus ProviderStatus `json:"market_status"`
	ChainStatus  ProviderStatus `json:"chain_status"`
	Error        string         `json:"enrichment_error,omitempty"`
}

func (e EnrichedWallet) Enriched() bool {
	return e.Error == ""
}

// PortfolioEnrichment is the batch result over every wallet of one customer.
type PortfolioEnrichment struct {
	CustomerID   string            `json:"customer_id"`
	Profile      string            `json:"customer_profile"`
	Wallets      []EnrichedWallet  `json:"wallets"`
	Declared     []EnrichedWallet  `json:"declared_wallets"`
	Undeclared   []EnrichedWallet  `json:"undeclared_wallets"`
	AverageRisk  float64           `json:"average_risk"`
	MarketStatus IntegrationStatus `json:"market_integration"`
	ChainStatus  IntegrationStatus `json:"chain_integration"`
	EnrichedAt   time.Time         `json:"enriched_at"`
}
