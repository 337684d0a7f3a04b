package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a transfer declared in a travel-rule report.
type Transaction struct {
	ID          string          `json:"transaction_id"`
	Hash        string          `json:"transaction_hash"`
	FromAddress string          `json:"from_address"`
	ToAddress   string          `json:"to_address"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Blockchain  string          `json:"blockchain"`
	Timestamp   time.Time       `json:"timestamp"`
	Source      string          `json:"source,omitempty"`
}

// RiskRegistryEntry is a known address with an assigned risk classification.
type RiskRegistryEntry struct {
	Address   string `json:"wallet_address"`
	RiskType  string `json:"risk_type"`
	RiskScore int    `json:"risk_score"`
}
