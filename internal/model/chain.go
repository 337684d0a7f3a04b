package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ChainTransaction is one explorer transaction, values in the native unit.
type ChainTransaction struct {
	Hash      string          `json:"hash"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Value     decimal.Decimal `json:"value"`
	Timestamp time.Time       `json:"timestamp"`
	Success   bool            `json:"status"`
}

// RiskIndicatorSet holds the on-chain behaviour signals derived from a transaction window.
type RiskIndicatorSet struct {
	HighFrequency     bool     `json:"high_frequency_trading"`
	LargeTransactions bool     `json:"large_transactions"`
	MultipleExchanges bool     `json:"multiple_exchanges"`
	Patterns          []string `json:"suspicious_patterns"`
}

// ChainSnapshot is the explorer view attached to a wallet.
type ChainSnapshot struct {
	Address          string             `json:"wallet_address"`
	Balance          decimal.Decimal    `json:"eth_balance"`
	TransactionCount int                `json:"transaction_count"`
	Transactions     []ChainTransaction `json:"transactions"`
	Indicators       RiskIndicatorSet   `json:"risk_indicators"`
	AsOf             time.Time          `json:"last_updated"`
}
