package explorer

import (
	"fmt"

	"github.com/shopspring/decimal"

	"riskScope/internal/model"
)

const (
	// HighFrequencyCount is exceeded by wallets flagged for high transaction frequency.
	HighFrequencyCount = 50
	// LargeTransactionCount is exceeded by wallets flagged for large transactions.
	LargeTransactionCount = 5
)

// LargeTransactionValue is the native amount a transaction must exceed to count as large.
var LargeTransactionValue = decimal.NewFromInt(10)

// Analyze derives risk indicators from a transaction window. Thresholds are strict.
func Analyze(txs []model.ChainTransaction) model.RiskIndicatorSet {
	set := model.RiskIndicatorSet{Patterns: []string{}}

	if len(txs) > HighFrequencyCount {
		set.HighFrequency = true
		set.Patterns = append(set.Patterns, "High transaction frequency")
	}

	large := 0
	for _, tx := range txs {
		if tx.Value.GreaterThan(LargeTransactionValue) {
			large++
		}
	}
	if large > LargeTransactionCount {
		set.LargeTransactions = true
		set.Patterns = append(set.Patterns, fmt.Sprintf("%d large transactions", large))
	}
	return set
}
