package explorer

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"riskScope/internal/model"
)

func txsOf(n int, value int64) []model.ChainTransaction {
	out := make([]model.ChainTransaction, n)
	for i := range out {
		out[i] = model.ChainTransaction{Value: decimal.NewFromInt(value), Success: true}
	}
	return out
}

func TestAnalyzeHighFrequencyBoundary(t *testing.T) {
	assert.False(t, Analyze(txsOf(50, 1)).HighFrequency)

	set := Analyze(txsOf(51, 1))
	assert.True(t, set.HighFrequency)
	assert.Contains(t, set.Patterns, "High transaction frequency")
}

func TestAnalyzeLargeTransactions(t *testing.T) {
	set := Analyze(txsOf(6, 11))
	assert.True(t, set.LargeTransactions)
	assert.False(t, set.HighFrequency)
	assert.Len(t, set.Patterns, 1)
	assert.Contains(t, set.Patterns[0], "6")

	assert.False(t, Analyze(txsOf(5, 11)).LargeTransactions)
	assert.False(t, Analyze(txsOf(6, 10)).LargeTransactions, "value must exceed the threshold")
}

func TestAnalyzeEmpty(t *testing.T) {
	set := Analyze(nil)
	assert.False(t, set.HighFrequency)
	assert.False(t, set.LargeTransactions)
	assert.False(t, set.MultipleExchanges)
	assert.NotNil(t, set.Patterns)
	assert.Empty(t, set.Patterns)
}
