package risk

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskScope/internal/model"
)

func marketWith(volumes ...int64) *model.MarketSnapshot {
	m := &model.MarketSnapshot{Exchange: "Luno"}
	for i, v := range volumes {
		m.Tickers = append(m.Tickers, model.TickerEntry{
			Pair:          string(rune('A'+i)) + "ZAR",
			RollingVolume: decimal.NewFromInt(v),
		})
	}
	return m
}

func chainWith(hf, large bool, balance int64, txCount int) *model.ChainSnapshot {
	return &model.ChainSnapshot{
		Balance:          decimal.NewFromInt(balance),
		TransactionCount: txCount,
		Indicators:       model.RiskIndicatorSet{HighFrequency: hf, LargeTransactions: large},
	}
}

func TestComposeEndToEnd(t *testing.T) {
	got := Compose(50, marketWith(6000, 6000, 6000, 6000), chainWith(true, true, 11, 21))
	assert.Equal(t, 100, got)

	b := Breakdown(50, marketWith(6000, 6000, 6000, 6000), chainWith(true, true, 11, 21))
	assert.Equal(t, 15, b.Market)
	assert.Equal(t, 45, b.Chain)
	assert.Equal(t, 100, b.Total)
	require.Len(t, b.Contributions, 5)
	assert.Equal(t, IndicatorBase, b.Contributions[0].Indicator)
	assert.Equal(t, IndicatorWhaleActive, b.Contributions[4].Indicator)
}

func TestComposeMarketTerms(t *testing.T) {
	cases := []struct {
		name    string
		volumes []int64
		want    int
	}{
		{"none", nil, 10},
		{"one high", []int64{6000, 100}, 10},
		{"two high", []int64{6000, 6000}, 15},
		{"three high", []int64{6000, 6000, 6000}, 15},
		{"four high", []int64{6000, 6000, 6000, 6000}, 25},
		{"at threshold", []int64{5000, 5000, 5000, 5000}, 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Compose(10, marketWith(tc.volumes...), nil))
		})
	}
}

func TestComposeChainTerms(t *testing.T) {
	assert.Equal(t, 0, Compose(0, nil, chainWith(false, false, 11, 20)), "tx count must exceed 20")
	assert.Equal(t, 0, Compose(0, nil, chainWith(false, false, 10, 21)), "balance must exceed 10")
	assert.Equal(t, 10, Compose(0, nil, chainWith(false, false, 11, 21)))
	assert.Equal(t, 20, Compose(0, nil, chainWith(true, false, 0, 0)))
	assert.Equal(t, 15, Compose(0, nil, chainWith(false, true, 0, 0)))
}

func TestComposeNilSnapshotsKeepBase(t *testing.T) {
	assert.Equal(t, 42, Compose(42, nil, nil))
}

func TestComposeClamped(t *testing.T) {
	markets := []*model.MarketSnapshot{nil, marketWith(), marketWith(6000, 6000), marketWith(6000, 6000, 6000, 6000)}
	chains := []*model.ChainSnapshot{nil, chainWith(false, false, 0, 0), chainWith(true, true, 11, 21), chainWith(true, false, 50, 5)}

	for _, base := range []int{-20, 0, 1, 30, 50, 70, 99, 100, 150} {
		for _, m := range markets {
			for _, c := range chains {
				got := Compose(base, m, c)
				assert.GreaterOrEqual(t, got, MinScore)
				assert.LessOrEqual(t, got, MaxScore)
				assert.Equal(t, got, Compose(base, m, c), "compose must be deterministic")
			}
		}
	}
}

func TestComposeMonotonicInBase(t *testing.T) {
	m := marketWith(6000, 6000)
	c := chainWith(false, true, 0, 0)
	prev := Compose(0, m, c)
	for base := 1; base <= 100; base++ {
		got := Compose(base, m, c)
		assert.GreaterOrEqual(t, got, prev)
		prev = got
	}
}
