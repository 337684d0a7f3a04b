// Package risk folds base risk and provider snapshots into a bounded composite
// score and derives investigator-facing flags.
//
// Every weight and threshold below is carried over unchanged from the scoring
// heuristic in production use. None of them is derived from data.
package risk

import (
	"github.com/shopspring/decimal"

	"riskScope/internal/model"
)

const (
	MinScore = 0
	MaxScore = 100

	highVolumeManyPairs = 3
	highVolumeFewPairs  = 1
	manyPairsPoints     = 15
	fewPairsPoints      = 5

	highFrequencyPoints = 20
	largeTxPoints       = 15
	whaleActivePoints   = 10
	whaleActiveTxCount  = 20
)

// Indicator names as reported in a breakdown.
const (
	IndicatorBase          = "base_risk"
	IndicatorVolumeMany    = "high_volume_pairs"
	IndicatorVolumeFew     = "elevated_volume_pairs"
	IndicatorHighFrequency = "high_frequency_on_chain"
	IndicatorLargeTx       = "large_transactions"
	IndicatorWhaleActive   = "large_balance_active"
)

var (
	highVolume         = decimal.NewFromInt(5000)
	whaleActiveBalance = decimal.NewFromInt(10)
)

// Compose returns the composite score for base risk and the attached snapshots.
// A nil snapshot contributes nothing.
func Compose(base int, market *model.MarketSnapshot, chain *model.ChainSnapshot) int {
	return Breakdown(base, market, chain).Total
}

// Breakdown is Compose with every contributing term named. Terms are only added,
// then the total is clamped to [MinScore, MaxScore].
func Breakdown(base int, market *model.MarketSnapshot, chain *model.ChainSnapshot) model.RiskBreakdown {
	b := model.RiskBreakdown{
		Base:          base,
		Contributions: []model.Contribution{{Indicator: IndicatorBase, Points: base}},
	}

	if market != nil {
		switch n := HighVolumePairs(market); {
		case n > highVolumeManyPairs:
			addTerm(&b, &b.Market, IndicatorVolumeMany, manyPairsPoints)
		case n > highVolumeFewPairs:
			addTerm(&b, &b.Market, IndicatorVolumeFew, fewPairsPoints)
		}
	}

	if chain != nil {
		if chain.Indicators.HighFrequency {
			addTerm(&b, &b.Chain, IndicatorHighFrequency, highFrequencyPoints)
		}
		if chain.Indicators.LargeTransactions {
			addTerm(&b, &b.Chain, IndicatorLargeTx, largeTxPoints)
		}
		if chain.Balance.GreaterThan(whaleActiveBalance) && chain.TransactionCount > whaleActiveTxCount {
			addTerm(&b, &b.Chain, IndicatorWhaleActive, whaleActivePoints)
		}
	}

	b.Total = clamp(base + b.Market + b.Chain)
	return b
}

func addTerm(b *model.RiskBreakdown, bucket *int, indicator string, points int) {
	*bucket += points
	b.Contributions = append(b.Contributions, model.Contribution{Indicator: indicator, Points: points})
}

// HighVolumePairs counts tickers whose rolling volume exceeds the high volume mark.
func HighVolumePairs(market *model.MarketSnapshot) int {
	if market == nil {
		return 0
	}
	n := 0
	for _, t := range market.Tickers {
		if t.RollingVolume.GreaterThan(highVolume) {
			n++
		}
	}
	return n
}

func clamp(score int) int {
	return min(max(score, MinScore), MaxScore)
}
