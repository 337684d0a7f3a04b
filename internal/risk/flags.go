package risk

import (
	"fmt"

	"riskScope/internal/model"
)

// Score bands used by dashboards and reports.
const (
	BandLow    = "low"
	BandMedium = "medium"
	BandHigh   = "high"

	lowBandMax    = 30
	mediumBandMax = 70
)

// Band places a score in the low, medium or high band.
func Band(score int) string {
	switch {
	case score <= lowBandMax:
		return BandLow
	case score <= mediumBandMax:
		return BandMedium
	default:
		return BandHigh
	}
}

// IsHighRisk reports whether score falls in the high band.
func IsHighRisk(score int) bool {
	return score > mediumBandMax
}

// DeriveFlags regenerates the enrichment flags for a wallet from its attached
// snapshots.
func DeriveFlags(w model.Wallet) []model.RiskFlag {
	var flags []model.RiskFlag

	if w.MarketData != nil && HighVolumePairs(w.MarketData) > highVolumeFewPairs {
		exchange := w.MarketData.Exchange
		if exchange == "" {
			exchange = "the exchange"
		}
		flags = append(flags, model.RiskFlag{
			Type:        "high_exchange_volume",
			Description: fmt.Sprintf("High trading volume on %s detected", exchange),
			Severity:    model.SeverityMedium,
		})
	}

	if c := w.ChainData; c != nil {
		if c.Indicators.HighFrequency {
			flags = append(flags, model.RiskFlag{
				Type:        IndicatorHighFrequency,
				Description: "High frequency on-chain transactions detected",
				Severity:    model.SeverityHigh,
			})
		}
		if c.Indicators.LargeTransactions {
			flags = append(flags, model.RiskFlag{
				Type:        IndicatorLargeTx,
				Description: fmt.Sprintf("Multiple large transactions detected (%d total)", c.TransactionCount),
				Severity:    model.SeverityMedium,
			})
		}
	}
	return flags
}

// RegistryFlag describes a transfer to an address listed in the risk registry.
func RegistryFlag(entry model.RiskRegistryEntry) model.RiskFlag {
	riskType := entry.RiskType
	if riskType == "" {
		riskType = "unknown"
	}
	sev := model.SeverityMedium
	if IsHighRisk(entry.RiskScore) {
		sev = model.SeverityHigh
	}
	return model.RiskFlag{
		Type:        riskType,
		Description: fmt.Sprintf("Transaction to %s address", riskType),
		Severity:    sev,
	}
}
