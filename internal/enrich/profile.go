package enrich

import (
	"strings"

	"github.com/shopspring/decimal"

	"riskScope/internal/model"
)

// Substring rules are checked in order against the lower-cased customer id.
var profileRules = []struct {
	substr  string
	profile string
}{
	{"vitalik", model.ProfileVitalik},
	{"coinbase", model.ProfileTrader},
	{"opensea", model.ProfileNFTTrader},
}

// DeriveProfile maps a customer id onto a trading profile.
func DeriveProfile(customerID string) string {
	id := strings.ToLower(customerID)
	for _, r := range profileRules {
		if strings.Contains(id, r.substr) {
			return r.profile
		}
	}
	return model.ProfileDefault
}

var networkAssets = map[string]string{
	"":         "ETH",
	"ETHEREUM": "ETH",
	"BITCOIN":  "BTC",
	"SOLANA":   "SOL",
	"RIPPLE":   "XRP",
	"LITECOIN": "LTC",
}

// KnownBalances sums positive balances of declared wallets per asset. The asset
// is the wallet currency when set, else derived from the blockchain tag.
func KnownBalances(wallets []model.Wallet) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, w := range wallets {
		if !w.Declared || !w.Balance.IsPositive() {
			continue
		}
		asset := strings.ToUpper(strings.TrimSpace(w.Currency))
		if asset == "" {
			asset = strings.ToUpper(strings.TrimSpace(w.Blockchain))
			if mapped, ok := networkAssets[asset]; ok {
				asset = mapped
			}
		}
		out[asset] = out[asset].Add(w.Balance)
	}
	return out
}
