package exchange

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"riskScope/internal/model"
)

// Base assets per profile. Pairs are formed by appending the quote currency.
var profileAssets = map[string][]string{
	model.ProfileVitalik:   {"ETH", "XBT"},
	model.ProfileTrader:    {"XBT", "ETH", "XRP", "LTC", "BCH", "SOL"},
	model.ProfileNFTTrader: {"ETH", "SOL"},
	model.ProfileDefault:   {"XBT", "ETH", "XRP"},
}

// Exchange asset codes that differ from the common ticker.
var assetAliases = map[string]string{
	"BTC": "XBT",
}

// RelevantPairs is the union of the profile's base pairs and a pair for every
// positive holding. Unknown profiles fall back to the default set.
func RelevantPairs(profile, quote string, holdings map[string]decimal.Decimal) map[string]struct{} {
	quote = strings.ToUpper(quote)
	assets, ok := profileAssets[profile]
	if !ok {
		assets = profileAssets[model.ProfileDefault]
	}

	pairs := make(map[string]struct{}, len(assets)+len(holdings))
	for _, a := range assets {
		pairs[a+quote] = struct{}{}
	}
	for asset, amount := range holdings {
		if !amount.IsPositive() {
			continue
		}
		code := ExchangeAsset(asset)
		if code == "" || code == quote {
			continue
		}
		pairs[code+quote] = struct{}{}
	}
	return pairs
}

// ExchangeAsset maps a common asset code onto the exchange's code.
func ExchangeAsset(asset string) string {
	asset = strings.ToUpper(strings.TrimSpace(asset))
	if alias, ok := assetAliases[asset]; ok {
		return alias
	}
	return asset
}

// FilterRelevant keeps tickers whose pair is relevant, drops duplicate pairs and
// sorts by pair ascending.
func FilterRelevant(tickers []model.TickerEntry, profile, quote string, holdings map[string]decimal.Decimal) []model.TickerEntry {
	pairs := RelevantPairs(profile, quote, holdings)

	out := make([]model.TickerEntry, 0, len(pairs))
	seen := make(map[string]struct{}, len(pairs))
	for _, t := range tickers {
		if _, ok := pairs[t.Pair]; !ok {
			continue
		}
		if _, dup := seen[t.Pair]; dup {
			continue
		}
		seen[t.Pair] = struct{}{}
		out = append(out, t)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Pair < out[j].Pair })
	return out
}
