package service

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"riskScope/internal/model"
	"riskScope/internal/risk"
)

const (
	marketPriceLimit = 6
	alertLimit       = 10
)

// FallbackETHPrice values ETH exposure when a wallet carries no ETH ticker.
var FallbackETHPrice = decimal.NewFromInt(48000)

var dashboardAssets = []string{"ETH", "XBT", "SOL", "XRP", "LTC", "BCH"}

type KPIs struct {
	TotalCustomers  int             `json:"total_customers"`
	TotalWallets    int             `json:"total_wallets"`
	HighRiskWallets int             `json:"high_risk_wallets"`
	TotalExposure   decimal.Decimal `json:"total_crypto_exposure"`
	Quote           string          `json:"quote_currency"`
}

type RiskDistribution struct {
	Low    int `json:"low"`
	Medium int `json:"medium"`
	High   int `json:"high"`
}

type MarketPrice struct {
	Pair      string          `json:"pair"`
	Display   string          `json:"pair_display"`
	LastTrade decimal.Decimal `json:"last_trade"`
	Bid       decimal.Decimal `json:"bid"`
	Ask       decimal.Decimal `json:"ask"`
	Change    float64         `json:"change"`
	Trend     string          `json:"trend"`
	Volume    decimal.Decimal `json:"volume"`
}

type Alert struct {
	WalletAddress string         `json:"wallet_address"`
	CustomerID    string         `json:"customer_id"`
	CustomerName  string         `json:"customer_name"`
	AlertType     string         `json:"alert_type"`
	Severity      model.Severity `json:"severity"`
	RiskScore     int            `json:"risk_score"`
	Description   string         `json:"description"`
	Timestamp     *time.Time     `json:"timestamp,omitempty"`
}

type Dashboard struct {
	Timestamp        time.Time        `json:"timestamp"`
	KPIs             KPIs             `json:"kpi_metrics"`
	RiskDistribution RiskDistribution `json:"risk_distribution"`
	RecentAlerts     []Alert          `json:"recent_alerts"`
	MarketPrices     []MarketPrice    `json:"market_prices"`
	LivePrices       bool             `json:"live_prices"`
}

// Dashboard aggregates stored wallets into KPIs, a risk distribution and recent
// high-risk alerts, alongside live prices for the main quote pairs.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	customers, err := s.store.ListCustomers(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	wallets, err := s.store.Wallets(ctx)
	if err != nil {
		return Dashboard{}, err
	}

	names := make(map[string]string, len(customers))
	for _, c := range customers {
		names[c.ID] = c.Name()
	}

	d := Dashboard{
		Timestamp:    s.now().UTC(),
		KPIs:         KPIs{TotalCustomers: len(customers), TotalWallets: len(wallets), TotalExposure: decimal.Zero, Quote: s.quote},
		RecentAlerts: []Alert{},
	}

	var alerts []model.Wallet
	for _, w := range wallets {
		score := w.EffectiveRisk()
		switch risk.Band(score) {
		case risk.BandLow:
			d.RiskDistribution.Low++
		case risk.BandMedium:
			d.RiskDistribution.Medium++
		default:
			d.RiskDistribution.High++
		}
		if risk.IsHighRisk(score) {
			d.KPIs.HighRiskWallets++
			alerts = append(alerts, w)
		}
		d.KPIs.TotalExposure = d.KPIs.TotalExposure.Add(s.ethExposure(w))
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		a, b := alerts[i].LastEnriched, alerts[j].LastEnriched
		if a == nil || b == nil {
			return a != nil
		}
		return a.After(*b)
	})
	if len(alerts) > alertLimit {
		alerts = alerts[:alertLimit]
	}
	for _, w := range alerts {
		d.RecentAlerts = append(d.RecentAlerts, newAlert(w, names[w.CustomerID]))
	}

	d.MarketPrices, d.LivePrices = s.marketPrices(ctx)
	return d, nil
}

func (s *Service) ethExposure(w model.Wallet) decimal.Decimal {
	if w.ChainData == nil || w.ChainData.Balance.IsZero() {
		return decimal.Zero
	}
	price := FallbackETHPrice
	if t, ok := w.MarketData.Ticker("ETH" + s.quote); ok && t.LastTrade.IsPositive() {
		price = t.LastTrade
	}
	return w.ChainData.Balance.Mul(price)
}

func newAlert(w model.Wallet, customerName string) Alert {
	a := Alert{
		WalletAddress: w.Address,
		CustomerID:    w.CustomerID,
		CustomerName:  customerName,
		AlertType:     "high_risk_score",
		Severity:      model.SeverityHigh,
		RiskScore:     w.EffectiveRisk(),
		Description:   "Composite risk score " + strconv.Itoa(w.EffectiveRisk()),
		Timestamp:     w.LastEnriched,
	}
	if flags := risk.DeriveFlags(w); len(flags) > 0 {
		a.AlertType = flags[0].Type
		a.Description = flags[0].Description
	}
	return a
}

// marketPrices returns the quote pairs sorted by volume, or the static fallback
// list when the exchange cannot be reached. The bool reports live data.
func (s *Service) marketPrices(ctx context.Context) ([]MarketPrice, bool) {
	if s.tickers == nil {
		return fallbackPrices(), false
	}
	tickers, err := s.tickers.GetPublicTickers(ctx)
	if err != nil {
		s.logger.Warn("dashboard market prices", zap.Error(err))
		return fallbackPrices(), false
	}

	wanted := make(map[string]struct{}, len(dashboardAssets))
	for _, a := range dashboardAssets {
		wanted[a+s.quote] = struct{}{}
	}

	prices := []MarketPrice{}
	seen := map[string]struct{}{}
	for _, t := range tickers {
		if _, ok := wanted[t.Pair]; !ok {
			continue
		}
		if _, dup := seen[t.Pair]; dup {
			continue
		}
		seen[t.Pair] = struct{}{}
		prices = append(prices, newMarketPrice(t, s.quote))
	}
	if len(prices) == 0 {
		return fallbackPrices(), false
	}

	sort.SliceStable(prices, func(i, j int) bool { return prices[i].Volume.GreaterThan(prices[j].Volume) })
	if len(prices) > marketPriceLimit {
		prices = prices[:marketPriceLimit]
	}
	return prices, true
}

func newMarketPrice(t model.TickerEntry, quote string) MarketPrice {
	p := MarketPrice{
		Pair:      t.Pair,
		Display:   displayPair(t.Pair, quote),
		LastTrade: t.LastTrade,
		Bid:       t.Bid,
		Ask:       t.Ask,
		Volume:    t.RollingVolume,
	}
	mid := t.LastTrade
	if t.Bid.IsPositive() && t.Ask.IsPositive() {
		mid = t.Bid.Add(t.Ask).Div(decimal.NewFromInt(2))
	}
	if mid.IsPositive() {
		p.Change = t.LastTrade.Sub(mid).Div(mid).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
	}
	p.Trend = "up"
	if p.Change < 0 {
		p.Trend = "down"
	}
	return p
}

func displayPair(pair, quote string) string {
	base := strings.TrimSuffix(pair, quote)
	if base == "XBT" {
		base = "BTC"
	}
	return base + "/" + quote
}

func fallbackPrices() []MarketPrice {
	row := func(pair, last string, change float64, volume string) MarketPrice {
		trend := "up"
		if change < 0 {
			trend = "down"
		}
		return MarketPrice{
			Pair:      pair,
			Display:   displayPair(pair, "ZAR"),
			LastTrade: decimal.RequireFromString(last),
			Change:    change,
			Trend:     trend,
			Volume:    decimal.RequireFromString(volume),
		}
	}
	return []MarketPrice{
		row("ETHZAR", "48690.00", 1.2, "133.80152"),
		row("XBTZAR", "1481003.00", 2.1, "33.547426"),
		row("SOLZAR", "2180.00", -0.5, "900.6629"),
		row("XRPZAR", "34.96", 0.3, "779398.00"),
		row("LTCZAR", "1450.00", -1.1, "45.231"),
		row("BCHZAR", "5320.00", 0.8, "12.456"),
	}
}
