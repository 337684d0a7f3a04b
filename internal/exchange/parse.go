package exchange

import (
	"encoding/json"
	"fmt"

	"riskScope/internal/apperr"
	"riskScope/internal/model"
	"riskScope/internal/payload"
)

// Field names differ between the list feed and single-market summaries.
type rawTicker struct {
	Pair            string          `json:"pair"`
	CurrencyPair    string          `json:"currencyPair"`
	LastTrade       payload.Decimal `json:"last_trade"`
	LastTradedPrice payload.Decimal `json:"lastTradedPrice"`
	Bid             payload.Decimal `json:"bid"`
	BidPrice        payload.Decimal `json:"bidPrice"`
	Ask             payload.Decimal `json:"ask"`
	AskPrice        payload.Decimal `json:"askPrice"`
	RollingVolume   payload.Decimal `json:"rolling_24_hour_volume"`
	BaseVolume      payload.Decimal `json:"baseVolume"`
}

func (r rawTicker) entry() model.TickerEntry {
	return model.TickerEntry{
		Pair:          payload.FirstString(r.Pair, r.CurrencyPair),
		LastTrade:     payload.First(r.LastTrade, r.LastTradedPrice),
		Bid:           payload.First(r.Bid, r.BidPrice),
		Ask:           payload.First(r.Ask, r.AskPrice),
		RollingVolume: payload.First(r.RollingVolume, r.BaseVolume),
	}
}

type rawBalance struct {
	Currency  string          `json:"currency"`
	Asset     string          `json:"asset"`
	Available payload.Decimal `json:"available"`
	Balance   payload.Decimal `json:"balance"`
	Reserved  payload.Decimal `json:"reserved"`
	Total     payload.Decimal `json:"total"`
}

func (r rawBalance) entry() model.Balance {
	b := model.Balance{
		Asset:     payload.FirstString(r.Currency, r.Asset),
		Available: payload.First(r.Available, r.Balance),
		Reserved:  r.Reserved.Decimal,
		Total:     r.Total.Decimal,
	}
	if b.Total.IsZero() {
		b.Total = b.Available.Add(b.Reserved)
	}
	return b
}

// decodeTickers accepts a plain ticker array, an enveloped array, or a single
// market summary object.
func decodeTickers(body []byte) ([]model.TickerEntry, error) {
	raw := payload.Unwrap(body, "tickers", "data", "body")

	var items []rawTicker
	if payload.IsArray(raw) {
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, apperr.Malformed("decode tickers", err)
		}
	} else {
		var one rawTicker
		if err := json.Unmarshal(raw, &one); err != nil {
			return nil, apperr.Malformed("decode tickers", err)
		}
		items = []rawTicker{one}
	}

	out := make([]model.TickerEntry, 0, len(items))
	for _, item := range items {
		entry := item.entry()
		if entry.Pair == "" {
			continue
		}
		out = append(out, entry)
	}
	if len(items) > 0 && len(out) == 0 {
		return nil, apperr.Malformed("decode tickers", fmt.Errorf("no pair field in %d entries", len(items)))
	}
	return out, nil
}

func decodeBalances(body []byte) ([]model.Balance, error) {
	raw := payload.Unwrap(body, "accounts", "balances", "balance", "data", "body")
	if !payload.IsArray(raw) {
		return nil, apperr.Malformed("decode balances", fmt.Errorf("expected array"))
	}

	var items []rawBalance
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, apperr.Malformed("decode balances", err)
	}

	out := make([]model.Balance, 0, len(items))
	for _, item := range items {
		b := item.entry()
		if b.Asset == "" {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}
