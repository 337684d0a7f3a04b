package explorer

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"riskScope/internal/apperr"
	"riskScope/internal/chain"
	"riskScope/internal/model"
	"riskScope/internal/payload"
)

type rawTx struct {
	Hash      string `json:"hash"`
	From      string `json:"from"`
	To        string `json:"to"`
	Value     string `json:"value"`
	TimeStamp string `json:"timeStamp"`
	IsError   string `json:"isError"`
}

func (r rawTx) transaction() model.ChainTransaction {
	tx := model.ChainTransaction{
		Hash:    r.Hash,
		From:    r.From,
		To:      r.To,
		Value:   weiString(r.Value),
		Success: r.IsError == "0",
	}
	if ts, err := strconv.ParseInt(strings.TrimSpace(r.TimeStamp), 10, 64); err == nil && ts > 0 {
		tx.Timestamp = time.Unix(ts, 0).UTC()
	}
	return tx
}

// decodeBalance reads a wei amount from a plain or enveloped reply. The explorer
// reports errors as a non-numeric result string.
func decodeBalance(body []byte) (decimal.Decimal, error) {
	raw := strings.Trim(strings.TrimSpace(string(payload.Unwrap(body, "result", "body"))), `"`)
	wei, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return decimal.Zero, apperr.Malformed("decode balance", fmt.Errorf("non-numeric result %q", truncate(raw, 80)))
	}
	return chain.FromWei(wei), nil
}

// decodeTransactions reads the txlist result. An empty history is reported by the
// explorer as status 0 with an empty array, which decodes to an empty list.
func decodeTransactions(body []byte) ([]model.ChainTransaction, error) {
	raw := payload.Unwrap(body, "result", "body")
	if !payload.IsArray(raw) {
		return nil, apperr.Malformed("decode transactions", fmt.Errorf("result is not a list: %s", truncate(string(raw), 80)))
	}

	var items []rawTx
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, apperr.Malformed("decode transactions", err)
	}

	out := make([]model.ChainTransaction, 0, len(items))
	for _, item := range items {
		out = append(out, item.transaction())
	}
	return out, nil
}

func weiString(s string) decimal.Decimal {
	wei, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return decimal.Zero
	}
	return chain.FromWei(wei)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
