package explorer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskScope/internal/httpclient"
)

const addr = "0xd8da6bf26964af9d7eed9e03e53415d37aa96045"

type fakeBalance struct {
	bal   decimal.Decimal
	err   error
	calls int
}

func (f *fakeBalance) BalanceAt(ctx context.Context, address string) (decimal.Decimal, error) {
	f.calls++
	return f.bal, f.err
}

func txList(n int, wei string) string {
	items := make([]string, n)
	for i := range items {
		items[i] = fmt.Sprintf(`{"hash":"0x%02x","from":"%s","to":"0xabc","value":"%s","timeStamp":"%d","isError":"0"}`,
			i, addr, wei, 1700000000-i)
	}
	return `{"status":"1","message":"OK","result":[` + strings.Join(items, ",") + `]}`
}

func newTestClient(t *testing.T, cfg Config, fallback BalanceSource, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg.BaseURL = srv.URL + "/api"
	hc := httpclient.New(httpclient.Config{Name: "explorer", Timeout: time.Second}, nil)
	return NewClient(cfg, hc, fallback, nil)
}

func TestGetBalance(t *testing.T) {
	c := newTestClient(t, Config{APIKey: "k"}, nil, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "balance", q.Get("action"))
		assert.Equal(t, "latest", q.Get("tag"))
		assert.Equal(t, "k", q.Get("apikey"))
		_, _ = w.Write([]byte(`{"status":"1","message":"OK","result":"11500000000000000000"}`))
	})

	assert.Equal(t, "11.5", c.GetBalance(context.Background(), addr).String())
}

func TestGetBalanceMalformedIsZero(t *testing.T) {
	c := newTestClient(t, Config{}, nil, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"0","message":"NOTOK","result":"Invalid API Key"}`))
	})

	assert.True(t, c.GetBalance(context.Background(), addr).IsZero())
}

func TestGetBalanceFallsBackToRPC(t *testing.T) {
	fb := &fakeBalance{bal: decimal.RequireFromString("3.25")}
	c := newTestClient(t, Config{}, fb, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	assert.Equal(t, "3.25", c.GetBalance(context.Background(), addr).String())
	assert.Equal(t, 1, fb.calls)
}

func TestGetBalanceSkipsFallbackForNonHexAddress(t *testing.T) {
	fb := &fakeBalance{bal: decimal.RequireFromString("3.25")}
	c := newTestClient(t, Config{}, fb, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	assert.True(t, c.GetBalance(context.Background(), "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq").IsZero())
	assert.Equal(t, 0, fb.calls)
}

func TestGetTransactionsTruncates(t *testing.T) {
	c := newTestClient(t, Config{}, nil, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "desc", r.URL.Query().Get("sort"))
		_, _ = w.Write([]byte(txList(30, "1000000000000000000")))
	})

	txs := c.GetTransactions(context.Background(), addr, 20)
	require.Len(t, txs, 20)
	assert.Equal(t, "0x00", txs[0].Hash)
	assert.Equal(t, "1", txs[0].Value.String())
	assert.True(t, txs[0].Success)
	assert.Equal(t, int64(1700000000), txs[0].Timestamp.Unix())
	assert.True(t, txs[0].Timestamp.After(txs[1].Timestamp))
}

func TestGetTransactionsErrorIsEmpty(t *testing.T) {
	c := newTestClient(t, Config{}, nil, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"0","message":"NOTOK","result":"Max rate limit reached"}`))
	})

	txs := c.GetTransactions(context.Background(), addr, 20)
	assert.NotNil(t, txs)
	assert.Empty(t, txs)
}

func TestSnapshotAnalysesWholeWindow(t *testing.T) {
	c := newTestClient(t, Config{MaxTransactions: 20, AnalysisWindow: 100}, nil, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch q.Get("action") {
		case "balance":
			_, _ = w.Write([]byte(`{"result":"11000000000000000000"}`))
		case "txlist":
			assert.Equal(t, "100", q.Get("offset"))
			_, _ = w.Write([]byte(txList(60, "12000000000000000000")))
		}
	})

	snap, err := c.Snapshot(context.Background(), addr)
	require.NoError(t, err)
	assert.Equal(t, addr, snap.Address)
	assert.Equal(t, "11", snap.Balance.String())
	assert.Equal(t, 60, snap.TransactionCount)
	assert.Len(t, snap.Transactions, 20)
	assert.True(t, snap.Indicators.HighFrequency)
	assert.True(t, snap.Indicators.LargeTransactions)
	assert.Contains(t, snap.Indicators.Patterns, "60 large transactions")
}

func TestSnapshotUnreachableFails(t *testing.T) {
	c := newTestClient(t, Config{}, &fakeBalance{err: errors.New("rpc down")}, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	snap, err := c.Snapshot(context.Background(), addr)
	assert.Error(t, err)
	assert.Nil(t, snap)
}

func TestSnapshotDegradedStillReturns(t *testing.T) {
	c := newTestClient(t, Config{}, nil, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("action") == "balance" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"status":"0","message":"No transactions found","result":[]}`))
	})

	snap, err := c.Snapshot(context.Background(), addr)
	require.NoError(t, err)
	assert.True(t, snap.Balance.IsZero())
	assert.Zero(t, snap.TransactionCount)
	assert.Empty(t, snap.Transactions)
}
