package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskScope/internal/apperr"
	"riskScope/internal/model"
	"riskScope/internal/storage"
)

var _ storage.Store = (*Store)(nil)

func seed(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.UpsertCustomers(ctx, []model.Customer{
		{ID: "cust-vitalik", SAID: "8001015009087", FirstName: "Vitalik", LastName: "Buterin", Email: "v@example.org"},
		{ID: "cust-coinbase", SAID: "9002025009088", FirstName: "Brian", LastName: "Armstrong"},
	}))
	require.NoError(t, s.UpsertWallets(ctx, []model.Wallet{
		{ID: "w1", Address: "0xAbC", CustomerID: "cust-vitalik", Declared: true, RiskScore: 10, Balance: decimal.NewFromInt(2)},
		{ID: "w2", Address: "0xdef", CustomerID: "cust-vitalik", RiskScore: 40},
		{ID: "w3", Address: "0x999", CustomerID: "cust-coinbase"},
	}))
	return s
}

func TestWalletLookups(t *testing.T) {
	ctx := context.Background()
	s := seed(t)

	w, err := s.WalletByAddress(ctx, "0xabc")
	require.NoError(t, err)
	assert.Equal(t, "w1", w.ID)

	_, err = s.WalletByAddress(ctx, "0x404")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	ws, err := s.WalletsByCustomer(ctx, "cust-vitalik")
	require.NoError(t, err)
	require.Len(t, ws, 2)
	assert.Equal(t, "w1", ws[0].ID)

	ws, err = s.WalletsByCustomer(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, ws)
	assert.Empty(t, ws)
}

func TestAttachEnrichmentReplacesSnapshots(t *testing.T) {
	ctx := context.Background()
	s := seed(t)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, s.AttachEnrichment(ctx, "w1", model.Enrichment{
		Market:        &model.MarketSnapshot{Exchange: "Luno"},
		Chain:         &model.ChainSnapshot{TransactionCount: 3},
		CompositeRisk: 35,
		EnrichedAt:    at,
	}))
	w, err := s.WalletByAddress(ctx, "0xabc")
	require.NoError(t, err)
	require.NotNil(t, w.CompositeRisk)
	assert.Equal(t, 35, w.EffectiveRisk())
	assert.Equal(t, 10, w.RiskScore)
	assert.True(t, w.Declared)
	assert.Equal(t, at, *w.ChainEnrichedAt)

	require.NoError(t, s.AttachEnrichment(ctx, "w1", model.Enrichment{
		Market:        &model.MarketSnapshot{Exchange: "VALR"},
		CompositeRisk: 10,
		EnrichedAt:    at.Add(time.Hour),
	}))
	w, err = s.WalletByAddress(ctx, "0xabc")
	require.NoError(t, err)
	assert.Equal(t, "VALR", w.MarketData.Exchange)
	assert.Nil(t, w.ChainData)
	assert.Nil(t, w.ChainEnrichedAt)
	assert.Equal(t, at.Add(time.Hour), *w.LastEnriched)

	assert.ErrorIs(t, s.AttachEnrichment(ctx, "missing", model.Enrichment{}), apperr.ErrNotFound)
}

func TestUpsertWalletKeepsEnrichment(t *testing.T) {
	ctx := context.Background()
	s := seed(t)
	require.NoError(t, s.AttachEnrichment(ctx, "w2", model.Enrichment{CompositeRisk: 80, EnrichedAt: time.Now()}))

	require.NoError(t, s.UpsertWallets(ctx, []model.Wallet{{ID: "w2", Address: "0xdef", CustomerID: "cust-vitalik", RiskScore: 45}}))
	w, err := s.WalletByAddress(ctx, "0xdef")
	require.NoError(t, err)
	assert.Equal(t, 45, w.RiskScore)
	assert.Equal(t, 80, w.EffectiveRisk())
}

func TestCustomerLookups(t *testing.T) {
	ctx := context.Background()
	s := seed(t)

	c, err := s.CustomerBySAID(ctx, "9002025009088")
	require.NoError(t, err)
	assert.Equal(t, "cust-coinbase", c.ID)

	_, err = s.Customer(ctx, "nope")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	found, err := s.SearchCustomers(ctx, "BUTERIN", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Vitalik Buterin", found[0].Name())

	all, err := s.ListCustomers(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestTransactionsAndRegistry(t *testing.T) {
	ctx := context.Background()
	s := seed(t)
	now := time.Now().UTC()
	require.NoError(t, s.UpsertTransactions(ctx, []model.Transaction{
		{Hash: "0x1", FromAddress: "0xABC", ToAddress: "0xbad", Timestamp: now.Add(-time.Hour)},
		{Hash: "0x2", FromAddress: "0xabc", ToAddress: "0xfine", Timestamp: now},
		{Hash: "0x3", FromAddress: "0xdef", ToAddress: "0xabc", Timestamp: now},
	}))
	require.NoError(t, s.UpsertRegistry(ctx, []model.RiskRegistryEntry{{Address: "0xBAD", RiskType: "mixer", RiskScore: 90}}))

	txs, err := s.TransactionsFrom(ctx, "0xabc")
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "0x2", txs[0].Hash)

	e, ok, err := s.RegistryEntry(ctx, "0xbad")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "mixer", e.RiskType)

	_, ok, err = s.RegistryEntry(ctx, "0xfine")
	require.NoError(t, err)
	assert.False(t, ok)
}
