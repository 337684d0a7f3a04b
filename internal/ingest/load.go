package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"riskScope/internal/apperr"
	"riskScope/internal/model"
)

// RecordStore is the part of the record store ingest writes to.
type RecordStore interface {
	WalletByAddress(ctx context.Context, address string) (model.Wallet, error)
	UpsertCustomers(ctx context.Context, customers []model.Customer) error
	UpsertWallets(ctx context.Context, wallets []model.Wallet) error
	UpsertTransactions(ctx context.Context, txs []model.Transaction) error
	UpsertRegistry(ctx context.Context, entries []model.RiskRegistryEntry) error
}

// Summary counts what one load wrote.
type Summary struct {
	VASPID       string   `json:"vasp_id"`
	Customers    int      `json:"customers"`
	Wallets      int      `json:"wallets"`
	Transactions int      `json:"transactions"`
	Registry     int      `json:"risk_entries"`
	Loaded       int      `json:"records_loaded"`
	Skipped      []string `json:"skipped,omitempty"`
}

type Loader struct {
	store  RecordStore
	logger *zap.Logger
	now    func() time.Time
}

func NewLoader(store RecordStore, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{store: store, logger: logger, now: time.Now}
}

// LoadXML parses and loads one document.
func (l *Loader) LoadXML(ctx context.Context, doc []byte) (Summary, error) {
	rep, err := ParseBytes(doc, l.now().UTC())
	if err != nil {
		return Summary{}, err
	}
	return l.Load(ctx, rep)
}

// Load writes customers before wallets and transactions. New wallets start at
// base risk 0 and zero balance; wallets already on record keep their base risk,
// balance and creation time.
func (l *Loader) Load(ctx context.Context, rep Report) (Summary, error) {
	wallets := make([]model.Wallet, 0, len(rep.Wallets))
	for _, w := range rep.Wallets {
		prev, err := l.store.WalletByAddress(ctx, w.Address)
		switch {
		case err == nil:
			w.ID = prev.ID
			w.RiskScore = prev.RiskScore
			w.Balance = prev.Balance
			w.CreatedAt = prev.CreatedAt
			if w.Currency == "" {
				w.Currency = prev.Currency
			}
		case errors.Is(err, apperr.ErrNotFound):
		default:
			return Summary{}, fmt.Errorf("lookup wallet %s: %w", w.Address, err)
		}
		wallets = append(wallets, w)
	}

	if err := l.store.UpsertCustomers(ctx, rep.Customers); err != nil {
		return Summary{}, fmt.Errorf("upsert customers: %w", err)
	}
	if err := l.store.UpsertWallets(ctx, wallets); err != nil {
		return Summary{}, fmt.Errorf("upsert wallets: %w", err)
	}
	if err := l.store.UpsertTransactions(ctx, rep.Transactions); err != nil {
		return Summary{}, fmt.Errorf("upsert transactions: %w", err)
	}
	if err := l.store.UpsertRegistry(ctx, rep.Registry); err != nil {
		return Summary{}, fmt.Errorf("upsert risk registry: %w", err)
	}

	s := Summary{
		VASPID:       rep.VASPID,
		Customers:    len(rep.Customers),
		Wallets:      len(wallets),
		Transactions: len(rep.Transactions),
		Registry:     len(rep.Registry),
		Skipped:      rep.Skipped,
	}
	s.Loaded = s.Customers + s.Wallets + s.Transactions + s.Registry

	l.logger.Info("report loaded",
		zap.String("vasp", s.VASPID),
		zap.Int("customers", s.Customers),
		zap.Int("wallets", s.Wallets),
		zap.Int("transactions", s.Transactions),
		zap.Int("skipped", len(s.Skipped)),
	)
	return s, nil
}
