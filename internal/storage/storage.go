// Package storage defines the record store used by ingest, enrichment and search.
// Customer and wallet references are eventually consistent: a wallet whose
// customer no longer exists is a tolerated state.
package storage

import (
	"context"

	"riskScope/internal/model"
)

// WalletStore is the slice of the record store the enrichment orchestrator needs.
type WalletStore interface {
	WalletByAddress(ctx context.Context, address string) (model.Wallet, error)
	WalletsByCustomer(ctx context.Context, customerID string) ([]model.Wallet, error)
	// AttachEnrichment replaces both snapshots, the composite score and the
	// enrichment timestamps of one wallet without touching its other fields.
	AttachEnrichment(ctx context.Context, walletID string, e model.Enrichment) error
}

// Store is the full record store.
type Store interface {
	WalletStore

	UpsertCustomers(ctx context.Context, customers []model.Customer) error
	UpsertWallets(ctx context.Context, wallets []model.Wallet) error
	UpsertTransactions(ctx context.Context, txs []model.Transaction) error
	UpsertRegistry(ctx context.Context, entries []model.RiskRegistryEntry) error

	Customer(ctx context.Context, id string) (model.Customer, error)
	CustomerBySAID(ctx context.Context, saID string) (model.Customer, error)
	// SearchCustomers matches text against name, email and SA id, case-insensitively.
	SearchCustomers(ctx context.Context, text string, limit int) ([]model.Customer, error)
	ListCustomers(ctx context.Context) ([]model.Customer, error)

	Wallets(ctx context.Context) ([]model.Wallet, error)
	TransactionsFrom(ctx context.Context, address string) ([]model.Transaction, error)
	RegistryEntry(ctx context.Context, address string) (model.RiskRegistryEntry, bool, error)

	Ping(ctx context.Context) error
	Close()
}
