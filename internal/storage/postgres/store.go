// Package postgres is the pgx-backed record store.
package postgres

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"riskScope/internal/apperr"
	"riskScope/internal/model"
)

//go:embed schema.sql
var schema string

// Store provides Postgres persistence for customers, wallets, transactions and
// the risk registry. Wallet updates are single-row statements keyed by wallet id.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate creates missing tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) sendBatch(ctx context.Context, batch *pgx.Batch) error {
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// UpsertCustomers inserts or updates customers by id.
func (s *Store) UpsertCustomers(ctx context.Context, customers []model.Customer) error {
	if len(customers) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, c := range customers {
		batch.Queue(`
			INSERT INTO customers (
				customer_id, sa_id, first_name, last_name, email, vasp_id, source, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
			ON CONFLICT (customer_id)
			DO UPDATE SET
				sa_id = EXCLUDED.sa_id,
				first_name = EXCLUDED.first_name,
				last_name = EXCLUDED.last_name,
				email = EXCLUDED.email,
				vasp_id = EXCLUDED.vasp_id,
				source = EXCLUDED.source,
				updated_at = now()
		`,
			c.ID,
			c.SAID,
			c.FirstName,
			c.LastName,
			c.Email,
			c.VASPID,
			c.Source,
			createdAt(c.CreatedAt),
		)
	}
	return s.sendBatch(ctx, batch)
}

// UpsertWallets writes ingest-owned wallet fields. Enrichment columns are left
// untouched on conflict.
func (s *Store) UpsertWallets(ctx context.Context, wallets []model.Wallet) error {
	if len(wallets) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, w := range wallets {
		batch.Queue(`
			INSERT INTO wallets (
				wallet_id, wallet_address, customer_id, declared, blockchain, risk_score,
				balance, currency, source, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
			ON CONFLICT (wallet_id)
			DO UPDATE SET
				wallet_address = EXCLUDED.wallet_address,
				customer_id = EXCLUDED.customer_id,
				declared = EXCLUDED.declared,
				blockchain = EXCLUDED.blockchain,
				risk_score = EXCLUDED.risk_score,
				balance = EXCLUDED.balance,
				currency = EXCLUDED.currency,
				source = EXCLUDED.source,
				updated_at = now()
		`,
			w.ID,
			w.Address,
			w.CustomerID,
			w.Declared,
			w.Blockchain,
			w.RiskScore,
			w.Balance,
			w.Currency,
			w.Source,
			createdAt(w.CreatedAt),
		)
	}
	return s.sendBatch(ctx, batch)
}

// UpsertTransactions inserts or updates transactions by hash.
func (s *Store) UpsertTransactions(ctx context.Context, txs []model.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, tx := range txs {
		var ts *time.Time
		if !tx.Timestamp.IsZero() {
			t := tx.Timestamp
			ts = &t
		}
		batch.Queue(`
			INSERT INTO transactions (
				transaction_hash, transaction_id, from_address, to_address, amount, currency, blockchain, ts, source
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (transaction_hash)
			DO UPDATE SET
				from_address = EXCLUDED.from_address,
				to_address = EXCLUDED.to_address,
				amount = EXCLUDED.amount,
				currency = EXCLUDED.currency,
				blockchain = EXCLUDED.blockchain,
				ts = COALESCE(EXCLUDED.ts, transactions.ts),
				source = EXCLUDED.source
		`,
			tx.Hash,
			tx.ID,
			tx.FromAddress,
			tx.ToAddress,
			tx.Amount,
			tx.Currency,
			tx.Blockchain,
			ts,
			tx.Source,
		)
	}
	return s.sendBatch(ctx, batch)
}

// UpsertRegistry inserts or updates risk registry entries by address.
func (s *Store) UpsertRegistry(ctx context.Context, entries []model.RiskRegistryEntry) error {
	if len(entries) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(`
			INSERT INTO risk_registry (wallet_address, risk_type, risk_score, updated_at)
			VALUES (lower($1), $2, $3, now())
			ON CONFLICT (wallet_address)
			DO UPDATE SET risk_type = EXCLUDED.risk_type, risk_score = EXCLUDED.risk_score, updated_at = now()
		`, e.Address, e.RiskType, e.RiskScore)
	}
	return s.sendBatch(ctx, batch)
}

// AttachEnrichment replaces the snapshots and composite score of one wallet.
func (s *Store) AttachEnrichment(ctx context.Context, walletID string, e model.Enrichment) error {
	market, err := marshalSnapshot(e.Market)
	if err != nil {
		return err
	}
	chain, err := marshalSnapshot(e.Chain)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE wallets SET
			market_data = $2,
			chain_data = $3,
			combined_risk = $4,
			market_enriched_at = CASE WHEN $2::jsonb IS NULL THEN NULL ELSE $5::timestamptz END,
			chain_enriched_at = CASE WHEN $3::jsonb IS NULL THEN NULL ELSE $5::timestamptz END,
			last_enriched = $5,
			updated_at = now()
		WHERE wallet_id = $1
	`, walletID, market, chain, e.CompositeRisk, e.EnrichedAt)
	if err != nil {
		return fmt.Errorf("attach enrichment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("wallet", walletID)
	}
	return nil
}

const walletColumns = `
	wallet_id, wallet_address, customer_id, declared, blockchain, risk_score, balance, currency,
	combined_risk, market_data, chain_data, market_enriched_at, chain_enriched_at, last_enriched,
	source, created_at`

func (s *Store) WalletByAddress(ctx context.Context, address string) (model.Wallet, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE lower(wallet_address) = lower($1)`, address)
	w, err := scanWallet(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Wallet{}, apperr.NotFound("wallet", address)
		}
		return model.Wallet{}, err
	}
	return w, nil
}

func (s *Store) WalletsByCustomer(ctx context.Context, customerID string) ([]model.Wallet, error) {
	return s.queryWallets(ctx, `SELECT `+walletColumns+` FROM wallets WHERE customer_id = $1 ORDER BY wallet_id`, customerID)
}

func (s *Store) Wallets(ctx context.Context) ([]model.Wallet, error) {
	return s.queryWallets(ctx, `SELECT `+walletColumns+` FROM wallets ORDER BY wallet_id`)
}

func (s *Store) queryWallets(ctx context.Context, sql string, args ...any) ([]model.Wallet, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Wallet{}
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func scanWallet(row pgx.Row) (model.Wallet, error) {
	var (
		w      model.Wallet
		market []byte
		chain  []byte
	)
	err := row.Scan(
		&w.ID,
		&w.Address,
		&w.CustomerID,
		&w.Declared,
		&w.Blockchain,
		&w.RiskScore,
		&w.Balance,
		&w.Currency,
		&w.CompositeRisk,
		&market,
		&chain,
		&w.MarketEnrichedAt,
		&w.ChainEnrichedAt,
		&w.LastEnriched,
		&w.Source,
		&w.CreatedAt,
	)
	if err != nil {
		return model.Wallet{}, err
	}
	if len(market) > 0 {
		w.MarketData = &model.MarketSnapshot{}
		if err := json.Unmarshal(market, w.MarketData); err != nil {
			return model.Wallet{}, fmt.Errorf("decode market_data for %s: %w", w.ID, err)
		}
	}
	if len(chain) > 0 {
		w.ChainData = &model.ChainSnapshot{}
		if err := json.Unmarshal(chain, w.ChainData); err != nil {
			return model.Wallet{}, fmt.Errorf("decode chain_data for %s: %w", w.ID, err)
		}
	}
	return w, nil
}

const customerColumns = `customer_id, sa_id, first_name, last_name, email, vasp_id, source, created_at`

func (s *Store) Customer(ctx context.Context, id string) (model.Customer, error) {
	return s.oneCustomer(ctx, id, `SELECT `+customerColumns+` FROM customers WHERE customer_id = $1`)
}

func (s *Store) CustomerBySAID(ctx context.Context, saID string) (model.Customer, error) {
	return s.oneCustomer(ctx, saID, `SELECT `+customerColumns+` FROM customers WHERE sa_id = $1 ORDER BY customer_id LIMIT 1`)
}

func (s *Store) oneCustomer(ctx context.Context, key, sql string) (model.Customer, error) {
	c, err := scanCustomer(s.pool.QueryRow(ctx, sql, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Customer{}, apperr.NotFound("customer", key)
		}
		return model.Customer{}, err
	}
	return c, nil
}

func (s *Store) SearchCustomers(ctx context.Context, text string, limit int) ([]model.Customer, error) {
	if limit <= 0 {
		limit = 50
	}
	pattern := "%" + escapeLike(strings.TrimSpace(text)) + "%"
	return s.queryCustomers(ctx, `
		SELECT `+customerColumns+` FROM customers
		WHERE first_name || ' ' || last_name ILIKE $1 OR email ILIKE $1 OR sa_id ILIKE $1
		ORDER BY customer_id
		LIMIT $2
	`, pattern, limit)
}

func (s *Store) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	return s.queryCustomers(ctx, `SELECT `+customerColumns+` FROM customers ORDER BY customer_id`)
}

func (s *Store) queryCustomers(ctx context.Context, sql string, args ...any) ([]model.Customer, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanCustomer(row pgx.Row) (model.Customer, error) {
	var c model.Customer
	err := row.Scan(&c.ID, &c.SAID, &c.FirstName, &c.LastName, &c.Email, &c.VASPID, &c.Source, &c.CreatedAt)
	return c, err
}

// TransactionsFrom returns transactions sent from address, newest first.
func (s *Store) TransactionsFrom(ctx context.Context, address string) ([]model.Transaction, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT transaction_id, transaction_hash, from_address, to_address, amount, currency, blockchain, ts, source
		FROM transactions
		WHERE lower(from_address) = lower($1)
		ORDER BY ts DESC NULLS LAST, transaction_hash
	`, address)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Transaction{}
	for rows.Next() {
		var (
			tx model.Transaction
			ts *time.Time
		)
		if err := rows.Scan(&tx.ID, &tx.Hash, &tx.FromAddress, &tx.ToAddress, &tx.Amount, &tx.Currency, &tx.Blockchain, &ts, &tx.Source); err != nil {
			return nil, err
		}
		if ts != nil {
			tx.Timestamp = *ts
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// RegistryEntry returns the registry entry for address, if listed.
func (s *Store) RegistryEntry(ctx context.Context, address string) (model.RiskRegistryEntry, bool, error) {
	var e model.RiskRegistryEntry
	row := s.pool.QueryRow(ctx, `SELECT wallet_address, risk_type, risk_score FROM risk_registry WHERE wallet_address = lower($1)`, address)
	if err := row.Scan(&e.Address, &e.RiskType, &e.RiskScore); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.RiskRegistryEntry{}, false, nil
		}
		return model.RiskRegistryEntry{}, false, err
	}
	return e, true, nil
}

func marshalSnapshot[T any](snap *T) ([]byte, error) {
	if snap == nil {
		return nil, nil
	}
	b, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return b, nil
}

func createdAt(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
