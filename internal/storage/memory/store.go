// Package memory is an in-process record store for development and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"riskScope/internal/apperr"
	"riskScope/internal/model"
)

// Store keeps records in maps guarded by one mutex.
type Store struct {
	mu           sync.RWMutex
	customers    map[string]model.Customer
	wallets      map[string]model.Wallet
	byAddress    map[string]string
	transactions map[string]model.Transaction
	registry     map[string]model.RiskRegistryEntry
}

func NewStore() *Store {
	return &Store{
		customers:    make(map[string]model.Customer),
		wallets:      make(map[string]model.Wallet),
		byAddress:    make(map[string]string),
		transactions: make(map[string]model.Transaction),
		registry:     make(map[string]model.RiskRegistryEntry),
	}
}

func (s *Store) Ping(ctx context.Context) error { return nil }

func (s *Store) Close() {}

func addrKey(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

func (s *Store) UpsertCustomers(ctx context.Context, customers []model.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range customers {
		if prev, ok := s.customers[c.ID]; ok && !prev.CreatedAt.IsZero() {
			c.CreatedAt = prev.CreatedAt
		}
		s.customers[c.ID] = c
	}
	return nil
}

// UpsertWallets writes ingest-owned fields. Enrichment fields already attached to
// an existing wallet are preserved.
func (s *Store) UpsertWallets(ctx context.Context, wallets []model.Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range wallets {
		if prev, ok := s.wallets[w.ID]; ok {
			w.CompositeRisk = prev.CompositeRisk
			w.MarketData = prev.MarketData
			w.ChainData = prev.ChainData
			w.MarketEnrichedAt = prev.MarketEnrichedAt
			w.ChainEnrichedAt = prev.ChainEnrichedAt
			w.LastEnriched = prev.LastEnriched
			if !prev.CreatedAt.IsZero() {
				w.CreatedAt = prev.CreatedAt
			}
			if addrKey(prev.Address) != addrKey(w.Address) {
				delete(s.byAddress, addrKey(prev.Address))
			}
		}
		s.wallets[w.ID] = w
		s.byAddress[addrKey(w.Address)] = w.ID
	}
	return nil
}

func (s *Store) UpsertTransactions(ctx context.Context, txs []model.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tx := range txs {
		s.transactions[tx.Hash] = tx
	}
	return nil
}

func (s *Store) UpsertRegistry(ctx context.Context, entries []model.RiskRegistryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		s.registry[addrKey(e.Address)] = e
	}
	return nil
}

func (s *Store) WalletByAddress(ctx context.Context, address string) (model.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byAddress[addrKey(address)]
	if !ok {
		return model.Wallet{}, apperr.NotFound("wallet", address)
	}
	return s.wallets[id], nil
}

func (s *Store) WalletsByCustomer(ctx context.Context, customerID string) ([]model.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Wallet{}
	for _, w := range s.wallets {
		if w.CustomerID == customerID {
			out = append(out, w)
		}
	}
	sortWallets(out)
	return out, nil
}

func (s *Store) AttachEnrichment(ctx context.Context, walletID string, e model.Enrichment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[walletID]
	if !ok {
		return apperr.NotFound("wallet", walletID)
	}

	at := e.EnrichedAt
	score := e.CompositeRisk
	w.CompositeRisk = &score
	w.MarketData = e.Market
	w.ChainData = e.Chain
	w.MarketEnrichedAt = nil
	if e.Market != nil {
		w.MarketEnrichedAt = &at
	}
	w.ChainEnrichedAt = nil
	if e.Chain != nil {
		w.ChainEnrichedAt = &at
	}
	w.LastEnriched = &at
	s.wallets[walletID] = w
	return nil
}

func (s *Store) Customer(ctx context.Context, id string) (model.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.customers[id]
	if !ok {
		return model.Customer{}, apperr.NotFound("customer", id)
	}
	return c, nil
}

func (s *Store) CustomerBySAID(ctx context.Context, saID string) (model.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.customers {
		if c.SAID == saID {
			return c, nil
		}
	}
	return model.Customer{}, apperr.NotFound("customer", saID)
}

func (s *Store) SearchCustomers(ctx context.Context, text string, limit int) ([]model.Customer, error) {
	needle := strings.ToLower(strings.TrimSpace(text))
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Customer{}
	for _, c := range s.customers {
		hay := strings.ToLower(strings.Join([]string{c.FirstName, c.LastName, c.Email, c.SAID}, " "))
		if strings.Contains(hay, needle) {
			out = append(out, c)
		}
	}
	sortCustomers(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		out = append(out, c)
	}
	sortCustomers(out)
	return out, nil
}

func (s *Store) Wallets(ctx context.Context) ([]model.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Wallet, 0, len(s.wallets))
	for _, w := range s.wallets {
		out = append(out, w)
	}
	sortWallets(out)
	return out, nil
}

func (s *Store) TransactionsFrom(ctx context.Context, address string) ([]model.Transaction, error) {
	key := addrKey(address)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Transaction{}
	for _, tx := range s.transactions {
		if addrKey(tx.FromAddress) == key {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].Hash < out[j].Hash
	})
	return out, nil
}

func (s *Store) RegistryEntry(ctx context.Context, address string) (model.RiskRegistryEntry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.registry[addrKey(address)]
	return e, ok, nil
}

func sortWallets(ws []model.Wallet) {
	sort.Slice(ws, func(i, j int) bool { return ws[i].ID < ws[j].ID })
}

func sortCustomers(cs []model.Customer) {
	sort.Slice(cs, func(i, j int) bool { return cs[i].ID < cs[j].ID })
}
