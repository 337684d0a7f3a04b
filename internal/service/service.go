// Package service implements the investigator-facing use cases on top of the
// record store and the enrichment orchestrator.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"riskScope/internal/apperr"
	"riskScope/internal/model"
	"riskScope/internal/risk"
	"riskScope/internal/storage"
)

// Enricher runs wallet enrichment.
type Enricher interface {
	EnrichWallet(ctx context.Context, address, profile string, known map[string]decimal.Decimal) (model.EnrichedWallet, error)
	EnrichCustomerWallets(ctx context.Context, customerID string) (model.PortfolioEnrichment, error)
}

// TickerSource provides live prices for the dashboard.
type TickerSource interface {
	GetPublicTickers(ctx context.Context) ([]model.TickerEntry, error)
	Quote() string
}

// BlobStore keeps generated reports.
type BlobStore interface {
	Put(key string, data []byte) (string, error)
}

type Service struct {
	store    storage.Store
	enricher Enricher
	tickers  TickerSource
	blobs    BlobStore
	quote    string
	logger   *zap.Logger
	now      func() time.Time
}

// New wires the use cases. tickers may be nil, in which case the dashboard
// reports fallback prices.
func New(store storage.Store, enricher Enricher, tickers TickerSource, blobs BlobStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	quote := "ZAR"
	if tickers != nil && tickers.Quote() != "" {
		quote = strings.ToUpper(tickers.Quote())
	}
	return &Service{
		store:    store,
		enricher: enricher,
		tickers:  tickers,
		blobs:    blobs,
		quote:    quote,
		logger:   logger,
		now:      time.Now,
	}
}

// Health reports whether the record store is reachable.
func (s *Service) Health(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Search query types.
const (
	QueryWalletAddress = "wallet_address"
	QuerySAID          = "sa_id"
	QueryText          = "text"
)

type SearchRequest struct {
	Query         string `json:"query"`
	QueryType     string `json:"query_type"`
	WalletAddress string `json:"wallet_address"`
}

type SearchResult struct {
	CustomerID         string                  `json:"customer_id"`
	SAID               string                  `json:"sa_id"`
	Name               string                  `json:"name"`
	Profile            string                  `json:"customer_profile"`
	DeclaredWallets    []model.EnrichedWallet  `json:"declared_wallets"`
	UndeclaredWallets  []model.EnrichedWallet  `json:"undeclared_wallets"`
	PortfolioRiskScore int                     `json:"portfolio_risk_score"`
	RiskFlags          []model.RiskFlag        `json:"risk_flags"`
	EnrichedAt         time.Time               `json:"enriched_at"`
	MarketIntegration  model.IntegrationStatus `json:"market_integration"`
	ChainIntegration   model.IntegrationStatus `json:"chain_integration"`
}

// Search resolves a customer, enriches every wallet they own and derives risk
// flags over the enriched portfolio.
func (s *Service) Search(ctx context.Context, req SearchRequest) (SearchResult, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		query = strings.TrimSpace(req.WalletAddress)
	}
	if query == "" {
		return SearchResult{}, apperr.Validation("query or wallet_address parameter is required")
	}

	customer, err := s.resolveCustomer(ctx, query, req.QueryType)
	if err != nil {
		return SearchResult{}, err
	}

	portfolio, err := s.enricher.EnrichCustomerWallets(ctx, customer.ID)
	if err != nil {
		return SearchResult{}, err
	}

	flags, err := s.portfolioFlags(ctx, portfolio.Wallets)
	if err != nil {
		return SearchResult{}, err
	}

	return SearchResult{
		CustomerID:         customer.ID,
		SAID:               customer.SAID,
		Name:               customer.Name(),
		Profile:            portfolio.Profile,
		DeclaredWallets:    portfolio.Declared,
		UndeclaredWallets:  portfolio.Undeclared,
		PortfolioRiskScore: int(portfolio.AverageRisk),
		RiskFlags:          flags,
		EnrichedAt:         portfolio.EnrichedAt,
		MarketIntegration:  portfolio.MarketStatus,
		ChainIntegration:   portfolio.ChainStatus,
	}, nil
}

func (s *Service) resolveCustomer(ctx context.Context, query, queryType string) (model.Customer, error) {
	switch strings.ToLower(strings.TrimSpace(queryType)) {
	case "", QueryWalletAddress:
		w, err := s.store.WalletByAddress(ctx, query)
		if err != nil {
			return model.Customer{}, err
		}
		return s.store.Customer(ctx, w.CustomerID)
	case QuerySAID:
		return s.store.CustomerBySAID(ctx, query)
	case QueryText:
		found, err := s.store.SearchCustomers(ctx, query, 1)
		if err != nil {
			return model.Customer{}, err
		}
		if len(found) == 0 {
			return model.Customer{}, apperr.NotFound("customer", query)
		}
		return found[0], nil
	default:
		return model.Customer{}, apperr.Validation(fmt.Sprintf("unknown query_type %q", queryType))
	}
}

// portfolioFlags returns registry flags for transfers sent from each wallet,
// followed by the flags derived from the wallet's snapshots.
func (s *Service) portfolioFlags(ctx context.Context, wallets []model.EnrichedWallet) ([]model.RiskFlag, error) {
	flags := []model.RiskFlag{}
	for _, w := range wallets {
		txs, err := s.store.TransactionsFrom(ctx, w.Address)
		if err != nil {
			return nil, fmt.Errorf("transactions from %s: %w", w.Address, err)
		}
		for _, tx := range txs {
			entry, ok, err := s.store.RegistryEntry(ctx, tx.ToAddress)
			if err != nil {
				return nil, fmt.Errorf("risk registry %s: %w", tx.ToAddress, err)
			}
			if ok {
				flags = append(flags, risk.RegistryFlag(entry))
			}
		}
		flags = append(flags, risk.DeriveFlags(w.Wallet)...)
	}
	return flags, nil
}

// EnrichWallet enriches one wallet on demand.
func (s *Service) EnrichWallet(ctx context.Context, address, profile string, known map[string]decimal.Decimal) (model.EnrichedWallet, error) {
	return s.enricher.EnrichWallet(ctx, address, profile, known)
}

// EnrichCustomer enriches every wallet of a customer.
func (s *Service) EnrichCustomer(ctx context.Context, customerID string) (model.PortfolioEnrichment, error) {
	return s.enricher.EnrichCustomerWallets(ctx, customerID)
}

// ListCustomers returns every customer ordered by id.
func (s *Service) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	return s.store.ListCustomers(ctx)
}
