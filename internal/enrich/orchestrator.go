// Package enrich runs the market and chain adapters for wallets, composes the
// risk score and persists the result.
package enrich

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"riskScope/internal/apperr"
	"riskScope/internal/events"
	"riskScope/internal/model"
	"riskScope/internal/risk"
	"riskScope/internal/storage"
)

// MarketSource produces a market snapshot relevant to a profile and its holdings.
type MarketSource interface {
	Snapshot(ctx context.Context, profile string, holdings map[string]decimal.Decimal) (*model.MarketSnapshot, error)
}

// ChainSource produces the on-chain snapshot of an address.
type ChainSource interface {
	Snapshot(ctx context.Context, address string) (*model.ChainSnapshot, error)
}

type Config struct {
	// CallTimeout bounds each provider call and each event publish.
	CallTimeout time.Duration
	// Concurrency bounds how many wallets of one batch are enriched at once.
	Concurrency int
}

// Orchestrator enriches wallets. Either source may be nil, in which case its
// contribution is skipped.
type Orchestrator struct {
	market    MarketSource
	chain     ChainSource
	store     storage.WalletStore
	publisher events.Publisher
	cfg       Config
	logger    *zap.Logger
	now       func() time.Time
}

func NewOrchestrator(market MarketSource, chain ChainSource, store storage.WalletStore, publisher events.Publisher, cfg Config, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 8 * time.Second
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &Orchestrator{
		market:    market,
		chain:     chain,
		store:     store,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// EnrichWallet enriches the stored wallet at address. An empty profile is derived
// from the owning customer. Provider failures only zero their contribution; the
// returned error is limited to validation and record store failures.
func (o *Orchestrator) EnrichWallet(ctx context.Context, address, profile string, known map[string]decimal.Decimal) (model.EnrichedWallet, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return model.EnrichedWallet{}, apperr.Validation("wallet_address required")
	}
	w, err := o.store.WalletByAddress(ctx, address)
	if err != nil {
		return model.EnrichedWallet{}, err
	}
	if profile == "" {
		profile = DeriveProfile(w.CustomerID)
	}
	return o.enrich(ctx, w, profile, known)
}

// EnrichCustomerWallets enriches every wallet of a customer with bounded
// concurrency. A wallet whose enrichment fails keeps its stored state and is
// marked with the error; the batch continues.
func (o *Orchestrator) EnrichCustomerWallets(ctx context.Context, customerID string) (model.PortfolioEnrichment, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return model.PortfolioEnrichment{}, apperr.Validation("customer_id required")
	}
	wallets, err := o.store.WalletsByCustomer(ctx, customerID)
	if err != nil {
		return model.PortfolioEnrichment{}, err
	}

	profile := DeriveProfile(customerID)
	known := KnownBalances(wallets)
	results := make([]model.EnrichedWallet, len(wallets))

	var g errgroup.Group
	g.SetLimit(o.cfg.Concurrency)
	for i, w := range wallets {
		i, w := i, w
		g.Go(func() error {
			ew, err := o.enrich(ctx, w, profile, known)
			if err != nil {
				o.logger.Warn("wallet enrichment missing",
					zap.String("customer", customerID),
					zap.String("wallet", w.Address),
					zap.Error(err),
				)
				ew.Wallet = w
				ew.Breakdown = nil
				ew.Error = err.Error()
			}
			results[i] = ew
			return nil
		})
	}
	_ = g.Wait()

	out := Summarize(customerID, profile, results)
	out.EnrichedAt = o.now().UTC()
	out.MarketStatus = integrationStatus(o.market != nil, results, func(e model.EnrichedWallet) model.ProviderStatus { return e.MarketStatus })
	out.ChainStatus = integrationStatus(o.chain != nil, results, func(e model.EnrichedWallet) model.ProviderStatus { return e.ChainStatus })

	o.logger.Info("customer wallets enriched",
		zap.String("customer", customerID),
		zap.String("profile", profile),
		zap.Int("wallets", len(results)),
		zap.Float64("average_risk", out.AverageRisk),
	)
	return out, nil
}

func (o *Orchestrator) enrich(ctx context.Context, w model.Wallet, profile string, known map[string]decimal.Decimal) (model.EnrichedWallet, error) {
	var (
		market       *model.MarketSnapshot
		chain        *model.ChainSnapshot
		marketStatus = model.ProviderSkipped
		chainStatus  = model.ProviderSkipped
	)

	var g errgroup.Group
	if o.market != nil {
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(ctx, o.cfg.CallTimeout)
			defer cancel()
			snap, err := o.market.Snapshot(callCtx, profile, known)
			if err != nil {
				o.logger.Warn("market enrichment failed", zap.String("wallet", w.Address), zap.Error(err))
				marketStatus = model.ProviderFailed
				return nil
			}
			market, marketStatus = snap, model.ProviderOK
			return nil
		})
	}
	if o.chain != nil {
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(ctx, o.cfg.CallTimeout)
			defer cancel()
			snap, err := o.chain.Snapshot(callCtx, w.Address)
			if err != nil {
				o.logger.Warn("chain enrichment failed", zap.String("wallet", w.Address), zap.Error(err))
				chainStatus = model.ProviderFailed
				return nil
			}
			chain, chainStatus = snap, model.ProviderOK
			return nil
		})
	}
	_ = g.Wait()

	breakdown := risk.Breakdown(w.RiskScore, market, chain)
	at := o.now().UTC()

	ew := model.EnrichedWallet{MarketStatus: marketStatus, ChainStatus: chainStatus}
	err := o.store.AttachEnrichment(ctx, w.ID, model.Enrichment{
		Market:        market,
		Chain:         chain,
		CompositeRisk: breakdown.Total,
		EnrichedAt:    at,
	})
	if err != nil {
		return ew, err
	}

	w.MarketData = market
	w.ChainData = chain
	w.CompositeRisk = &breakdown.Total
	w.MarketEnrichedAt, w.ChainEnrichedAt = nil, nil
	if market != nil {
		w.MarketEnrichedAt = &at
	}
	if chain != nil {
		w.ChainEnrichedAt = &at
	}
	w.LastEnriched = &at
	ew.Wallet = w
	ew.Breakdown = &breakdown

	pubCtx, cancel := context.WithTimeout(ctx, o.cfg.CallTimeout)
	defer cancel()
	if err := o.publisher.PublishEnriched(pubCtx, ew); err != nil {
		o.logger.Warn("publish enrichment event", zap.String("wallet", w.Address), zap.Error(err))
	}
	return ew, nil
}

// Summarize partitions results into declared and undeclared wallets and averages
// their effective risk. An empty batch averages to zero.
func Summarize(customerID, profile string, results []model.EnrichedWallet) model.PortfolioEnrichment {
	out := model.PortfolioEnrichment{
		CustomerID: customerID,
		Profile:    profile,
		Wallets:    results,
		Declared:   []model.EnrichedWallet{},
		Undeclared: []model.EnrichedWallet{},
	}
	if out.Wallets == nil {
		out.Wallets = []model.EnrichedWallet{}
	}

	total := 0
	for _, r := range results {
		total += r.EffectiveRisk()
		if r.Declared {
			out.Declared = append(out.Declared, r)
		} else {
			out.Undeclared = append(out.Undeclared, r)
		}
	}
	if len(results) > 0 {
		out.AverageRisk = float64(total) / float64(len(results))
	}
	return out
}

func integrationStatus(configured bool, results []model.EnrichedWallet, status func(model.EnrichedWallet) model.ProviderStatus) model.IntegrationStatus {
	if !configured {
		return model.IntegrationUnavailable
	}
	var ok, failed int
	for _, r := range results {
		switch status(r) {
		case model.ProviderOK:
			ok++
		case model.ProviderFailed:
			failed++
		}
	}
	switch {
	case failed == 0:
		return model.IntegrationEnabled
	case ok == 0:
		return model.IntegrationUnavailable
	default:
		return model.IntegrationDegraded
	}
}
