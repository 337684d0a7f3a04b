package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"riskScope/internal/blob"
	"riskScope/internal/chain"
	"riskScope/internal/config"
	"riskScope/internal/enrich"
	"riskScope/internal/events"
	"riskScope/internal/exchange"
	"riskScope/internal/explorer"
	"riskScope/internal/httpclient"
	"riskScope/internal/ingest"
	"riskScope/internal/service"
	"riskScope/internal/signing"
	"riskScope/internal/storage"
	"riskScope/internal/storage/memory"
	"riskScope/internal/storage/postgres"
)

type app struct {
	store     storage.Store
	blobs     *blob.FileStore
	service   *service.Service
	loader    *ingest.Loader
	uploader  *ingest.Uploader
	publisher events.Publisher
	chain     *chain.Client
	logger    *zap.Logger
}

func (a *app) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("close publisher", zap.Error(err))
		}
	}
	if a.chain != nil {
		a.chain.Close()
	}
	if a.store != nil {
		a.store.Close()
	}
}

func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (storage.Store, error) {
	if cfg.Store != config.StorePostgres {
		logger.Info("using in-memory record store")
		return memory.NewStore(), nil
	}
	st, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	logger.Info("postgres record store ready", zap.String("dsn", cfg.RedactedDSN()))
	return st, nil
}

// newApp wires the record store, providers and use cases. withProviders=false
// leaves the market and chain sources out for commands that never enrich.
func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger, withProviders bool) (*app, error) {
	a := &app{logger: logger}

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.store = store
	a.blobs = blob.NewFileStore(cfg.BlobDir)
	a.loader = ingest.NewLoader(store, logger)
	a.uploader = ingest.NewUploader(a.blobs, a.loader)

	var (
		market   enrich.MarketSource
		chainSrc enrich.ChainSource
		tickers  service.TickerSource
	)
	if withProviders {
		ex := newExchange(cfg, logger)
		market, tickers = ex, ex

		var fallback explorer.BalanceSource
		if cfg.RPCURL != "" {
			if rpc, err := dialRPC(ctx, cfg, logger); err != nil {
				logger.Warn("rpc balance fallback disabled", zap.Error(err))
			} else {
				a.chain = rpc
				fallback = rpc
			}
		}
		chainSrc = explorer.NewClient(explorer.Config{
			BaseURL:         cfg.Explorer.URL,
			APIKey:          cfg.Explorer.Key,
			MaxTransactions: cfg.Explorer.MaxTransactions,
			AnalysisWindow:  cfg.Explorer.AnalysisWindow,
		}, newHTTPClient(cfg, "explorer", logger), fallback, logger)
	}

	a.publisher = events.New(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
	orch := enrich.NewOrchestrator(market, chainSrc, store, a.publisher, enrich.Config{
		CallTimeout: cfg.RequestTimeout,
		Concurrency: cfg.Concurrency,
	}, logger)
	a.service = service.New(store, orch, tickers, a.blobs, logger)
	return a, nil
}

// dialRPC connects to the balance fallback node and checks that it answers.
func dialRPC(ctx context.Context, cfg config.Config, logger *zap.Logger) (*chain.Client, error) {
	rpc, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return nil, err
	}
	checkCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	defer cancel()
	id, err := rpc.ChainID(checkCtx)
	if err != nil {
		rpc.Close()
		return nil, err
	}
	logger.Info("rpc connected", zap.String("chain_id", id.String()))
	return rpc, nil
}

func newHTTPClient(cfg config.Config, name string, logger *zap.Logger) *httpclient.Client {
	return httpclient.New(httpclient.Config{
		Name:          name,
		Timeout:       cfg.RequestTimeout,
		RatePerSecond: cfg.ProviderRate,
		MaxRetries:    cfg.MaxRetries,
		RetryBackoff:  cfg.RetryBackoff,
	}, logger)
}

func newExchange(cfg config.Config, logger *zap.Logger) *exchange.Client {
	ec := cfg.Exchange
	signer := signing.NewSigner(ec.Key, ec.Secret, signing.ParseAlgorithm(ec.Hash), signing.HeaderNames{
		Key:       ec.KeyHeader,
		Signature: ec.SignatureHeader,
		Timestamp: ec.TimestampHeader,
	})
	return exchange.NewClient(exchange.Config{
		Name:         ec.Name,
		BaseURL:      ec.URL,
		AccountsPath: ec.AccountsPath,
		Quote:        ec.Quote,
	}, newHTTPClient(cfg, "exchange", logger), signer, logger)
}
