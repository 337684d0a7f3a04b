// Package explorer adapts an Etherscan-compatible block explorer into chain snapshots.
package explorer

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"riskScope/internal/apperr"
	"riskScope/internal/chain"
	"riskScope/internal/httpclient"
	"riskScope/internal/model"
)

const (
	DefaultBaseURL         = "https://api.etherscan.io/api"
	DefaultMaxTransactions = 20
	DefaultAnalysisWindow  = 100
)

type Config struct {
	BaseURL string
	APIKey  string
	// MaxTransactions bounds the transactions kept on a snapshot.
	MaxTransactions int
	// AnalysisWindow is how many recent transactions are fetched and analysed.
	AnalysisWindow int
}

// BalanceSource is a secondary balance lookup used when the explorer cannot answer.
type BalanceSource interface {
	BalanceAt(ctx context.Context, address string) (decimal.Decimal, error)
}

// Client is the chain data adapter.
type Client struct {
	cfg      Config
	http     *httpclient.Client
	fallback BalanceSource
	logger   *zap.Logger
	now      func() time.Time
}

// NewClient builds an explorer adapter. fallback may be nil.
func NewClient(cfg Config, httpClient *httpclient.Client, fallback BalanceSource, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MaxTransactions <= 0 {
		cfg.MaxTransactions = DefaultMaxTransactions
	}
	if cfg.AnalysisWindow < cfg.MaxTransactions {
		cfg.AnalysisWindow = max(DefaultAnalysisWindow, cfg.MaxTransactions)
	}
	return &Client{
		cfg:      cfg,
		http:     httpClient,
		fallback: fallback,
		logger:   logger.With(zap.String("provider", "explorer")),
		now:      time.Now,
	}
}

// GetBalance returns the address balance in ether. Provider failures and
// malformed replies fall back to the RPC source when one is configured, and to
// zero otherwise.
func (c *Client) GetBalance(ctx context.Context, address string) decimal.Decimal {
	bal, _ := c.balance(ctx, address)
	return bal
}

func (c *Client) balance(ctx context.Context, address string) (decimal.Decimal, error) {
	bal, err := c.fetchBalance(ctx, address)
	if err == nil {
		return bal, nil
	}
	c.logger.Warn("explorer balance", zap.String("address", address), zap.Error(err))

	if c.fallback == nil || !chain.IsAddress(address) {
		return decimal.Zero, err
	}
	bal, ferr := c.fallback.BalanceAt(ctx, address)
	if ferr != nil {
		c.logger.Warn("rpc balance fallback", zap.String("address", address), zap.Error(ferr))
		return decimal.Zero, err
	}
	return bal, nil
}

func (c *Client) fetchBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	body, err := c.http.Get(ctx, c.endpoint(url.Values{
		"module":  {"account"},
		"action":  {"balance"},
		"address": {address},
		"tag":     {"latest"},
	}))
	if err != nil {
		return decimal.Zero, err
	}
	return decodeBalance(body)
}

// GetTransactions returns up to limit transactions, newest first. Errors and
// missing results yield an empty list.
func (c *Client) GetTransactions(ctx context.Context, address string, limit int) []model.ChainTransaction {
	txs, _ := c.transactions(ctx, address, limit)
	return txs
}

func (c *Client) transactions(ctx context.Context, address string, limit int) ([]model.ChainTransaction, error) {
	if limit <= 0 {
		limit = c.cfg.MaxTransactions
	}
	body, err := c.http.Get(ctx, c.endpoint(url.Values{
		"module":     {"account"},
		"action":     {"txlist"},
		"address":    {address},
		"startblock": {"0"},
		"endblock":   {"99999999"},
		"page":       {"1"},
		"offset":     {strconv.Itoa(limit)},
		"sort":       {"desc"},
	}))
	if err != nil {
		c.logger.Warn("explorer transactions", zap.String("address", address), zap.Error(err))
		return []model.ChainTransaction{}, err
	}

	txs, err := decodeTransactions(body)
	if err != nil {
		c.logger.Warn("decode transactions", zap.String("address", address), zap.Error(err))
		return []model.ChainTransaction{}, err
	}
	if len(txs) > limit {
		txs = txs[:limit]
	}
	return txs, nil
}

// Snapshot fetches balance and transaction history concurrently and derives the
// risk indicators over the analysis window. It fails only when the explorer was
// unreachable for both calls and no fallback balance was available; any other
// degradation yields a snapshot with zero or empty fields.
func (c *Client) Snapshot(ctx context.Context, address string) (*model.ChainSnapshot, error) {
	var (
		wg     sync.WaitGroup
		bal    decimal.Decimal
		balErr error
		txs    []model.ChainTransaction
		txErr  error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		bal, balErr = c.balance(ctx, address)
	}()
	go func() {
		defer wg.Done()
		txs, txErr = c.transactions(ctx, address, c.cfg.AnalysisWindow)
	}()
	wg.Wait()

	if errors.Is(balErr, apperr.ErrTransient) && errors.Is(txErr, apperr.ErrTransient) {
		return nil, errors.Join(balErr, txErr)
	}

	indicators := Analyze(txs)
	kept := txs
	if len(kept) > c.cfg.MaxTransactions {
		kept = kept[:c.cfg.MaxTransactions]
	}

	return &model.ChainSnapshot{
		Address:          address,
		Balance:          bal,
		TransactionCount: len(txs),
		Transactions:     kept,
		Indicators:       indicators,
		AsOf:             c.now().UTC(),
	}, nil
}

func (c *Client) endpoint(params url.Values) string {
	if c.cfg.APIKey != "" {
		params.Set("apikey", c.cfg.APIKey)
	}
	sep := "?"
	if strings.Contains(c.cfg.BaseURL, "?") {
		sep = "&"
	}
	return c.cfg.BaseURL + sep + params.Encode()
}
