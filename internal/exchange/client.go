// Package exchange adapts an exchange's public market summary and private account
// endpoints into market snapshots.
package exchange

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"riskScope/internal/apperr"
	"riskScope/internal/httpclient"
	"riskScope/internal/model"
	"riskScope/internal/signing"
)

// Config describes the exchange endpoints.
type Config struct {
	Name         string
	BaseURL      string
	TickersPath  string
	AccountsPath string
	Quote        string
}

// Client is the market data adapter for one exchange.
type Client struct {
	cfg    Config
	http   *httpclient.Client
	signer *signing.Signer
	logger *zap.Logger
	now    func() time.Time
}

func NewClient(cfg Config, httpClient *httpclient.Client, signer *signing.Signer, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TickersPath == "" {
		cfg.TickersPath = "/tickers"
	}
	if cfg.AccountsPath == "" {
		cfg.AccountsPath = "/accounts"
	}
	if cfg.Quote == "" {
		cfg.Quote = "ZAR"
	}
	cfg.Quote = strings.ToUpper(cfg.Quote)
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg:    cfg,
		http:   httpClient,
		signer: signer,
		logger: logger.With(zap.String("exchange", cfg.Name)),
		now:    time.Now,
	}
}

func (c *Client) Name() string  { return c.cfg.Name }
func (c *Client) Quote() string { return c.cfg.Quote }

// GetPublicTickers returns every pair on the venue. Timeouts and non-2xx replies
// are reported as transient errors.
func (c *Client) GetPublicTickers(ctx context.Context) ([]model.TickerEntry, error) {
	body, err := c.http.Get(ctx, c.cfg.BaseURL+c.cfg.TickersPath)
	if err != nil {
		return nil, fmt.Errorf("get tickers: %w", err)
	}
	tickers, err := decodeTickers(body)
	if err != nil {
		return nil, fmt.Errorf("get tickers: %w", err)
	}
	return tickers, nil
}

// GetAccountBalances returns the signed-in account's balances. Balances are best
// effort: any failure, including rejected credentials, is logged and yields nil.
func (c *Client) GetAccountBalances(ctx context.Context) []model.Balance {
	if !c.signer.HasCredentials() {
		c.logger.Debug("exchange credentials not configured, skipping balances")
		return nil
	}

	path := c.cfg.AccountsPath
	body, err := c.http.GetWithHeaders(ctx, c.cfg.BaseURL+path, func() http.Header {
		return c.signer.Sign("GET", path, nil)
	})
	if err != nil {
		var se *apperr.StatusError
		if errors.As(err, &se) && se.IsAuth() {
			c.logger.Error("exchange credentials rejected", zap.Int("status", se.Code))
			return nil
		}
		c.logger.Warn("get account balances", zap.Error(err))
		return nil
	}

	balances, err := decodeBalances(body)
	if err != nil {
		c.logger.Warn("decode account balances", zap.Error(err))
		return nil
	}
	return balances
}

// Snapshot fetches tickers and balances concurrently and keeps only the pairs
// relevant to profile and holdings. It fails only when the ticker feed fails.
func (c *Client) Snapshot(ctx context.Context, profile string, holdings map[string]decimal.Decimal) (*model.MarketSnapshot, error) {
	var (
		tickers  []model.TickerEntry
		balances []model.Balance
	)

	var g errgroup.Group
	g.Go(func() error {
		var err error
		tickers, err = c.GetPublicTickers(ctx)
		return err
	})
	g.Go(func() error {
		balances = c.GetAccountBalances(ctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	filtered := FilterRelevant(tickers, profile, c.cfg.Quote, holdings)
	c.logger.Debug("market snapshot",
		zap.String("profile", profile),
		zap.Int("tickers", len(tickers)),
		zap.Int("relevant", len(filtered)),
		zap.Int("balances", len(balances)),
	)

	return &model.MarketSnapshot{
		Exchange: c.cfg.Name,
		AsOf:     c.now().UTC(),
		Tickers:  filtered,
		Balances: balances,
	}, nil
}
