package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Store backends.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type ExchangeConfig struct {
	Name            string
	URL             string
	Key             string
	Secret          string
	Hash            string
	Quote           string
	KeyHeader       string
	SignatureHeader string
	TimestampHeader string
	AccountsPath    string
}

type ExplorerConfig struct {
	URL             string
	Key             string
	MaxTransactions int
	AnalysisWindow  int
}

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	LogLevel string
	Listen   string
	Store    string
	PGDSN    string
	BlobDir  string

	Exchange ExchangeConfig
	Explorer ExplorerConfig
	RPCURL   string

	RequestTimeout time.Duration
	ProviderRate   float64
	MaxRetries     int
	RetryBackoff   time.Duration
	Concurrency    int

	KafkaBrokers []string
	KafkaTopic   string
}

// Load merges .env, config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("RISKSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("log-level", "info")
	v.SetDefault("listen", ":8080")
	v.SetDefault("store", StoreMemory)
	v.SetDefault("blob-dir", "./data/blobs")
	v.SetDefault("exchange-name", "Luno")
	v.SetDefault("exchange-url", "https://api.luno.com/api/1")
	v.SetDefault("exchange-hash", "sha512")
	v.SetDefault("exchange-quote", "ZAR")
	v.SetDefault("exchange-accounts-path", "/balance")
	v.SetDefault("explorer-url", "https://api.etherscan.io/api")
	v.SetDefault("explorer-max-transactions", 20)
	v.SetDefault("explorer-analysis-window", 100)
	v.SetDefault("request-timeout", 8*time.Second)
	v.SetDefault("max-retries", 1)
	v.SetDefault("retry-backoff", 250*time.Millisecond)
	v.SetDefault("concurrency", 4)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		LogLevel: v.GetString("log-level"),
		Listen:   v.GetString("listen"),
		Store:    strings.ToLower(v.GetString("store")),
		PGDSN:    v.GetString("pg-dsn"),
		BlobDir:  v.GetString("blob-dir"),
		Exchange: ExchangeConfig{
			Name:            v.GetString("exchange-name"),
			URL:             v.GetString("exchange-url"),
			Key:             v.GetString("exchange-key"),
			Secret:          v.GetString("exchange-secret"),
			Hash:            v.GetString("exchange-hash"),
			Quote:           strings.ToUpper(v.GetString("exchange-quote")),
			KeyHeader:       v.GetString("exchange-key-header"),
			SignatureHeader: v.GetString("exchange-signature-header"),
			TimestampHeader: v.GetString("exchange-timestamp-header"),
			AccountsPath:    v.GetString("exchange-accounts-path"),
		},
		Explorer: ExplorerConfig{
			URL:             v.GetString("explorer-url"),
			Key:             v.GetString("explorer-key"),
			MaxTransactions: v.GetInt("explorer-max-transactions"),
			AnalysisWindow:  v.GetInt("explorer-analysis-window"),
		},
		RPCURL:         v.GetString("rpc-url"),
		RequestTimeout: v.GetDuration("request-timeout"),
		ProviderRate:   v.GetFloat64("provider-rate"),
		MaxRetries:     v.GetInt("max-retries"),
		RetryBackoff:   v.GetDuration("retry-backoff"),
		Concurrency:    v.GetInt("concurrency"),
		KafkaBrokers:   getStringSlice(v, "kafka-brokers"),
		KafkaTopic:     v.GetString("kafka-topic"),
	}

	return cfg, cfg.Validate()
}

// Validate checks combinations viper cannot express as defaults.
func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory:
	case StorePostgres:
		if c.PGDSN == "" {
			return fmt.Errorf("pg-dsn is required for store %q", c.Store)
		}
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}
	if c.Explorer.AnalysisWindow < c.Explorer.MaxTransactions {
		return fmt.Errorf("explorer-analysis-window %d is below explorer-max-transactions %d", c.Explorer.AnalysisWindow, c.Explorer.MaxTransactions)
	}
	return nil
}

// RedactedDSN hides the password of a postgres DSN for logging.
func (c Config) RedactedDSN() string {
	dsn := c.PGDSN
	at := strings.LastIndex(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return dsn
	}
	creds := dsn[scheme+3 : at]
	if i := strings.Index(creds, ":"); i >= 0 {
		return dsn[:scheme+3] + creds[:i] + ":***" + dsn[at:]
	}
	return dsn
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
