package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"riskScope/internal/config"
)

func main() {
	root := &cobra.Command{
		Use:          "riskscope",
		Short:        "Wallet enrichment and risk scoring for compliance investigations",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("store", config.StoreMemory, "record store (postgres, memory)")
	root.PersistentFlags().String("pg-dsn", "", "Postgres DSN")
	root.PersistentFlags().String("blob-dir", "./data/blobs", "directory for uploads and reports")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the investigator API",
		RunE:  runServe,
	}
	serveCmd.Flags().String("listen", ":8080", "HTTP listen address")
	addProviderFlags(serveCmd)
	root.AddCommand(serveCmd)

	enrichCmd := &cobra.Command{
		Use:   "enrich",
		Short: "Enrich one wallet or every wallet of a customer",
		RunE:  runEnrich,
	}
	enrichCmd.Flags().String("address", "", "wallet address")
	enrichCmd.Flags().String("customer", "", "customer id")
	enrichCmd.Flags().String("profile", "", "customer profile override for --address")
	addProviderFlags(enrichCmd)
	root.AddCommand(enrichCmd)

	ingestCmd := &cobra.Command{
		Use:   "ingest [file.xml ...]",
		Short: "Load travel-rule XML reports into the record store",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runIngest,
	}
	root.AddCommand(ingestCmd)

	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Generate a customer compliance report",
		RunE:  runReport,
	}
	reportCmd.Flags().String("customer", "", "customer id")
	reportCmd.Flags().String("investigator", "", "investigator name")
	root.AddCommand(reportCmd)

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the Postgres schema",
		RunE:  runMigrate,
	}
	root.AddCommand(migrateCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addProviderFlags(cmd *cobra.Command) {
	cmd.Flags().String("exchange-url", "https://api.luno.com/api/1", "exchange API base URL")
	cmd.Flags().String("exchange-key", "", "exchange API key")
	cmd.Flags().String("exchange-secret", "", "exchange API secret")
	cmd.Flags().String("exchange-quote", "ZAR", "quote currency")
	cmd.Flags().String("explorer-url", "https://api.etherscan.io/api", "block explorer API URL")
	cmd.Flags().String("explorer-key", "", "block explorer API key")
	cmd.Flags().String("rpc-url", "", "Ethereum RPC URL used as balance fallback")
	cmd.Flags().Duration("request-timeout", 8*time.Second, "per provider call timeout")
	cmd.Flags().Float64("provider-rate", 0, "provider requests per second (0 is unlimited)")
	cmd.Flags().Int("max-retries", 1, "maximum retry attempts")
	cmd.Flags().Duration("retry-backoff", 250*time.Millisecond, "initial retry backoff")
	cmd.Flags().Int("concurrency", 4, "wallets enriched concurrently per customer")
	cmd.Flags().StringSlice("kafka-brokers", nil, "Kafka brokers for enrichment events (comma-separated)")
	cmd.Flags().String("kafka-topic", "", "Kafka topic for enrichment events")
}

func setup(cmd *cobra.Command) (config.Config, *zap.Logger, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
