package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"riskScope/internal/api"
	"riskScope/internal/config"
	"riskScope/internal/service"
	"riskScope/internal/storage/postgres"
)

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signalContext()
	defer stop()

	a, err := newApp(ctx, cfg, logger, true)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           api.NewRouter(&api.Config{Service: a.service, Uploader: a.uploader, Logger: logger}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api listening",
			zap.String("listen", cfg.Listen),
			zap.String("store", cfg.Store),
			zap.String("exchange", cfg.Exchange.Name),
			zap.Bool("rpc_fallback", a.chain != nil),
			zap.Int("kafka_brokers", len(cfg.KafkaBrokers)),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("api shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runEnrich(cmd *cobra.Command, _ []string) error {
	address, _ := cmd.Flags().GetString("address")
	customerID, _ := cmd.Flags().GetString("customer")
	profile, _ := cmd.Flags().GetString("profile")
	if (address == "") == (customerID == "") {
		return fmt.Errorf("exactly one of --address or --customer is required")
	}

	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signalContext()
	defer stop()

	a, err := newApp(ctx, cfg, logger, true)
	if err != nil {
		return err
	}
	defer a.Close()

	if address != "" {
		res, err := a.service.EnrichWallet(ctx, address, profile, nil)
		if err != nil {
			return err
		}
		return printJSON(res)
	}
	res, err := a.service.EnrichCustomer(ctx, customerID)
	if err != nil {
		return err
	}
	return printJSON(res)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signalContext()
	defer stop()

	a, err := newApp(ctx, cfg, logger, false)
	if err != nil {
		return err
	}
	defer a.Close()

	for _, path := range args {
		doc, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		sum, err := a.loader.LoadXML(ctx, doc)
		if err != nil {
			return fmt.Errorf("ingest %s: %w", path, err)
		}
		logger.Info("report ingested",
			zap.String("file", path),
			zap.String("vasp", sum.VASPID),
			zap.Int("loaded", sum.Loaded),
			zap.Int("skipped", len(sum.Skipped)),
		)
		if err := printJSON(sum); err != nil {
			return err
		}
	}
	return nil
}

func runReport(cmd *cobra.Command, _ []string) error {
	customerID, _ := cmd.Flags().GetString("customer")
	investigator, _ := cmd.Flags().GetString("investigator")

	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signalContext()
	defer stop()

	a, err := newApp(ctx, cfg, logger, false)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.service.Report(ctx, service.ReportRequest{CustomerID: customerID, InvestigatorName: investigator})
	if err != nil {
		return err
	}
	return printJSON(res)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Store != config.StorePostgres {
		return fmt.Errorf("migrate requires --store=%s", config.StorePostgres)
	}

	ctx, stop := signalContext()
	defer stop()

	st, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return err
	}
	logger.Info("schema migrated", zap.String("dsn", cfg.RedactedDSN()))
	return nil
}
