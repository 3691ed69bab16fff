package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/wealth-query-agent/internal/config"
	"github.com/wealth-query-agent/internal/jsonx"
	"go.uber.org/zap"
)

const minQueryLength = 3

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "wealthquery",
		Short:         "wealthquery - natural-language queries over client portfolios",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to YAML config file")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath)
		},
	}

	askCmd := &cobra.Command{
		Use:   "ask <query>",
		Short: "Answer one query and print the result as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, configPath, strings.Join(args, " "))
		},
	}

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert the sample data set into empty stores",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, configPath)
		},
	}

	root.AddCommand(serveCmd, askCmd, seedCmd)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// setup loads configuration, builds the logger and wires the application
func setup(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := newLogger(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	return a, nil
}

func runServe(cmd *cobra.Command, configPath string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := setup(ctx, configPath)
	if err != nil {
		return err
	}
	defer a.logger.Sync()
	defer a.Close()

	srv := &http.Server{
		Addr:         a.cfg.Server.Addr(),
		Handler:      a.server().Handler(a.cfg.Server.AllowedOrigins),
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Query API listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server startup failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down query API...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("API shutdown error", zap.Error(err))
	}

	requests, fallbacks, hits := a.classifier.Stats()
	a.logger.Info("Classifier totals",
		zap.Int64("requests", requests),
		zap.Int64("fallbacks", fallbacks),
		zap.Int64("cache_hits", hits))
	return nil
}

func runAsk(cmd *cobra.Command, configPath, q string) error {
	q = strings.TrimSpace(q)
	if len(q) < minQueryLength {
		return fmt.Errorf("query must be at least %d characters long", minQueryLength)
	}

	a, err := setup(cmd.Context(), configPath)
	if err != nil {
		return err
	}
	defer a.logger.Sync()
	defer a.Close()

	res := a.processor.Process(cmd.Context(), q)
	out, err := jsonx.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

func runSeed(cmd *cobra.Command, configPath string) error {
	a, err := setup(cmd.Context(), configPath)
	if err != nil {
		return err
	}
	defer a.logger.Sync()
	defer a.Close()

	profiles, transactions, err := a.seed(cmd.Context())
	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d profiles and %d transactions\n", profiles, transactions)
	return err
}
