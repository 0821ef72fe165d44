package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Lixing-Zhang/food-ordering/internal/config"
	"github.com/Lixing-Zhang/food-ordering/internal/seed"
	"github.com/Lixing-Zhang/food-ordering/internal/server"
	"github.com/Lixing-Zhang/food-ordering/pkg/logger"
)

var cfgFile string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "foodorder",
		Short:         "Food ordering API server",
		Long:          `foodorder serves the customer ordering, checkout and restaurant owner APIs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, json or toml); environment variables override it")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP server (default)",
			RunE:  runServe,
		},
		newSeedCmd(),
		&cobra.Command{
			Use:   "reconcile-loyalty",
			Short: "Credit loyalty points for orders whose credit failed at checkout",
			RunE:  runReconcile,
		},
	)
	return root
}

// errEphemeralStore is returned by commands whose writes would be lost with
// the process
var errEphemeralStore = errors.New("the configured store does not outlive this command; set STORE_DRIVER to a persistent backend")

// setup loads configuration, builds the logger and opens the backends.
// When durable is set it refuses stores that only live in memory.
func setup(ctx context.Context, durable bool) (*config.Config, *slog.Logger, *server.App, func(), error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if durable && cfg.EphemeralStore() {
		return nil, nil, nil, nil, fmt.Errorf("%s store: %w", cfg.Store.Driver, errEphemeralStore)
	}

	log := logger.NewWithFormat(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	slog.SetDefault(log)

	backends, err := server.OpenBackends(ctx, cfg, log)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	cleanup := func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := backends.Close(closeCtx); err != nil {
			log.Error("failed to close backends", "error", err)
		}
	}

	app, err := server.New(cfg, backends, log)
	if err != nil {
		cleanup()
		return nil, nil, nil, nil, err
	}
	return cfg, log, app, cleanup, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, log, app, cleanup, err := setup(ctx, false)
	if err != nil {
		return err
	}
	defer cleanup()

	log.Info("starting food ordering api server",
		"port", cfg.Server.Port,
		"host", cfg.Server.Host,
		"store", cfg.Store.Driver,
		"owner_order_scope", cfg.Owner.OrderScope,
		"log_level", cfg.LogLevel,
	)
	if cfg.UsesDefaultSecret() {
		log.Warn("JWT_SECRET is not set; using the development secret")
	}

	if err := app.Start(ctx); err != nil {
		return err
	}

	// Create HTTP server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      app.Router(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

func newSeedCmd() *cobra.Command {
	opts := seed.DefaultOptions()
	var allowEphemeral bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create demo restaurants, menus and customers",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, app, cleanup, err := setup(cmd.Context(), !allowEphemeral)
			if err != nil {
				return err
			}
			defer cleanup()

			summary, err := seed.New(app.Auth, app.Menu, app.Profile, log).Run(cmd.Context(), opts)
			if err != nil {
				return err
			}
			for _, acc := range summary.Accounts {
				fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s\n", acc.Role, acc.Email)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&opts.Owners, "owners", opts.Owners, "number of restaurant owners")
	cmd.Flags().IntVar(&opts.ItemsPerRestaurant, "items", opts.ItemsPerRestaurant, "menu items per restaurant")
	cmd.Flags().IntVar(&opts.Customers, "customers", opts.Customers, "number of customers")
	cmd.Flags().StringVar(&opts.Password, "password", opts.Password, "password for every generated account")
	cmd.Flags().Int64Var(&opts.Seed, "seed", opts.Seed, "random seed")
	cmd.Flags().BoolVar(&allowEphemeral, "allow-ephemeral", false, "seed an in-memory store anyway; the data is discarded on exit")
	return cmd
}

func runReconcile(cmd *cobra.Command, args []string) error {
	_, log, app, cleanup, err := setup(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer cleanup()

	credited, err := app.Checkout.ReconcileLoyalty(cmd.Context())
	if err != nil {
		return fmt.Errorf("reconcile loyalty points: %w", err)
	}
	log.Info("loyalty reconciliation finished", "orders_credited", credited)
	fmt.Fprintf(cmd.OutOrStdout(), "credited %d orders\n", credited)
	return nil
}
