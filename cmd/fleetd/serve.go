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

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/fleetd/internal/app"
	"github.com/rpggio/fleetd/internal/config"
	"github.com/rpggio/fleetd/internal/docstore"
	"github.com/rpggio/fleetd/internal/mcp"
	"github.com/rpggio/fleetd/internal/metrics"
	"github.com/rpggio/fleetd/internal/tenant"
	"github.com/rpggio/fleetd/internal/transport"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve JSON-RPC and MCP over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.Transport.Mode == "stdio" {
			return runStdio(cfg)
		}
		return runHTTP(cfg)
	},
}

var stdioCmd = &cobra.Command{
	Use:   "stdio",
	Short: "Serve MCP over stdin/stdout (auth disabled)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		cfg.Transport.Mode = "stdio"
		return runStdio(cfg)
	},
}

type stack struct {
	logger   *slog.Logger
	db       docstore.Store
	handler  *mcp.Handler
	resolver tenant.Resolver
	closers  []func() error
}

func (r *stack) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		_ = r.closers[i]()
	}
}

func setup(cfg config.Config) (*stack, error) {
	logger, logCloser, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	rt := &stack{logger: logger, closers: []func() error{logCloser.Close}}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := app.OpenStore(ctx, cfg.Store)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}
	rt.db = db
	rt.closers = append(rt.closers, db.Close)
	rt.handler = app.NewHandler(db, logger)

	var resolver tenant.Resolver = tenant.NewAPIKeyResolver(db)
	if cfg.Auth.Enabled && cfg.Auth.RedisURL != "" {
		cache, err := tenant.NewRedisCache(cfg.Auth.RedisURL, resolver, cfg.Auth.CacheTTL, logger)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.closers = append(rt.closers, cache.Close)
		resolver = cache
	}
	rt.resolver = resolver

	logger.Info("store ready", "driver", cfg.Store.Driver)
	return rt, nil
}

func newMCPServer(cfg config.Config, rt *stack) *sdkmcp.Server {
	return mcp.NewServer(mcp.Config{
		Handler:       rt.handler,
		Resolver:      rt.resolver,
		AuthEnabled:   cfg.Auth.Enabled,
		DefaultTenant: cfg.Auth.DefaultTenant,
		TransportMode: cfg.Transport.Mode,
		Version:       Version,
		Logger:        rt.logger,
	})
}

func runStdio(cfg config.Config) error {
	rt, err := setup(cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	rt.logger.Info("starting stdio transport", "auth", "disabled")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Run blocks until stdin closes or context is canceled
	if err := newMCPServer(cfg, rt).Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server: %w", err)
	}
	return nil
}

func runHTTP(cfg config.Config) error {
	rt, err := setup(cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	mcpServer := newMCPServer(cfg, rt)
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(r *http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{
			SessionTimeout: 30 * time.Minute,
		},
	)

	auth := transport.StaticTenantMiddleware(cfg.Auth.DefaultTenant)
	if cfg.Auth.Enabled {
		auth = transport.AuthMiddleware(rt.resolver)
	}
	opts := transport.Options{
		Handler: rt.handler,
		Auth:    auth,
		MCP:     mcpHandler,
		Logger:  rt.logger,
	}
	if cfg.Metrics.Enabled {
		opts.Metrics = metrics.Handler()
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           transport.NewServer(opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		rt.logger.Info("server listening", "addr", addr, "auth", cfg.Auth.Enabled)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	return waitForShutdown(rt.logger, httpServer, errCh)
}

func waitForShutdown(logger *slog.Logger, server *http.Server, errCh <-chan error) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
