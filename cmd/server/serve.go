package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hazyhaar/rebeauty/pkg/api"
	"github.com/hazyhaar/rebeauty/pkg/chassis"
	"github.com/hazyhaar/rebeauty/pkg/search"
	"github.com/hazyhaar/rebeauty/pkg/store"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"
)

func cmdServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	e := setup(fs, args)
	defer e.close()
	logger := e.logger
	if err := e.cfg.checkExposure(); err != nil {
		logger.Error("refusing to start", "error", err)
		os.Exit(1)
	}

	cache, err := store.Open(filepath.Join(e.cfg.DataDir, "cache.db"))
	if err != nil {
		logger.Error("failed to open customer cache", "error", err)
		os.Exit(1)
	}
	defer cache.Close()

	sess := e.session()
	if !sess.LoggedIn() {
		logger.Warn("no session: customer sync will fail until `rebeauty login` is run")
	}
	apiClient := e.client(sess)

	ix := search.NewIndex(e.cfg.Search.Normalize)
	refresher := store.NewRefresher(apiClient, cache, ix, logger, e.cfg.Sync.Interval)

	deps := api.Deps{
		Index:          ix,
		Sync:           cache,
		Logger:         logger,
		Token:          e.cfg.Console.Token,
		AllowedOrigins: e.cfg.Console.AllowedOrigins,
	}
	var mcpSrv *server.MCPServer
	if e.cfg.MCP.Enabled {
		mcpSrv = api.NewMCPServer(deps, version)
	}
	srv, err := chassis.New(chassis.Config{
		Addr:      e.cfg.Addr,
		CertFile:  e.cfg.TLS.CertFile,
		KeyFile:   e.cfg.TLS.KeyFile,
		Handler:   api.NewRouter(deps),
		MCPServer: mcpSrv,
		MCPToken:  e.cfg.Console.Token,
		Logger:    logger,
	})
	if err != nil {
		logger.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	// SIGHUP: resync the customer cache now.
	// SIGINT/SIGTERM: graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sighup := make(chan os.Signal, 1)
	signal.Notify(sighup, syscall.SIGHUP)
	defer signal.Stop(sighup)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		refresher.Start(gctx)
		return nil
	})
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-sighup:
				logger.Info("SIGHUP received, resyncing customers")
				refresher.Refresh(gctx)
			}
		}
	})
	g.Go(func() error {
		logger.Info("rebeauty console listening", "addr", e.cfg.Addr, "api", e.cfg.API.BaseURL)
		return srv.Start(gctx)
	})

	err = g.Wait()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if serr := srv.Stop(shutdownCtx); serr != nil {
		logger.Warn("shutdown", "error", serr)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
