package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/partyroom-backend/internal/config"
	"github.com/DoyleJ11/partyroom-backend/internal/httpapi"
	"github.com/DoyleJ11/partyroom-backend/internal/hub"
	"github.com/DoyleJ11/partyroom-backend/internal/identity"
	"github.com/DoyleJ11/partyroom-backend/internal/logging"
	"github.com/DoyleJ11/partyroom-backend/internal/room"
	"github.com/DoyleJ11/partyroom-backend/internal/session"
	"github.com/DoyleJ11/partyroom-backend/internal/stats"
	"github.com/DoyleJ11/partyroom-backend/internal/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.LogLevel, cfg.Dev)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := stats.Open(cfg.Stats)
	if err != nil {
		return fmt.Errorf("open stats store: %w", err)
	}
	loadCtx, cancel := context.WithTimeout(ctx, cfg.Stats.WriteTimeout)
	entries, err := store.Load(loadCtx)
	cancel()
	if err != nil {
		// history is best effort; play can start without it
		log.Warn("ledger load failed, starting empty", zap.Error(err))
		entries = nil
	}
	writer := stats.NewWriter(store, log, cfg.Stats.QueueSize, cfg.Stats.WriteTimeout)

	reg := identity.NewRegistry()
	listing := hub.NewListing()
	// the hub outlives the signal context so shutdown can close rooms in order
	h := hub.NewHub(context.Background(),
		room.Config{
			MaxPlayers:    cfg.MaxPlayers,
			EmptyGrace:    cfg.EmptyRoomGrace,
			CountdownTick: cfg.CountdownTick,
		},
		room.Deps{Sender: reg, Ledger: writer, Listing: listing, Log: log},
		entries,
	)
	coord := session.New(reg, h, listing, log)

	wsOpts := ws.Options{
		PingInterval: cfg.WSPingInterval,
		WriteTimeout: cfg.WSWriteTimeout,
		OutboxSize:   cfg.OutboxSize,
		Log:          log,
	}
	if cfg.Dev {
		wsOpts.OriginPatterns = []string{"localhost:*", "127.0.0.1:*"}
	}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.SetupRoutes(httpapi.Deps{Coordinator: coord, Listing: listing, WS: wsOpts, Log: log}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.Addr), zap.String("stats", cfg.Stats.Backend), zap.Int("restored", len(entries)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error { return writer.Run(gctx) })
	g.Go(func() error { return listing.Run(gctx, reg, cfg.ListingInterval) })
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return multierr.Append(h.Shutdown(shutdownCtx), srv.Shutdown(shutdownCtx))
	})

	err = g.Wait()
	return multierr.Append(err, writer.Close())
}
