package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"offerwall.api/internal/api"
	"offerwall.api/internal/config"
	"offerwall.api/internal/earn"
	"offerwall.api/internal/logging"
	"offerwall.api/internal/offers"
	"offerwall.api/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logging.New("info", false)
		fallback.Fatal().Err(err).Msg("load config")
	}

	logger := logging.New(cfg.LogLevel, cfg.LogPretty)

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("open database pool")
	}
	defer pool.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if err := pool.Ping(pingCtx); err != nil {
		cancel()
		logger.Fatal().Err(err).Msg("ping database")
	}
	cancel()

	if err := store.Migrate(cfg.DatabaseURL); err != nil {
		logger.Fatal().Err(err).Msg("run migrations")
	}

	st := store.New(pool)
	processor := earn.NewProcessor(st, cfg.PointsPerUSD, cfg.ReferralRate, cfg.DedupWindow, logger)
	feed := offers.NewClient(cfg.OffersAPIURL, cfg.OffersAPIKey, cfg.OffersTimeout)

	srv := api.NewServer(st, processor, feed, cfg, logger)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", httpServer.Addr).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = httpServer.Shutdown(shutdownCtx)
}
