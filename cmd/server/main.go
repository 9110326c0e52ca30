// Package main is the entry point for the market analytics server: it
// serves indicator computation, risk analytics and portfolio valuation
// over HTTP, backed by a SQLite bar store that a scheduled job keeps
// refreshed for the tracked symbols.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ysncmn/borsapy/internal/config"
	"github.com/ysncmn/borsapy/internal/database"
	"github.com/ysncmn/borsapy/internal/modules/analytics"
	"github.com/ysncmn/borsapy/internal/modules/history"
	"github.com/ysncmn/borsapy/internal/modules/portfolio"
	"github.com/ysncmn/borsapy/internal/scheduler"
	"github.com/ysncmn/borsapy/internal/server"
	"github.com/ysncmn/borsapy/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting analytics server")

	db, err := database.Open(filepath.Join(cfg.DataDir, "bars.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	store, err := history.NewStore(db, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize bar store")
	}

	resolver := history.NewCachedResolver(history.NewStoreResolver(store), nil, 5*time.Minute)
	rates := analytics.FixedRate(cfg.RiskFreeRate)

	portfolioSvc := portfolio.NewService(resolver, rates, log)
	portfolioSvc.SetBenchmark(cfg.DefaultBenchmark)

	repo, err := portfolio.NewRepository(db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize portfolio repository")
	}

	srv := server.New(server.Config{
		Log:       log,
		Cfg:       cfg,
		DB:        db,
		Resolver:  resolver,
		Rates:     rates,
		Portfolio: portfolioSvc,
		Repo:      repo,
	})

	sched := scheduler.New(log)
	if len(cfg.TrackedSymbols) > 0 {
		job := scheduler.NewRefreshJob(resolver, store, cfg.TrackedSymbols, log)
		schedule := fmt.Sprintf("@every %dm", cfg.RefreshInterval)
		if err := sched.AddJob(schedule, job); err != nil {
			log.Fatal().Err(err).Msg("Failed to register refresh job")
		}
	}
	sched.Start()

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sched.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	log.Info().Msg("Shutdown complete")
}
