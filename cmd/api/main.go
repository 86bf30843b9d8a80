package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	server "review_boost/internal/adapters/http_server"
	"review_boost/internal/adapters/observability"
	redisad "review_boost/internal/adapters/redis"
	"review_boost/internal/adapters/refine"
	"review_boost/internal/app"
	"review_boost/internal/domain"
	"review_boost/internal/shared"
	mysqlrepo "review_boost/internal/storage/mysql"
)

const requestTimeout = 15 * time.Second

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()
	if err := cache.Ping(ctx); err != nil {
		// the cache is advisory; preferences still load from the store
		log.Warn().Err(err).Msg("redis ping failed")
	}

	refiner, err := refine.New(cfg.RefineBase, cfg.RefineKey, cfg.RefineRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize refine client")
	}

	// deps
	repo := mysqlrepo.New(db)
	reviews := app.NewReviewService(app.NewDraftRegistry(), refiner, repo, app.LogSurveyLauncher{}, app.ReviewSettings{
		BusinessName:  cfg.BusinessName,
		ReviewSiteURL: cfg.ReviewSiteURL,
	})
	demo := app.NewDemoService(repo, cache, app.DemoSettings{
		Defaults: domain.DemoPreferences{RestaurantName: cfg.DemoRestaurantName, GoogleMapsURL: cfg.DemoMapsURL},
		BaseURL:  cfg.DemoBaseURL,
	})
	q := app.NewQueryService(repo, cache, cfg.CacheTTL)

	// http
	srv := server.New(requestTimeout)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Reviews: reviews, Demo: demo, Q: q})

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		t := time.NewTicker(max(cfg.DraftTTL/4, time.Second))
		defer t.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-t.C:
				if n := reviews.SweepDrafts(cfg.DraftTTL); n > 0 {
					log.Info().Int("removed", n).Msg("expired drafts swept")
				}
			}
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("API stopped")
}
