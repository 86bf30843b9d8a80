// democtl mints demo review pages for a batch of restaurants:
//
//	democtl "Bistro Nova" "Casa Verde"
//
// Every page points at DEMO_MAPS_URL; the resulting URLs are logged.
package main

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"sync/atomic"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"review_boost/internal/adapters/observability"
	redisad "review_boost/internal/adapters/redis"
	"review_boost/internal/app"
	"review_boost/internal/domain"
	"review_boost/internal/shared"
	mysqlrepo "review_boost/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)

	names := os.Args[1:]
	if len(names) == 0 {
		log.Fatal().Msg("usage: democtl <restaurant name>...")
	}

	log.Info().
		Int("restaurants", len(names)).
		Int("workers", cfg.DemoWorkers).
		Msg("democtl starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()

	demo := app.NewDemoService(mysqlrepo.New(db), cache, app.DemoSettings{
		Defaults: domain.DemoPreferences{RestaurantName: cfg.DemoRestaurantName, GoogleMapsURL: cfg.DemoMapsURL},
		BaseURL:  cfg.DemoBaseURL,
	})

	sem := semaphore.NewWeighted(int64(cfg.DemoWorkers))
	var wg sync.WaitGroup
	var failed atomic.Int32

	for _, name := range names {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(restaurant string) {
			defer wg.Done()
			defer sem.Release(1)

			out, err := demo.CreateDemoPage(ctx, &domain.DemoPreferences{
				RestaurantName: restaurant,
				GoogleMapsURL:  cfg.DemoMapsURL,
			})
			if err != nil {
				failed.Add(1)
				log.Warn().Str("restaurant", restaurant).Err(err).Msg("create demo page failed")
				return
			}
			log.Info().Str("restaurant", restaurant).Str("url", out.URL).Msg("demo page ok")
		}(name)
	}

	wg.Wait()
	if n := failed.Load(); n > 0 {
		log.Error().Int32("failed", n).Msg("democtl finished with failures")
		os.Exit(1)
	}
	log.Info().Msg("democtl completed")
}
