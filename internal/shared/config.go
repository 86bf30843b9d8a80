package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultMapsURL is the listing diners are sent to and the demo default.
const DefaultMapsURL = "https://maps.app.goo.gl/Nx23mQHet4TBfctJ6"

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	RefineBase  string
	RefineKey   string
	RefineRPS   int

	BusinessName  string
	ReviewSiteURL string

	DemoBaseURL        string
	DemoRestaurantName string
	DemoMapsURL        string
	DemoWorkers        int

	CacheTTL time.Duration
	DraftTTL time.Duration
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("not an integer; using default")
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ""),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/reviewboost?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisDB:     atoi("REDIS_DB", 0),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RefineBase:  env("REFINE_BASE_URL", ""),
		RefineKey:   env("REFINE_API_KEY", ""),
		RefineRPS:   atoi("REFINE_RPS", 5),

		BusinessName:  env("BUSINESS_NAME", "The Local Kitchen & Bar"),
		ReviewSiteURL: env("REVIEW_SITE_URL", DefaultMapsURL),

		DemoBaseURL:        env("DEMO_BASE_URL", "http://localhost:8080"),
		DemoRestaurantName: env("DEMO_RESTAURANT_NAME", "The Local Kitchen & Bar"),
		DemoMapsURL:        env("DEMO_MAPS_URL", DefaultMapsURL),
		DemoWorkers:        atoi("DEMO_WORKERS", 4),

		CacheTTL: time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
		DraftTTL: time.Duration(atoi("DRAFT_TTL_SECONDS", 3600)) * time.Second,
	}
	if c.RefineBase == "" {
		log.Warn().Msg("REFINE_BASE_URL is empty")
	}
	if c.RefineKey == "" {
		log.Warn().Msg("REFINE_API_KEY is empty")
	}
	if c.DemoWorkers < 1 {
		c.DemoWorkers = 1
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
