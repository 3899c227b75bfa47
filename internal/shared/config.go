package shared

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string

	GoogleBase   string
	ClientID     string
	ClientSecret string
	RefreshToken string
	GoogleRPS    int

	AccountID    string
	LocationID   string
	BusinessName string
	AdminKey     string
	CORSOrigins  []string

	StoreBackend string // file | redis | mysql
	CacheFile    string
	RedisAddr    string
	RedisPass    string
	RedisDB      int
	MySQLDSN     string
}

func Load() Config {
	// local development reads .env; deployed environments set real env vars
	_ = godotenv.Load()

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ""),

		GoogleBase:   env("GOOGLE_BASE_URL", ""),
		ClientID:     env("GOOGLE_CLIENT_ID", ""),
		ClientSecret: env("GOOGLE_CLIENT_SECRET", ""),
		RefreshToken: env("GOOGLE_REFRESH_TOKEN", ""),
		GoogleRPS:    atoi("GOOGLE_RPS", 5),

		AccountID:    env("GBP_ACCOUNT_ID", ""),
		LocationID:   env("GBP_LOCATION_ID", ""),
		BusinessName: env("BUSINESS_NAME", "Business Name"),
		AdminKey:     env("ADMIN_KEY", ""),
		CORSOrigins:  splitCSV(env("CORS_ORIGINS", "")),

		StoreBackend: env("STORE_BACKEND", "file"),
		CacheFile:    env("CACHE_FILE", "data/reviews_cache.json"),
		RedisAddr:    env("REDIS_ADDR", "localhost:6379"),
		RedisPass:    env("REDIS_PASSWORD", ""),
		RedisDB:      atoi("REDIS_DB", 0),
		MySQLDSN:     env("MYSQL_DSN", "root:root@tcp(localhost:3306)/gbp?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
	}
	if c.RefreshToken == "" {
		log.Warn().Msg("GOOGLE_REFRESH_TOKEN is empty; upstream calls will be unauthenticated")
	}
	if c.AccountID == "" || c.LocationID == "" {
		log.Warn().Msg("GBP_ACCOUNT_ID/GBP_LOCATION_ID not set; /reviews will answer 400")
	}
	return c
}

// LocationRef is the canonical resource path for the configured location,
// used to key per-location storage rows.
func (c Config) LocationRef() string {
	return "accounts/" + c.AccountID + "/locations/" + c.LocationID
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
