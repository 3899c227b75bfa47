package main

import (
	"context"
	"database/sql"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"gbp_reviews/internal/adapters/google"
	server "gbp_reviews/internal/adapters/http_server"
	"gbp_reviews/internal/adapters/observability"
	"gbp_reviews/internal/app"
	"gbp_reviews/internal/domain"
	"gbp_reviews/internal/shared"
	"gbp_reviews/internal/storage"
	filestore "gbp_reviews/internal/storage/file"
	mysqlstore "gbp_reviews/internal/storage/mysql"
	redisstore "gbp_reviews/internal/storage/redis"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend := openBackend(ctx, cfg)

	var ts oauth2.TokenSource
	if cfg.RefreshToken != "" {
		ts = google.RefreshTokenSource(context.Background(), cfg.ClientID, cfg.ClientSecret, cfg.RefreshToken)
	}
	client := google.New(cfg.GoogleBase, ts, cfg.GoogleRPS)
	svc := app.NewReviewService(client, storage.New(backend), cfg.AccountID, cfg.LocationID, cfg.BusinessName)

	// http
	srv := server.New(cfg.CORSOrigins)
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	observability.Serve(cfg.MetricsAddr, reg)
	srv.MountHandlers(&server.Handlers{Svc: svc, AdminKey: cfg.AdminKey})

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("backend", cfg.StoreBackend).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// openBackend selects and wires the snapshot backend from config.
func openBackend(ctx context.Context, cfg shared.Config) domain.SnapshotBackend {
	switch cfg.StoreBackend {
	case "redis":
		return redisstore.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, "reviews:snapshot:"+cfg.LocationRef())

	case "mysql":
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		if err := db.Ping(); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		st := mysqlstore.New(db, cfg.LocationRef())
		if err := st.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("snapshot schema setup failed")
		}
		return st

	default:
		if cfg.StoreBackend != "file" {
			log.Warn().Str("backend", cfg.StoreBackend).Msg("unknown STORE_BACKEND, using file")
		}
		return filestore.New(cfg.CacheFile)
	}
}
