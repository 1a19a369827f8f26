package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meikuraledutech/datasets"
	"github.com/meikuraledutech/datasets/auth"
	"github.com/meikuraledutech/datasets/cache"
	"github.com/meikuraledutech/datasets/config"
	"github.com/meikuraledutech/datasets/httpapi"
	"github.com/meikuraledutech/datasets/memory"
	"github.com/meikuraledutech/datasets/objstore"
	"github.com/meikuraledutech/datasets/postgres"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	log := newLogger(cfg)

	ctx := context.Background()

	// ── Store ─────────────────────────────────────────────────────────
	var base datasets.Store
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("connect: %v", err)
		}
		defer pool.Close()
		base = postgres.New(pool)
	} else {
		if cfg.Env == "production" {
			log.Fatal("DATABASE_URL is not set")
		}
		log.Warn("DATABASE_URL is not set, datasets are kept in memory")
		base = memory.New()
	}
	if err := base.CreateSchema(ctx); err != nil {
		log.Fatalf("schema: %v", err)
	}

	store, err := cache.New(base, cfg.CacheSize)
	if err != nil {
		log.Fatalf("cache: %v", err)
	}

	// ── Object storage ────────────────────────────────────────────────
	var objects httpapi.ObjectStore
	if cfg.Storage.Enabled {
		s, err := objstore.New(cfg.Storage.Config)
		if err != nil {
			log.Fatalf("object storage: %v", err)
		}
		objects = s
		if err := s.Ready(ctx); err != nil {
			log.WithError(err).Warn("object storage not reachable yet, will retry on first use")
		}
		log.WithFields(logrus.Fields{"endpoint": cfg.Storage.Endpoint, "bucket": cfg.Storage.Bucket}).Info("object storage enabled")
	} else {
		log.Warn("MINIO_ENDPOINT is not set, manifests will not be stored")
	}

	validator := auth.NewValidator(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	if validator == nil {
		log.Warn("AUTH_JWT_SECRET is not set, admin routes reject every request")
	}

	app := httpapi.New(httpapi.Options{
		Store:            store,
		Objects:          objects,
		Validator:        validator,
		AdminRole:        cfg.Auth.AdminRole,
		DefaultNetwork:   cfg.DefaultNetwork,
		MaxManifestBytes: cfg.MaxManifestBytes,
		StrictManifests:  cfg.StrictManifests,
		CORSOrigins:      cfg.CORSOrigins,
		RateLimitMax:     cfg.RateLimitMax,
		RateLimitWindow:  cfg.RateLimitWindow,
		Logger:           log,
	})

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.WithError(err).Error("shutdown")
		}
	}()

	log.WithFields(logrus.Fields{"port": cfg.Port, "env": cfg.Env}).Info("server listening")
	if err := app.Listen(cfg.Port); err != nil {
		log.Fatal(err)
	}
}

func newLogger(cfg *config.Config) *logrus.Logger {
	log := logrus.New()
	if strings.EqualFold(cfg.LogFormat, "json") {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warnf("unknown LOG_LEVEL %q, using info", cfg.LogLevel)
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}
