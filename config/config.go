package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/meikuraledutech/datasets"
	"github.com/meikuraledutech/datasets/objstore"
)

type Config struct {
	Port             string
	Env              string
	DatabaseURL      string
	DefaultNetwork   string
	MaxManifestBytes int
	CacheSize        int
	StrictManifests  bool
	LogLevel         string
	LogFormat        string
	CORSOrigins      []string
	RateLimitMax     int
	RateLimitWindow  time.Duration
	Storage          StorageConfig
	Auth             AuthConfig
}

type StorageConfig struct {
	Enabled bool
	objstore.Config
}

type AuthConfig struct {
	JWTSecret string
	Issuer    string
	AdminRole string
}

const (
	defaultMaxManifestBytes = 10 << 20
	defaultCacheSize        = 512
	defaultRateLimitMax     = 100
	defaultRateLimitWindow  = 15 * time.Minute
)

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port := firstNonEmpty(strings.TrimSpace(os.Getenv("PORT")), ":3000")
	if !strings.Contains(port, ":") {
		port = ":" + port
	}

	maxBytes, err := intEnv("MAX_MANIFEST_BYTES", defaultMaxManifestBytes)
	if err != nil {
		return nil, err
	}
	cacheSize, err := intEnv("CACHE_SIZE", defaultCacheSize)
	if err != nil {
		return nil, err
	}
	storage, err := loadStorageConfig()
	if err != nil {
		return nil, err
	}
	rateMax, err := intEnv("RATE_LIMIT_MAX", defaultRateLimitMax)
	if err != nil {
		return nil, err
	}
	rateWindow := defaultRateLimitWindow
	if raw := strings.TrimSpace(os.Getenv("RATE_LIMIT_WINDOW")); raw != "" {
		if rateWindow, err = time.ParseDuration(raw); err != nil || rateWindow <= 0 {
			return nil, fmt.Errorf("config: RATE_LIMIT_WINDOW must be a positive duration, got %q", raw)
		}
	}
	network := firstNonEmpty(strings.TrimSpace(os.Getenv("DEFAULT_NETWORK")), "mainnet")
	if !datasets.ValidNetwork(network) {
		return nil, fmt.Errorf("config: DEFAULT_NETWORK must be one of %s, got %q", strings.Join(datasets.Networks, ", "), network)
	}

	return &Config{
		Port:             port,
		Env:              firstNonEmpty(strings.TrimSpace(os.Getenv("APP_ENV")), "local"),
		DatabaseURL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DefaultNetwork:   network,
		MaxManifestBytes: maxBytes,
		CacheSize:        cacheSize,
		StrictManifests:  boolEnv("STRICT_MANIFESTS", false),
		LogLevel:         firstNonEmpty(strings.TrimSpace(os.Getenv("LOG_LEVEL")), "info"),
		LogFormat:        firstNonEmpty(strings.TrimSpace(os.Getenv("LOG_FORMAT")), "text"),
		CORSOrigins:      splitList(firstNonEmpty(os.Getenv("CORS_ORIGINS"), os.Getenv("FRONTEND_URL"), "http://localhost:8080")),
		RateLimitMax:     rateMax,
		RateLimitWindow:  rateWindow,
		Storage:          storage,
		Auth: AuthConfig{
			JWTSecret: os.Getenv("AUTH_JWT_SECRET"),
			Issuer:    strings.TrimSpace(os.Getenv("AUTH_ISSUER")),
			AdminRole: firstNonEmpty(strings.TrimSpace(os.Getenv("AUTH_ADMIN_ROLE")), "admin"),
		},
	}, nil
}

func loadStorageConfig() (StorageConfig, error) {
	endpoint := strings.TrimSpace(os.Getenv("MINIO_ENDPOINT"))
	if port := strings.TrimSpace(os.Getenv("MINIO_PORT")); endpoint != "" && port != "" && !strings.Contains(endpoint, ":") {
		endpoint += ":" + port
	}
	expiry := time.Hour
	if raw := strings.TrimSpace(os.Getenv("MINIO_URL_EXPIRY")); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return StorageConfig{}, fmt.Errorf("config: MINIO_URL_EXPIRY: %w", err)
		}
		expiry = d
	}
	return StorageConfig{
		Enabled: endpoint != "",
		Config: objstore.Config{
			Endpoint:  endpoint,
			Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("MINIO_REGION")), "us-east-1"),
			AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("MINIO_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
			SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("MINIO_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
			Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("MINIO_BUCKET")), "pids-datasets"),
			UseSSL:    boolEnv("MINIO_USE_SSL", false),
			URLExpiry: expiry,
		},
	}, nil
}

func intEnv(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("config: %s must be a positive integer, got %q", key, raw)
	}
	return v, nil
}

func boolEnv(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func splitList(raw string) []string {
	var out []string
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
