package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	StorageDriverSQLite   = "sqlite"
	StorageDriverPostgres = "postgres"
	StorageDriverRedis    = "redis"
	StorageDriverMemory   = "memory"
)

const (
	EnvAppEnv         = "STOREFRONT_APP_ENV"
	EnvPort           = "STOREFRONT_APP_PORT"
	EnvLogLevel       = "STOREFRONT_LOG_LEVEL"
	EnvStorageDriver  = "STOREFRONT_STORAGE_DRIVER"
	EnvDBDSN          = "STOREFRONT_DB_DSN"
	EnvRedisURL       = "STOREFRONT_REDIS_URL"
	EnvAPIBaseURL     = "STOREFRONT_API_BASE_URL"
	EnvCatalogPage    = "STOREFRONT_CATALOG_PAGE_SIZE"
	EnvTokenTTLMins   = "STOREFRONT_AUTH_TOKEN_TTL_MINUTES"
	EnvCORSOrigins    = "STOREFRONT_CORS_ORIGINS"
	EnvStorageNSpace  = "STOREFRONT_STORAGE_NAMESPACE"
	EnvCatalogOffset  = "STOREFRONT_CATALOG_INITIAL_OFFSET"
	EnvHTTPTimeout    = "STOREFRONT_HTTP_TIMEOUT"
	EnvLogFormat      = "STOREFRONT_LOG_FORMAT"
	EnvLogWarnStack   = "STOREFRONT_LOG_WARN_STACK"
	EnvDBMaxOpenConns = "STOREFRONT_DB_MAX_OPEN_CONNS"
)

type Config struct {
	App     AppConfig
	Storage StorageConfig
	DB      DBConfig
	Redis   RedisConfig
	Catalog CatalogConfig
	Auth    AuthConfig
	HTTP    HTTPConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Storage.validate(); err != nil {
		return nil, err
	}
	if cfg.Catalog.PageSize <= 0 {
		return nil, fmt.Errorf("%s must be positive", EnvCatalogPage)
	}
	if cfg.Catalog.InitialOffset < 0 {
		return nil, fmt.Errorf("%s cannot be negative", EnvCatalogOffset)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" default:"dev"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"STOREFRONT_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// StorageConfig selects the durable key/value backend that holds the cart and session records.
type StorageConfig struct {
	Driver    string `envconfig:"STOREFRONT_STORAGE_DRIVER" default:"sqlite"`
	Namespace string `envconfig:"STOREFRONT_STORAGE_NAMESPACE" default:"storefront"`
}

// NormalizedDriver returns the lower-cased driver name.
func (s StorageConfig) NormalizedDriver() string {
	return strings.ToLower(strings.TrimSpace(s.Driver))
}

func (s StorageConfig) validate() error {
	switch s.NormalizedDriver() {
	case StorageDriverSQLite, StorageDriverPostgres, StorageDriverRedis, StorageDriverMemory:
		return nil
	}
	return fmt.Errorf("%s must be one of sqlite, postgres, redis, memory (got %q)", EnvStorageDriver, s.Driver)
}

type DBConfig struct {
	DSN string `envconfig:"STOREFRONT_DB_DSN" default:"file:storefront.db"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"4"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// CatalogConfig points the REST collaborators at the product/auth API. InitialOffset
// is where the "load more" cursor starts; GET /products serves the first page.
type CatalogConfig struct {
	BaseURL       string        `envconfig:"STOREFRONT_API_BASE_URL" default:"https://dummyjson.com"`
	PageSize      int           `envconfig:"STOREFRONT_CATALOG_PAGE_SIZE" default:"20"`
	InitialOffset int           `envconfig:"STOREFRONT_CATALOG_INITIAL_OFFSET" default:"20"`
	Timeout       time.Duration `envconfig:"STOREFRONT_HTTP_TIMEOUT" default:"10s"`
}

type AuthConfig struct {
	TokenTTLMinutes int `envconfig:"STOREFRONT_AUTH_TOKEN_TTL_MINUTES" default:"1440"`
}

// TokenTTL returns the credential lifetime requested from the auth backend.
func (a AuthConfig) TokenTTL() time.Duration {
	if a.TokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(a.TokenTTLMinutes) * time.Minute
}

type HTTPConfig struct {
	CORSOrigins []string `envconfig:"STOREFRONT_CORS_ORIGINS" default:"http://localhost:3000"`
}
