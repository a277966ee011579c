package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront/api/controllers"
	"github.com/angelmondragon/storefront/internal/auth"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/internal/checkout"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/db"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/migrate"
	"github.com/angelmondragon/storefront/pkg/redis"
	"github.com/angelmondragon/storefront/pkg/storage"
	"github.com/angelmondragon/storefront/pkg/storage/memory"
	"github.com/angelmondragon/storefront/pkg/storage/sqlstore"
)

// app owns every long-lived component for one process.
type app struct {
	cfg      *config.Config
	logg     *logger.Logger
	registry *prometheus.Registry

	kv      storage.KV
	pinger  controllers.Pinger
	dbc     *db.Client
	closers []io.Closer

	catalog  *catalog.Client
	pager    *catalog.Pager
	finder   *catalog.Finder
	cart     *cart.Store
	session  *auth.Session
	auth     *auth.Service
	checkout *checkout.Service
}

type bootstrapOptions struct {
	logLevel string
	logOut   io.Writer
	now      func() time.Time
}

func loadConfig() (*config.Config, error) {
	_ = godotenv.Load()
	return config.Load()
}

func newLogger(cfg *config.Config, opts bootstrapOptions) *logger.Logger {
	level := cfg.App.LogLevel
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	return logger.New(logger.Options{
		ServiceName: appName,
		Level:       logger.ParseLevel(level),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
		Output:      opts.logOut,
	})
}

// bootstrap wires storage, stores and collaborators. The caller must Close the app.
func bootstrap(ctx context.Context, cfg *config.Config, opts bootstrapOptions) (_ *app, err error) {
	if opts.now == nil {
		opts.now = time.Now
	}
	a := &app{
		cfg:      cfg,
		logg:     newLogger(cfg, opts),
		registry: prometheus.NewRegistry(),
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, a.Close())
		}
	}()

	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewStoreMetrics(a.registry)

	ctx = a.logg.WithFields(ctx, map[string]any{
		"env":            cfg.App.Env,
		"storage_driver": cfg.Storage.NormalizedDriver(),
	})
	kv, err := a.openStorage(ctx)
	if err != nil {
		return nil, err
	}
	a.kv = storage.Namespaced(kv, cfg.Storage.Namespace)

	httpClient := newHTTPClient(cfg.Catalog.Timeout)
	a.catalog, err = catalog.NewClient(cfg.Catalog.BaseURL, catalog.WithHTTPClient(httpClient), catalog.WithMetrics(m))
	if err != nil {
		return nil, fmt.Errorf("catalog client: %w", err)
	}
	a.pager = catalog.NewPager(a.catalog, cfg.Catalog.PageSize, cfg.Catalog.InitialOffset)
	a.finder = catalog.NewFinder(a.catalog, cfg.Catalog.PageSize)

	a.cart, err = cart.NewStore(ctx, a.kv, cart.WithLogger(a.logg), cart.WithMetrics(m))
	if err != nil {
		return nil, err
	}
	a.session, err = auth.NewSession(ctx, a.kv, a.cart, auth.WithLogger(a.logg), auth.WithMetrics(m))
	if err != nil {
		return nil, err
	}
	if a.session.Expired(opts.now()) {
		a.logg.Warn(a.logg.WithUserID(ctx, a.session.Current().User.ID), "session.credential_expired")
		a.session.Logout(ctx)
	}

	authClient, err := auth.NewClient(cfg.Catalog.BaseURL, auth.WithHTTPClient(httpClient), auth.WithTokenTTL(cfg.Auth.TokenTTL()))
	if err != nil {
		return nil, fmt.Errorf("auth client: %w", err)
	}
	a.auth, err = auth.NewService(authClient, a.session, a.logg)
	if err != nil {
		return nil, err
	}
	a.checkout, err = checkout.NewService(a.cart, a.logg)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (a *app) openStorage(ctx context.Context) (storage.KV, error) {
	switch driver := a.cfg.Storage.NormalizedDriver(); driver {
	case config.StorageDriverMemory:
		return memory.New(), nil

	case config.StorageDriverRedis:
		client, err := redis.New(ctx, a.cfg.Redis, a.logg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap redis: %w", err)
		}
		a.closers = append(a.closers, client)
		a.pinger = client
		return client, nil

	case config.StorageDriverSQLite, config.StorageDriverPostgres:
		client, err := a.openDB(ctx)
		if err != nil {
			return nil, err
		}
		if err := migrate.Up(ctx, client, a.logg); err != nil {
			return nil, fmt.Errorf("migrate storage: %w", err)
		}
		store, err := sqlstore.New(client.DB())
		if err != nil {
			return nil, err
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", driver)
	}
}

func (a *app) openDB(ctx context.Context) (*db.Client, error) {
	if a.dbc != nil {
		return a.dbc, nil
	}
	client, err := db.New(ctx, a.cfg.Storage.NormalizedDriver(), a.cfg.DB, a.logg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap database: %w", err)
	}
	a.closers = append(a.closers, client)
	a.pinger = client
	a.dbc = client
	return client, nil
}

// Close releases storage connections in reverse order of acquisition.
func (a *app) Close() error {
	if a == nil {
		return nil
	}
	var err error
	for i := len(a.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, a.closers[i].Close())
	}
	a.closers = nil
	return err
}
