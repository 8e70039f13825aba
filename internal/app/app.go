// Package app wires configuration, storage backends and services into a
// running application.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/craftrealm/realm-api/internal/account"
	"github.com/craftrealm/realm-api/internal/audit"
	"github.com/craftrealm/realm-api/internal/auth"
	"github.com/craftrealm/realm-api/internal/catalog"
	"github.com/craftrealm/realm-api/internal/clock"
	"github.com/craftrealm/realm-api/internal/config"
	"github.com/craftrealm/realm-api/internal/faction"
	"github.com/craftrealm/realm-api/internal/middleware"
	"github.com/craftrealm/realm-api/internal/router"
	"github.com/craftrealm/realm-api/internal/shop"
	"github.com/craftrealm/realm-api/internal/store"
)

// cleanupInterval is how often idle rate limiters are pruned.
const cleanupInterval = time.Minute

// App holds every wired component. Cache and Journal are nil when their
// backend is not configured.
type App struct {
	Store   store.Store
	Cache   *store.RedisCatalogCache
	Journal *store.MongoJournal

	Auth    *auth.Service
	Account *account.Service
	Shop    *shop.Service
	Faction *faction.Service

	cfg     *config.Config
	log     *logrus.Logger
	closers []func(context.Context) error
}

// Open connects the configured backends and builds the services. Postgres
// is migrated before use. Redis and MongoDB are optional.
func Open(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log}

	if err := a.openStore(ctx); err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	if err := a.openCache(ctx); err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	if err := a.openJournal(ctx); err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	hasher, err := auth.NewHasher(cfg.PasswordScheme)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	var cache shop.CatalogCache
	if a.Cache != nil {
		cache = a.Cache
	}
	var rec audit.Recorder
	if a.Journal != nil {
		rec = a.Journal
	}
	journal := audit.NewJournal(rec, log)
	clk := clock.New()

	a.Auth = auth.NewService(a.Store, hasher, clk, log)
	a.Account = account.NewService(a.Store)
	a.Shop = shop.NewService(a.Store, cache, journal, clk, log)
	a.Faction = faction.NewService(a.Store, journal, clk, log)
	return a, nil
}

func (a *App) openStore(ctx context.Context) error {
	if a.cfg.Storage == config.StorageMemory {
		a.log.Warn("using in-memory storage, data is lost on restart")
		a.Store = store.NewMemoryStore()
		return nil
	}

	db, err := store.OpenPostgres(ctx, a.cfg.PostgresDSN)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, func(context.Context) error { return db.Close() })

	pg := store.NewPostgresStore(db)
	if err := pg.Migrate(ctx); err != nil {
		return err
	}
	a.Store = pg
	a.log.Info("postgres connected")
	return nil
}

func (a *App) openCache(ctx context.Context) error {
	if a.cfg.RedisAddr == "" {
		return nil
	}
	rdb, err := store.NewRedisClient(ctx, a.cfg.RedisAddr, a.cfg.RedisPassword)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, func(context.Context) error { return rdb.Close() })
	a.Cache = store.NewRedisCatalogCache(rdb, a.cfg.CatalogCacheTTL)
	a.log.WithField("addr", a.cfg.RedisAddr).Info("catalog cache enabled")
	return nil
}

func (a *App) openJournal(ctx context.Context) error {
	if a.cfg.MongoURI == "" {
		return nil
	}
	client, err := store.ConnectMongo(ctx, a.cfg.MongoURI)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, client.Disconnect)
	a.Journal = store.NewMongoJournal(client.Database(a.cfg.MongoDB))
	a.log.WithField("db", a.cfg.MongoDB).Info("economy journal enabled")
	return nil
}

// Importer returns a catalog importer that also clears the catalog cache.
func (a *App) Importer() *catalog.Importer {
	var cache catalog.Invalidator
	if a.Cache != nil {
		cache = a.Cache
	}
	return catalog.NewImporter(a.Store, cache, a.log)
}

// Handler builds the HTTP API. The returned stop function ends the rate
// limiter's cleanup loop.
func (a *App) Handler() (http.Handler, func()) {
	limiter := middleware.NewRateLimiter(a.cfg.AuthRateLimit, a.cfg.AuthRateBurst, a.log)
	stop := make(chan struct{})
	limiter.StartCleanup(cleanupInterval, stop)

	h := router.New(router.Deps{
		Auth:        a.Auth,
		Account:     a.Account,
		Shop:        a.Shop,
		Faction:     a.Faction,
		RateLimiter: limiter,
		Origins:     a.cfg.AllowedOrigins(),
		Log:         a.log,
	})
	return h, func() { close(stop) }
}

// Close releases backends in reverse order of opening.
func (a *App) Close(ctx context.Context) error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil && first == nil {
			first = errors.Wrap(err, "app: close")
		}
	}
	a.closers = nil
	return first
}
