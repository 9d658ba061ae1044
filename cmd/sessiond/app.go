package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/cameronmore/sessionauth/auth"
	"github.com/cameronmore/sessionauth/env"
	"github.com/cameronmore/sessionauth/password"
	"github.com/cameronmore/sessionauth/sessions"
)

const redisKeyPrefix = "sessionauth:"

// app is everything serve needs, built from a Config.
type app struct {
	cfg      env.Config
	log      *slog.Logger
	db       *sql.DB
	redis    *redis.Client
	store    sessions.AuthStore
	authCtx  *auth.AuthContext
	registry *prometheus.Registry
}

func newHasher(cfg env.Config) (password.Hasher, error) {
	primary, err := password.New(cfg.PasswordAlgorithm, cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	// Hashes written under the other algorithm, or by the legacy service, still verify.
	hasher := password.Multi{primary}
	if _, ok := primary.(*password.Bcrypt); !ok {
		hasher = append(hasher, password.NewBcrypt(cfg.BcryptCost))
	}
	if _, ok := primary.(*password.Argon2); !ok {
		hasher = append(hasher, password.NewArgon2(password.DefaultArgon2Config()))
	}
	return append(hasher, password.LegacySHA256{}), nil
}

// openStore connects to DATABASE_URL and migrates the schema.
func openStore(ctx context.Context, cfg env.Config, log *slog.Logger) (*sql.DB, sessions.AuthStore, error) {
	switch cfg.DatabaseDriver {
	case env.DriverPostgres:
		db, err := auth.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		store, err := auth.NewPostgresAuthStore(ctx, db, log)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return db, store, nil
	default:
		db, err := auth.OpenSQLite(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		store, err := auth.NewSQLiteStore(ctx, db, log)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return db, store, nil
	}
}

func newApp(ctx context.Context, cfg env.Config, log *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log, registry: prometheus.NewRegistry()}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var err error
	a.db, a.store, err = openStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	hasher, err := newHasher(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	authenticator, err := a.authenticator(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.authCtx = auth.NewAuthContext(authenticator, a.store, hasher, cfg.ExcludedPaths)
	a.authCtx.CookieTTL = max(cfg.SessionDuration(log), 0)
	a.authCtx.SecureCookies = cfg.SecureCookies
	a.authCtx.Logger = log
	return a, nil
}

// authenticator picks the auth variant named by AUTH_TYPE.
func (a *app) authenticator(ctx context.Context) (auth.Authenticator, error) {
	base := auth.NewBaseAuth(a.cfg.SessionName, a.cfg.SessionSecret)
	d := a.cfg.SessionDuration(a.log)
	opts := []sessions.Option{sessions.WithLogger(a.log)}

	var resolver sessions.Resolver
	switch a.cfg.AuthType {
	case env.AuthTypeBasic:
		return base, nil
	case env.AuthTypeSession:
		resolver = sessions.NewMemoryStore()
	case env.AuthTypeSessionExp:
		resolver = sessions.NewExpiringStore(sessions.NewMemoryStore(), d, opts...)
	case env.AuthTypeSessionDB:
		repo, err := a.sessionRepository(ctx, d)
		if err != nil {
			return nil, err
		}
		resolver = sessions.NewPersistentStore(repo, d, opts...)
	default:
		return nil, env.ErrUnknownAuthType
	}

	sa := auth.NewSessionAuth(base, resolver, a.store)
	sa.Logger = a.log
	sa.Metrics = auth.NewMetrics(a.registry)
	a.log.InfoContext(ctx, "session auth ready", "auth_type", a.cfg.AuthType, "session_duration", d)
	return sa, nil
}

func (a *app) sessionRepository(ctx context.Context, d time.Duration) (sessions.SessionRepository, error) {
	if a.cfg.SessionBackend != env.BackendRedis {
		return a.store, nil
	}
	client, err := auth.ConnectRedis(ctx, a.cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	a.redis = client
	return auth.NewRedisSessionStore(client, redisKeyPrefix, max(d, 0)), nil
}

func (a *app) Handler() http.Handler {
	return a.authCtx.Router(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{Registry: a.registry}))
}

func (a *app) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}
