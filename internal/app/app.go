// Package app wires the stores, session manager, auth provider and feature
// routers into one application.
package app

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/wanderlust-stays/wanderlust/internal/auth"
	"github.com/wanderlust-stays/wanderlust/internal/config"
	"github.com/wanderlust-stays/wanderlust/internal/db"
	"github.com/wanderlust-stays/wanderlust/internal/session"
	"github.com/wanderlust-stays/wanderlust/internal/store"
	"github.com/wanderlust-stays/wanderlust/internal/store/gormstore"
	"github.com/wanderlust-stays/wanderlust/internal/store/mongostore"
	"github.com/wanderlust-stays/wanderlust/internal/view"
	"github.com/wanderlust-stays/wanderlust/internal/web"
)

// Login throttle: 10 attempts at once, refilled at 10 per minute per client.
const (
	loginBurst     = 10
	loginPerMinute = 10
)

type App struct {
	Config   config.Config
	Log      *logrus.Logger
	Store    store.Store
	Backend  db.Backend
	Sessions *session.Manager
	Auth     *auth.LocalProvider
	Limiter  *auth.LoginLimiter
	Views    *view.Renderer
	Boundary *web.Boundary
	Cron     *cron.Cron
}

// OpenStore connects to the database named by cfg.DatabaseURL and prepares
// its tables or indexes.
func OpenStore(ctx context.Context, cfg config.Config, log *logrus.Logger) (store.Store, db.Backend, error) {
	backend, err := db.BackendFor(cfg.DatabaseURL)
	if err != nil {
		return nil, "", err
	}

	switch backend {
	case db.BackendMongo:
		client, err := db.ConnectMongo(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, backend, err
		}
		s := mongostore.New(client, cfg.DBName)
		if err := s.Ping(ctx); err != nil {
			_ = s.Close(ctx)
			return nil, backend, fmt.Errorf("app: ping mongo: %w", err)
		}
		if err := s.EnsureIndexes(ctx); err != nil {
			return nil, backend, err
		}
		log.WithField("db", cfg.DBName).Info("connected to mongo")
		return s, backend, nil

	default:
		schema := ""
		if backend == db.BackendPostgres {
			schema = cfg.DBSchema
		}
		d, err := db.Connect(cfg.DatabaseURL, schema, log)
		if err != nil {
			return nil, backend, err
		}
		s := gormstore.New(d)
		if err := s.Migrate(); err != nil {
			return nil, backend, err
		}
		return s, backend, nil
	}
}

func New(cfg config.Config, log *logrus.Logger, st store.Store, backend db.Backend) (*App, error) {
	views, err := view.New(cfg.MapToken)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:   cfg,
		Log:      log,
		Store:    st,
		Backend:  backend,
		Sessions: session.NewManager(st, cfg.Secret, log, session.WithSecureCookie(cfg.IsProduction())),
		Auth:     auth.NewLocalProvider(st),
		Limiter:  auth.NewLoginLimiter(loginPerMinute, loginBurst),
		Views:    views,
		Boundary: &web.Boundary{Views: views, Log: log},
		Cron:     cron.New(),
	}

	// Mongo expires sessions through its TTL index.
	if backend != db.BackendMongo {
		if err := a.Sessions.ScheduleSweep(a.Cron, cfg.SweepSpec); err != nil {
			return nil, fmt.Errorf("app: schedule session sweep: %w", err)
		}
	}
	if _, err := a.Cron.AddFunc("@every 1h", a.Limiter.Reset); err != nil {
		return nil, fmt.Errorf("app: schedule limiter reset: %w", err)
	}
	return a, nil
}

// Start runs the background jobs.
func (a *App) Start() {
	a.Cron.Start()
}

// Stop halts the background jobs and closes the store.
func (a *App) Stop(ctx context.Context) error {
	<-a.Cron.Stop().Done()
	return a.Store.Close(ctx)
}
