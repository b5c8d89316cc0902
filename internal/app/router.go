package app

import (
	"context"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/wanderlust-stays/wanderlust/internal/auth"
	"github.com/wanderlust-stays/wanderlust/internal/listings"
	"github.com/wanderlust-stays/wanderlust/internal/metrics"
	"github.com/wanderlust-stays/wanderlust/internal/middleware"
	"github.com/wanderlust-stays/wanderlust/internal/reviews"
	"github.com/wanderlust-stays/wanderlust/internal/view"
)

// Pipeline returns the ordered request stages every route runs through.
func (a *App) Pipeline() []middleware.Stage {
	fail := a.Boundary.Fail
	return []middleware.Stage{
		{Name: middleware.StageRequestLog, Wrap: middleware.RequestLog(a.Log)},
		{Name: middleware.StageMetrics, Wrap: middleware.Metrics},
		{Name: middleware.StageURLEncoded, Wrap: middleware.URLEncoded(fail)},
		{Name: middleware.StageMethodOverride, Wrap: middleware.MethodOverride},
		{Name: middleware.StageStatic, Wrap: middleware.Static("/static", view.Static())},
		{Name: middleware.StageSession, Wrap: a.Sessions.Middleware(fail)},
		{Name: middleware.StageFlash, Wrap: middleware.Flash},
		{Name: middleware.StageCurrentUser, Wrap: middleware.CurrentUser(a.Auth, fail)},
		// Last, so a panicking handler's error page goes out through the
		// session writer with the current user and queued flashes.
		{Name: middleware.StageRecover, Wrap: middleware.Recover(fail)},
	}
}

func (a *App) Router() (http.Handler, error) {
	pipeline, err := middleware.Chain(a.Pipeline()...)
	if err != nil {
		return nil, err
	}

	b := a.Boundary
	r := b.NewRouter()
	// The pipeline runs before routing so a method override picks the route.
	r.Use(chimw.RequestID)
	// RealIP rewrites RemoteAddr, which the login throttle keys on.
	if a.Config.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(pipeline)

	r.Get("/healthz", a.healthz)
	r.Handle("/metrics", metrics.Handler())

	lh := &listings.Handler{Store: a.Store, Views: a.Views, Log: a.Log}
	rh := &reviews.Handler{Store: a.Store, Log: a.Log}
	ah := &auth.Handler{Provider: a.Auth, Registrar: a.Auth, Limiter: a.Limiter, Views: a.Views, Log: a.Log}

	r.Get("/", b.Handle(lh.Home))
	r.Mount("/listings/{id}/reviews", reviews.SetupRoutes(rh, b, middleware.RequireLogin))
	r.Mount("/listings", listings.SetupRoutes(lh, b, middleware.RequireLogin))
	auth.SetupRoutes(r, ah, b)

	return r, nil
}

func (a *App) healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := a.Store.Ping(ctx); err != nil {
		a.Log.WithError(err).Warn("health check failed")
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("ok"))
}
