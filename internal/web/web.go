// Package web holds the error boundary and the handler shape shared by the
// feature routers.
package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/wanderlust-stays/wanderlust/internal/apperr"
	"github.com/wanderlust-stays/wanderlust/internal/utils"
	"github.com/wanderlust-stays/wanderlust/internal/view"
)

// HandlerFunc is an http.HandlerFunc that reports failure by returning an
// error instead of writing one.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Boundary renders every error that reaches it as the error page.
type Boundary struct {
	Views *view.Renderer
	Log   *logrus.Logger
}

func (b *Boundary) Handle(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			b.Fail(w, r, err)
		}
	}
}

func (b *Boundary) Fail(w http.ResponseWriter, r *http.Request, err error) {
	code, msg := apperr.StatusAndMessage(err)

	entry := b.Log.WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
		"status": code,
	}).WithError(err)
	if uid, ok := utils.GetUserIDFromContext(r.Context()); ok {
		entry = entry.WithField("user_id", uid)
	}
	if code >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Debug("request rejected")
	}

	page := view.ErrorPage{StatusCode: code, Message: msg}
	if rerr := b.Views.Render(w, r, code, view.PageError, page); rerr != nil {
		b.Log.WithError(rerr).Error("failed to render error page")
		http.Error(w, msg, code)
	}
}

func (b *Boundary) NotFound(w http.ResponseWriter, r *http.Request) {
	b.Fail(w, r, apperr.NotFound(apperr.PageNotFound))
}

// NewRouter returns a chi router whose unmatched paths and methods land on
// the boundary's 404 page.
func (b *Boundary) NewRouter() chi.Router {
	r := chi.NewRouter()
	r.NotFound(b.NotFound)
	r.MethodNotAllowed(b.NotFound)
	return r
}

// Redirect sends a 303 so the browser follows up with a GET.
func Redirect(w http.ResponseWriter, r *http.Request, url string) error {
	http.Redirect(w, r, url, http.StatusSeeOther)
	return nil
}
