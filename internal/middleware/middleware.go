package middleware

import (
	"context"
	"net/http"

	"github.com/wanderlust-stays/wanderlust/internal/apperr"
	"github.com/wanderlust-stays/wanderlust/internal/models"
	"github.com/wanderlust-stays/wanderlust/internal/session"
	"github.com/wanderlust-stays/wanderlust/internal/utils"
)

// UserFetcher resolves the user id stored in a session.
type UserFetcher interface {
	Deserialize(ctx context.Context, token string) (*models.User, error)
}

func ensureLocals(r *http.Request) (*utils.Locals, *http.Request) {
	if l := utils.LocalsFrom(r.Context()); l != nil {
		return l, r
	}
	l := &utils.Locals{}
	return l, r.WithContext(utils.WithLocals(r.Context(), l))
}

// Flash exposes the session's flash queue to views. Messages are drained
// when a page renders, not here, so redirects keep them.
func Flash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l, r := ensureLocals(r)
		if st := session.StateFrom(r.Context()); st != nil {
			l.SetFlashSource(st)
		}
		next.ServeHTTP(w, r)
	})
}

func CurrentUser(fetcher UserFetcher, fail func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l, r := ensureLocals(r)

			if uid := session.StateFrom(r.Context()).UserID(); uid != "" {
				u, err := fetcher.Deserialize(r.Context(), uid)
				if err != nil {
					fail(w, r, apperr.Store(err))
					return
				}
				if u != nil {
					l.CurrUser = u
					r = r.WithContext(context.WithValue(r.Context(), utils.ContextUserIDKey, u.ID))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

const MsgLoginRequired = "You must be logged in first!"

// RequireLogin sends anonymous visitors to /login. For GETs the original
// URL is remembered so login can return there.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if utils.CurrentUser(r.Context()) != nil {
			next.ServeHTTP(w, r)
			return
		}
		st := session.StateFrom(r.Context())
		if r.Method == http.MethodGet {
			st.SetRedirect(r.URL.RequestURI())
		}
		st.Flash(session.FlashError, MsgLoginRequired)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	})
}
