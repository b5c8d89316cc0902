package session

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/wanderlust-stays/wanderlust/internal/models"
)

// Middleware loads the session named by the request cookie (or starts an
// anonymous one) and stores its State in the request context. fail renders
// load errors.
func (m *Manager) Middleware(fail func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			st, err := m.begin(r)
			if err != nil {
				fail(w, r, err)
				return
			}

			cw := &commitWriter{ResponseWriter: w}
			cw.commit = func() {
				if err := st.commit(r.Context(), w); err != nil {
					m.log.WithError(err).WithField("path", r.URL.Path).Error("failed to commit session")
				}
			}

			next.ServeHTTP(cw, r.WithContext(WithState(r.Context(), st)))

			// Handlers that never wrote still get their session saved.
			cw.commit()
		})
	}
}

func (m *Manager) begin(r *http.Request) (*State, error) {
	if c, err := r.Cookie(CookieName); err == nil {
		if id, ok := m.verify(c.Value); ok {
			rec, err := m.Load(r.Context(), id)
			if err != nil {
				return nil, err
			}
			if rec != nil {
				return &State{m: m, rec: rec}, nil
			}
		}
	}
	return &State{m: m, rec: &models.Session{ID: uuid.NewString()}, isNew: true}, nil
}

// commitWriter runs commit before the first header or body byte goes out, so
// the Set-Cookie header is never too late.
type commitWriter struct {
	http.ResponseWriter
	commit func()
}

func (w *commitWriter) WriteHeader(code int) {
	w.commit()
	w.ResponseWriter.WriteHeader(code)
}

func (w *commitWriter) Write(b []byte) (int, error) {
	w.commit()
	return w.ResponseWriter.Write(b)
}

func (w *commitWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
