package auth

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/wanderlust-stays/wanderlust/internal/apperr"
	"github.com/wanderlust-stays/wanderlust/internal/metrics"
	"github.com/wanderlust-stays/wanderlust/internal/session"
	"github.com/wanderlust-stays/wanderlust/internal/view"
	"github.com/wanderlust-stays/wanderlust/internal/web"
)

const (
	MsgWelcome       = "Welcome to Wanderlust!"
	MsgWelcomeBack   = "Welcome back to Wanderlust!"
	MsgLoginFailed   = "Invalid username or password."
	MsgLoggedOut     = "You are logged out!"
	MsgUsernameTaken = "A user with the given username is already registered"
	MsgMissingFields = "Username, email and password are required"
	MsgTooManyLogins = "Too many login attempts, please try again later."
)

type Handler struct {
	Provider  Provider
	Registrar Registrar
	Limiter   *LoginLimiter
	Views     *view.Renderer
	Log       *logrus.Logger
}

func (h *Handler) SignupForm(w http.ResponseWriter, r *http.Request) error {
	return h.Views.Render(w, r, http.StatusOK, view.PageSignup, nil)
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) error {
	st := session.StateFrom(r.Context())

	u, err := h.Registrar.Register(r.Context(),
		r.PostForm.Get("username"),
		r.PostForm.Get("email"),
		r.PostForm.Get("password"),
	)
	switch {
	case errors.Is(err, ErrUsernameTaken):
		st.Flash(session.FlashError, MsgUsernameTaken)
		return web.Redirect(w, r, "/signup")
	case errors.Is(err, ErrMissingFields):
		st.Flash(session.FlashError, MsgMissingFields)
		return web.Redirect(w, r, "/signup")
	case err != nil:
		return apperr.Store(err)
	}

	st.Login(h.Provider.Serialize(u))
	st.Flash(session.FlashSuccess, MsgWelcome)
	h.Log.WithField("user_id", u.ID).Info("user signed up")
	return web.Redirect(w, r, "/listings")
}

func (h *Handler) LoginForm(w http.ResponseWriter, r *http.Request) error {
	return h.Views.Render(w, r, http.StatusOK, view.PageLogin, nil)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) error {
	if h.Limiter != nil && !h.Limiter.Allow(clientKey(r)) {
		metrics.LoginAttempts.WithLabelValues("throttled").Inc()
		return apperr.Throttled(MsgTooManyLogins)
	}

	st := session.StateFrom(r.Context())
	u, err := h.Provider.Authenticate(r.Context(), r.PostForm.Get("username"), r.PostForm.Get("password"))
	if errors.Is(err, ErrAuthFailure) {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		st.Flash(session.FlashError, MsgLoginFailed)
		return web.Redirect(w, r, "/login")
	}
	if err != nil {
		return apperr.Store(err)
	}
	metrics.LoginAttempts.WithLabelValues("success").Inc()

	target := st.TakeRedirect()
	if target == "" {
		target = "/listings"
	}
	st.Login(h.Provider.Serialize(u))
	st.Flash(session.FlashSuccess, MsgWelcomeBack)
	return web.Redirect(w, r, target)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) error {
	st := session.StateFrom(r.Context())
	st.Logout()
	st.Flash(session.FlashSuccess, MsgLoggedOut)
	return web.Redirect(w, r, "/listings")
}
