package auth

import (
	"github.com/go-chi/chi/v5"

	"github.com/wanderlust-stays/wanderlust/internal/web"
)

// SetupRoutes registers the account pages on r, which is the root router.
func SetupRoutes(r chi.Router, h *Handler, b *web.Boundary) {
	r.Get("/signup", b.Handle(h.SignupForm))
	r.Post("/signup", b.Handle(h.Signup))
	r.Get("/login", b.Handle(h.LoginForm))
	r.Post("/login", b.Handle(h.Login))
	r.Get("/logout", b.Handle(h.Logout))
}
