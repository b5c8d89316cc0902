package reviews

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wanderlust-stays/wanderlust/internal/web"
)

// SetupRoutes returns the router mounted at /listings/{id}/reviews.
func SetupRoutes(h *Handler, b *web.Boundary, requireLogin func(http.Handler) http.Handler) http.Handler {
	r := b.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(requireLogin)
		r.Post("/", b.Handle(h.Create))
		r.Delete("/{reviewId}", b.Handle(h.Destroy))
	})

	return r
}
