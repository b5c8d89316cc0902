package listings

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wanderlust-stays/wanderlust/internal/web"
)

// SetupRoutes returns the router mounted at /listings. requireLogin guards
// every page that changes data.
func SetupRoutes(h *Handler, b *web.Boundary, requireLogin func(http.Handler) http.Handler) http.Handler {
	r := b.NewRouter()

	r.Get("/", b.Handle(h.Index))
	r.Get("/{id}", b.Handle(h.Show))

	r.Group(func(r chi.Router) {
		r.Use(requireLogin)
		r.Get("/new", b.Handle(h.New))
		r.Post("/", b.Handle(h.Create))
		r.Get("/{id}/edit", b.Handle(h.Edit))
		r.Put("/{id}", b.Handle(h.Update))
		r.Delete("/{id}", b.Handle(h.Destroy))
	})

	return r
}
