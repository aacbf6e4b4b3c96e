package materials

import (
	"github.com/go-chi/chi/v5"

	"github.com/Paulodev-web/OrcaRede-sub001/internal/rbac"
)

func (h *Handler) MountRoutes(r chi.Router, guard rbac.Middleware) {
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAny("catalog.material.view"))
		r.Get("/materials", h.List)
		r.Get("/materials/{id}", h.Show)
	})
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAll("catalog.material.edit"))
		r.Post("/materials", h.Create)
		r.Put("/materials/{id}", h.Update)
		r.Delete("/materials/{id}", h.Delete)
	})
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAll("catalog.material.purge"))
		r.Delete("/materials", h.DeleteAll)
	})
}
