package budgets

import (
	"github.com/go-chi/chi/v5"

	"github.com/Paulodev-web/OrcaRede-sub001/internal/rbac"
)

// MountRoutes registers budget, folder and pole routes.
func (h *Handler) MountRoutes(r chi.Router, guard rbac.Middleware) {
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAny("budget.view"))
		r.Get("/budgets", h.List)
		r.Get("/budgets/{id}", h.Show)
		r.Get("/budgets/{id}/poles", h.ListPoles)
		r.Get("/duplications/{runID}/steps", h.DuplicationSteps)
		r.Get("/folders", h.ListFolders)
	})
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAll("budget.edit"))
		r.Post("/budgets", h.Create)
		r.Put("/budgets/{id}", h.Update)
		r.Delete("/budgets/{id}", h.Delete)
		r.Post("/budgets/{id}/duplicate", h.Duplicate)

		r.Post("/folders", h.CreateFolder)
		r.Put("/folders/{id}", h.UpdateFolder)
		r.Delete("/folders/{id}", h.DeleteFolder)

		r.Post("/budgets/{id}/poles", h.AddPole)
		r.Put("/poles/{poleID}", h.UpdatePole)
		r.Delete("/poles/{poleID}", h.RemovePole)
		r.Post("/poles/{poleID}/groups", h.AttachGroup)
		r.Delete("/poles/{poleID}/groups/{instanceID}", h.DetachGroup)
		r.Post("/poles/{poleID}/items", h.AddLooseItem)
		r.Delete("/poles/{poleID}/items/{itemID}", h.RemoveLooseItem)
	})
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAll("budget.finalize"))
		r.Post("/budgets/{id}/finalize", h.Finalize)
	})
}
