package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Paulodev-web/OrcaRede-sub001/internal/attachments"
	"github.com/Paulodev-web/OrcaRede-sub001/internal/auth"
	"github.com/Paulodev-web/OrcaRede-sub001/internal/budgets"
	"github.com/Paulodev-web/OrcaRede-sub001/internal/catalog/itemgroups"
	"github.com/Paulodev-web/OrcaRede-sub001/internal/catalog/materials"
	"github.com/Paulodev-web/OrcaRede-sub001/internal/catalog/posttypes"
	"github.com/Paulodev-web/OrcaRede-sub001/internal/catalog/utilities"
	"github.com/Paulodev-web/OrcaRede-sub001/internal/consol"
	"github.com/Paulodev-web/OrcaRede-sub001/internal/importer"
	"github.com/Paulodev-web/OrcaRede-sub001/internal/observability"
	"github.com/Paulodev-web/OrcaRede-sub001/internal/rbac"
	"github.com/Paulodev-web/OrcaRede-sub001/internal/shared"
	"github.com/Paulodev-web/OrcaRede-sub001/internal/users"
	"github.com/Paulodev-web/OrcaRede-sub001/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	RBACMiddleware rbac.Middleware

	AuthHandler        *auth.Handler
	UsersHandler       *users.Handler
	RBACHandler        *rbac.Handler
	MaterialsHandler   *materials.Handler
	PostTypesHandler   *posttypes.Handler
	UtilitiesHandler   *utilities.Handler
	ItemGroupsHandler  *itemgroups.Handler
	BudgetsHandler     *budgets.Handler
	ConsolHandler      *consol.Handler
	ImportHandler      *importer.Handler
	AttachmentsHandler *attachments.Handler
	JobHandler         *jobs.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router for the JSON API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		params.AuthHandler.MountRoutes(r)
		params.UsersHandler.MountRoutes(r, params.RBACMiddleware)
		params.RBACHandler.MountRoutes(r)
		params.MaterialsHandler.MountRoutes(r, params.RBACMiddleware)
		params.PostTypesHandler.MountRoutes(r, params.RBACMiddleware)
		params.UtilitiesHandler.MountRoutes(r, params.RBACMiddleware)
		params.ItemGroupsHandler.MountRoutes(r, params.RBACMiddleware)
		params.BudgetsHandler.MountRoutes(r, params.RBACMiddleware)
		params.ConsolHandler.MountRoutes(r, params.RBACMiddleware)
		params.ImportHandler.MountRoutes(r, params.RBACMiddleware)
		if params.AttachmentsHandler != nil {
			params.AttachmentsHandler.MountRoutes(r, params.RBACMiddleware)
		}
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
