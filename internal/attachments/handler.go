package attachments

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Paulodev-web/OrcaRede-sub001/internal/platform/httpx"
	"github.com/Paulodev-web/OrcaRede-sub001/internal/rbac"
	"github.com/Paulodev-web/OrcaRede-sub001/internal/shared"
)

const maxAttachmentBytes = 32 << 20

// ObjectStore uploads bytes and returns a public URL.
type ObjectStore interface {
	Upload(ctx context.Context, path, contentType string, body io.Reader) (string, error)
}

type Handler struct {
	logger *slog.Logger
	repo   Repository
	store  ObjectStore
}

func NewHandler(logger *slog.Logger, repo Repository, store ObjectStore) *Handler {
	return &Handler{logger: logger, repo: repo, store: store}
}

func (h *Handler) MountRoutes(r chi.Router, guard rbac.Middleware) {
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAny("budget.view"))
		r.Get("/budgets/{id}/attachments", h.List)
	})
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAll("budget.edit"))
		r.Post("/budgets/{id}/attachments", h.Upload)
		r.Delete("/attachments/{id}", h.Delete)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	attachments, err := h.repo.ListByBudget(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"attachments": attachments})
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Storage Disabled", "file storage is not configured")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxAttachmentBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "multipart field \"file\" required")
		return
	}
	defer file.Close()

	budgetID := chi.URLParam(r, "id")
	contentType := header.Header.Get("Content-Type")
	path := fmt.Sprintf("budgets/%s/%s-%s", budgetID, uuid.NewString(), header.Filename)

	url, err := h.store.Upload(r.Context(), path, contentType, file)
	if err != nil {
		h.logger.Error("attachment upload failed", "error", err, "budget_id", budgetID)
		httpx.RespondError(w, err)
		return
	}

	uploadedBy := ""
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		uploadedBy = sess.User()
	}
	attachment, err := h.repo.Create(r.Context(), Attachment{
		BudgetID:    budgetID,
		FileName:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		URL:         url,
		UploadedBy:  uploadedBy,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, attachment)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
