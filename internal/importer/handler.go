package importer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Paulodev-web/OrcaRede-sub001/internal/platform/httpx"
	"github.com/Paulodev-web/OrcaRede-sub001/internal/rbac"
)

// maxUploadBytes caps workbook uploads at 20 MiB.
const maxUploadBytes = 20 << 20

// WorkbookArchive stores the raw upload for later inspection.
type WorkbookArchive interface {
	Upload(ctx context.Context, path, contentType string, body io.Reader) (string, error)
}

// VerificationEnqueuer schedules the diagnostic post-upload check.
type VerificationEnqueuer interface {
	EnqueueImportVerification(ctx context.Context, runID string, codes []string) error
}

type Handler struct {
	logger   *slog.Logger
	pipeline *Pipeline
	archive  WorkbookArchive
	verify   VerificationEnqueuer
}

// NewHandler builds the import endpoint. archive and verify may be nil
// when storage or the job queue are disabled.
func NewHandler(logger *slog.Logger, pipeline *Pipeline, archive WorkbookArchive, verify VerificationEnqueuer) *Handler {
	return &Handler{logger: logger, pipeline: pipeline, archive: archive, verify: verify}
}

func (h *Handler) MountRoutes(r chi.Router, guard rbac.Middleware) {
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAll("catalog.material.import"))
		r.Post("/materials/import", h.Import)
	})
}

// Import runs the whole pipeline synchronously. The workbook is archived
// first so a failed run can still be inspected afterwards.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "multipart field \"file\" required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "upload could not be read")
		return
	}

	runID := uuid.NewString()
	if h.archive != nil {
		path := fmt.Sprintf("imports/%s/%s-%s", time.Now().Format("2006-01-02"), runID, header.Filename)
		url, err := h.archive.Upload(r.Context(), path, header.Header.Get("Content-Type"), bytes.NewReader(data))
		if err != nil {
			// Archiving is best effort; the import itself still runs.
			h.logger.Warn("archive workbook failed", "error", err, "run_id", runID)
		} else {
			h.logger.Info("workbook archived", "run_id", runID, "url", url)
		}
	}

	result, runErr := h.pipeline.Run(r.Context(), data)
	if runErr != nil {
		httpx.JSON(w, http.StatusConflict, map[string]any{
			"run_id": runID,
			"error":  runErr.Error(),
			"result": result,
		})
		return
	}

	if h.verify != nil && len(result.UploadedCodes) > 0 {
		if err := h.verify.EnqueueImportVerification(r.Context(), runID, result.UploadedCodes); err != nil {
			h.logger.Warn("enqueue import verification failed", "error", err, "run_id", runID)
		}
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"run_id": runID,
		"result": result,
	})
}
