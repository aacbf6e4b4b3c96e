package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/Paulodev-web/OrcaRede-sub001/internal/catalog/materials"
)

// CatalogReader is the lookup slice needed to verify an import run.
type CatalogReader interface {
	GetByCodes(ctx context.Context, codes []string) ([]materials.Material, error)
}

// ImportVerifyJob re-queries the catalog for the codes an import run
// uploaded and logs any that the dedup procedure silently dropped. It is
// diagnostic only: nothing is retried or corrected.
type ImportVerifyJob struct {
	Catalog CatalogReader
	Logger  *slog.Logger
}

// NewImportVerifyJob constructs the job handler.
func NewImportVerifyJob(catalog CatalogReader, logger *slog.Logger) *ImportVerifyJob {
	return &ImportVerifyJob{Catalog: catalog, Logger: logger}
}

// Handle executes the verification.
func (j *ImportVerifyJob) Handle(ctx context.Context, task *asynq.Task) error {
	var payload ImportVerifyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if len(payload.Codes) == 0 {
		return nil
	}

	found, err := j.Catalog.GetByCodes(ctx, payload.Codes)
	if err != nil {
		j.Logger.Error("import verification query failed", "error", err, "run_id", payload.RunID)
		return err
	}

	present := make(map[string]struct{}, len(found))
	for _, m := range found {
		present[m.Code] = struct{}{}
	}
	var missing []string
	for _, code := range payload.Codes {
		if _, ok := present[code]; !ok {
			missing = append(missing, code)
		}
	}

	if len(missing) > 0 {
		j.Logger.Warn("import verification found missing codes",
			"run_id", payload.RunID,
			"sent", len(payload.Codes),
			"missing", len(missing),
			"codes", missing,
		)
	} else {
		j.Logger.Info("import verification clean",
			"run_id", payload.RunID,
			"sent", len(payload.Codes),
		)
	}
	return nil
}
