package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
)

// Consolidator rebuilds the cached consolidation view for a budget.
type Consolidator interface {
	WarmBudget(ctx context.Context, budgetID string) error
	RecentBudgetIDs(ctx context.Context) ([]string, error)
}

// ConsolWarmupJob keeps consolidation caches hot for budgets that were
// touched recently, so the first viewer after an edit does not pay the
// recompute cost.
type ConsolWarmupJob struct {
	Service Consolidator
	Logger  *slog.Logger
}

// NewConsolWarmupJob constructs the job handler.
func NewConsolWarmupJob(service Consolidator, logger *slog.Logger) *ConsolWarmupJob {
	return &ConsolWarmupJob{Service: service, Logger: logger}
}

// Handle executes one warmup run.
func (j *ConsolWarmupJob) Handle(ctx context.Context, task *asynq.Task) error {
	var payload ConsolWarmupPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	ids := []string{payload.BudgetID}
	if payload.BudgetID == "" {
		recent, err := j.Service.RecentBudgetIDs(ctx)
		if err != nil {
			j.Logger.Error("consolidation warmup listing failed", "error", err)
			return err
		}
		ids = recent
	}

	warmed := 0
	for _, id := range ids {
		if err := j.Service.WarmBudget(ctx, id); err != nil {
			// One broken budget must not starve the rest of the run.
			j.Logger.Warn("consolidation warmup failed", "error", err, "budget_id", id)
			continue
		}
		warmed++
	}
	j.Logger.Info("consolidation warmup done", "budgets", len(ids), "warmed", warmed)
	return nil
}
