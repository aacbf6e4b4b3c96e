package jobs

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskImportVerify re-checks uploaded catalog codes after an import.
	TaskImportVerify = "import:verify"
	// TaskConsolWarmup precomputes consolidation views for active budgets.
	TaskConsolWarmup = "consol:warmup"
)

// ImportVerifyPayload carries one finished import run.
type ImportVerifyPayload struct {
	RunID string   `json:"run_id"`
	Codes []string `json:"codes"`
}

// NewImportVerifyTask constructs the verification task.
func NewImportVerifyTask(payload ImportVerifyPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskImportVerify, data, asynq.Queue(QueueDefault)), nil
}

// ConsolWarmupPayload scopes the warmup run. An empty BudgetID means
// every budget updated recently.
type ConsolWarmupPayload struct {
	BudgetID string `json:"budget_id"`
}

// NewConsolWarmupTask constructs a warmup task.
func NewConsolWarmupTask(budgetID string) (*asynq.Task, error) {
	data, err := json.Marshal(ConsolWarmupPayload{BudgetID: budgetID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskConsolWarmup, data, asynq.Queue(QueueDefault)), nil
}

// Client submits jobs to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// EnqueueImportVerification schedules the diagnostic post-import check.
func (c *Client) EnqueueImportVerification(ctx context.Context, runID string, codes []string) error {
	task, err := NewImportVerifyTask(ImportVerifyPayload{RunID: runID, Codes: codes})
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
	return err
}

// EnqueueConsolWarmup schedules a consolidation warmup.
func (c *Client) EnqueueConsolWarmup(ctx context.Context, budgetID string) error {
	task, err := NewConsolWarmupTask(budgetID)
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
	return err
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
