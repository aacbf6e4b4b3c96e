package attachments

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Paulodev-web/OrcaRede-sub001/internal/platform/httpx"
)

// Attachment is a file stored against a budget, typically a signed quote
// or a site photo. The bytes live in object storage; only metadata and
// the public URL are kept here.
type Attachment struct {
	ID          string    `json:"id"`
	BudgetID    string    `json:"budget_id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	URL         string    `json:"url"`
	UploadedBy  string    `json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
}

type Repository interface {
	ListByBudget(ctx context.Context, budgetID string) ([]Attachment, error)
	Get(ctx context.Context, id string) (Attachment, error)
	Create(ctx context.Context, a Attachment) (Attachment, error)
	Delete(ctx context.Context, id string) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) ListByBudget(ctx context.Context, budgetID string) ([]Attachment, error) {
	rows, err := r.db.Query(ctx, `SELECT id, budget_id, file_name, content_type, size, url, uploaded_by, created_at FROM budget_attachments WHERE budget_id = $1 ORDER BY created_at DESC`, budgetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attachments []Attachment
	for rows.Next() {
		var a Attachment
		if err := rows.Scan(&a.ID, &a.BudgetID, &a.FileName, &a.ContentType, &a.Size, &a.URL, &a.UploadedBy, &a.CreatedAt); err != nil {
			return nil, err
		}
		attachments = append(attachments, a)
	}
	return attachments, rows.Err()
}

func (r *repository) Get(ctx context.Context, id string) (Attachment, error) {
	var a Attachment
	err := r.db.QueryRow(ctx, `SELECT id, budget_id, file_name, content_type, size, url, uploaded_by, created_at FROM budget_attachments WHERE id = $1`, id).
		Scan(&a.ID, &a.BudgetID, &a.FileName, &a.ContentType, &a.Size, &a.URL, &a.UploadedBy, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Attachment{}, httpx.ErrNotFound
		}
		return Attachment{}, err
	}
	return a, nil
}

func (r *repository) Create(ctx context.Context, a Attachment) (Attachment, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt = time.Now()
	_, err := r.db.Exec(ctx, `INSERT INTO budget_attachments (id, budget_id, file_name, content_type, size, url, uploaded_by, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.BudgetID, a.FileName, a.ContentType, a.Size, a.URL, a.UploadedBy, a.CreatedAt)
	if err != nil {
		return Attachment{}, err
	}
	return a, nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM budget_attachments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}
