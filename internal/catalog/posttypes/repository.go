package posttypes

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Paulodev-web/OrcaRede-sub001/internal/catalog/shared"
	"github.com/Paulodev-web/OrcaRede-sub001/internal/platform/httpx"
)

type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]PostType, int, error)
	Get(ctx context.Context, id string) (PostType, error)
	Create(ctx context.Context, pt PostType) (PostType, error)
	Update(ctx context.Context, id string, pt PostType) error
	Delete(ctx context.Context, id string) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]PostType, int, error) {
	query := `SELECT id, code, name, description, created_at, updated_at FROM post_types WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM post_types WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	if filters.Search != "" {
		argCount++
		clause := ` AND (name ILIKE $` + strconv.Itoa(argCount) + ` OR code ILIKE $` + strconv.Itoa(argCount) + `)`
		query += clause
		countQuery += clause
		args = append(args, "%"+filters.Search+"%")
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY name ASC`
	if filters.Limit > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filters.Limit)
		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		args = append(args, filters.Offset())
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var postTypes []PostType
	for rows.Next() {
		var pt PostType
		if err := rows.Scan(&pt.ID, &pt.Code, &pt.Name, &pt.Description, &pt.CreatedAt, &pt.UpdatedAt); err != nil {
			return nil, 0, err
		}
		postTypes = append(postTypes, pt)
	}
	return postTypes, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id string) (PostType, error) {
	var pt PostType
	err := r.db.QueryRow(ctx, `SELECT id, code, name, description, created_at, updated_at FROM post_types WHERE id = $1`, id).
		Scan(&pt.ID, &pt.Code, &pt.Name, &pt.Description, &pt.CreatedAt, &pt.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PostType{}, httpx.ErrNotFound
		}
		return PostType{}, err
	}
	return pt, nil
}

func (r *repository) Create(ctx context.Context, pt PostType) (PostType, error) {
	if pt.ID == "" {
		pt.ID = uuid.NewString()
	}
	now := time.Now()
	_, err := r.db.Exec(ctx, `INSERT INTO post_types (id, code, name, description, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		pt.ID, pt.Code, pt.Name, pt.Description, now, now)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return PostType{}, httpx.ErrDuplicate
		}
		return PostType{}, err
	}
	pt.CreatedAt = now
	pt.UpdatedAt = now
	return pt, nil
}

func (r *repository) Update(ctx context.Context, id string, pt PostType) error {
	tag, err := r.db.Exec(ctx, `UPDATE post_types SET code = $1, name = $2, description = $3, updated_at = $4 WHERE id = $5`,
		pt.Code, pt.Name, pt.Description, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM post_types WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}
