package utilities

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
	List(ctx context.Context, filters shared.ListFilters) ([]Utility, int, error)
	Get(ctx context.Context, id string) (Utility, error)
	Create(ctx context.Context, u Utility) (Utility, error)
	Update(ctx context.Context, id string, u Utility) error
	Delete(ctx context.Context, id string) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Utility, int, error) {
	query := `SELECT id, name, acronym, state, created_at, updated_at FROM utilities WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM utilities WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	if filters.Search != "" {
		argCount++
		clause := ` AND (name ILIKE $` + strconv.Itoa(argCount) + ` OR acronym ILIKE $` + strconv.Itoa(argCount) + `)`
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

	var utilities []Utility
	for rows.Next() {
		var u Utility
		if err := rows.Scan(&u.ID, &u.Name, &u.Acronym, &u.State, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, 0, err
		}
		utilities = append(utilities, u)
	}
	return utilities, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id string) (Utility, error) {
	var u Utility
	err := r.db.QueryRow(ctx, `SELECT id, name, acronym, state, created_at, updated_at FROM utilities WHERE id = $1`, id).
		Scan(&u.ID, &u.Name, &u.Acronym, &u.State, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Utility{}, httpx.ErrNotFound
		}
		return Utility{}, err
	}
	return u, nil
}

func (r *repository) Create(ctx context.Context, u Utility) (Utility, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now()
	_, err := r.db.Exec(ctx, `INSERT INTO utilities (id, name, acronym, state, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Name, u.Acronym, u.State, now, now)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Utility{}, httpx.ErrDuplicate
		}
		return Utility{}, err
	}
	u.CreatedAt = now
	u.UpdatedAt = now
	return u, nil
}

func (r *repository) Update(ctx context.Context, id string, u Utility) error {
	tag, err := r.db.Exec(ctx, `UPDATE utilities SET name = $1, acronym = $2, state = $3, updated_at = $4 WHERE id = $5`,
		u.Name, u.Acronym, u.State, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM utilities WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}
