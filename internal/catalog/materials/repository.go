package materials

import (
	"context"
	"encoding/json"
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
	List(ctx context.Context, filters shared.ListFilters) ([]Material, int, error)
	Get(ctx context.Context, id string) (Material, error)
	GetByCodes(ctx context.Context, codes []string) ([]Material, error)
	Create(ctx context.Context, material Material) (Material, error)
	Update(ctx context.Context, id string, material Material) error
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (int, error)
	ImportIgnoreDuplicates(ctx context.Context, batch []ImportRecord) (ImportCounts, error)
	Version(ctx context.Context) (string, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const materialColumns = `id, code, description, unit, price, created_at, updated_at`

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Material, int, error) {
	query := `SELECT ` + materialColumns + ` FROM materials WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM materials WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	if filters.Search != "" {
		argCount++
		clause := ` AND (description ILIKE $` + strconv.Itoa(argCount) + ` OR code ILIKE $` + strconv.Itoa(argCount) + `)`
		query += clause
		countQuery += clause
		args = append(args, "%"+filters.Search+"%")
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += " ORDER BY " + sortOrder(filters.SortBy, filters.SortDir)

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

	var materials []Material
	for rows.Next() {
		var m Material
		if err := rows.Scan(&m.ID, &m.Code, &m.Description, &m.Unit, &m.Price, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, 0, err
		}
		materials = append(materials, m)
	}
	return materials, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id string) (Material, error) {
	var m Material
	err := r.db.QueryRow(ctx, `SELECT `+materialColumns+` FROM materials WHERE id = $1`, id).
		Scan(&m.ID, &m.Code, &m.Description, &m.Unit, &m.Price, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Material{}, httpx.ErrNotFound
		}
		return Material{}, err
	}
	return m, nil
}

func (r *repository) GetByCodes(ctx context.Context, codes []string) ([]Material, error) {
	rows, err := r.db.Query(ctx, `SELECT `+materialColumns+` FROM materials WHERE code = ANY($1)`, codes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var materials []Material
	for rows.Next() {
		var m Material
		if err := rows.Scan(&m.ID, &m.Code, &m.Description, &m.Unit, &m.Price, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		materials = append(materials, m)
	}
	return materials, rows.Err()
}

func (r *repository) Create(ctx context.Context, material Material) (Material, error) {
	if material.ID == "" {
		material.ID = uuid.NewString()
	}
	now := time.Now()
	_, err := r.db.Exec(ctx, `INSERT INTO materials (id, code, description, unit, price, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		material.ID, material.Code, material.Description, material.Unit, material.Price, now, now)
	if err != nil {
		return Material{}, mapPgError(err)
	}
	material.CreatedAt = now
	material.UpdatedAt = now
	return material, nil
}

func (r *repository) Update(ctx context.Context, id string, material Material) error {
	tag, err := r.db.Exec(ctx, `UPDATE materials SET code = $1, description = $2, unit = $3, price = $4, updated_at = $5 WHERE id = $6`,
		material.Code, material.Description, material.Unit, material.Price, time.Now(), id)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM materials WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// DeleteAll invokes the server-side procedure so the wipe stays atomic with
// its dependent cleanups.
func (r *repository) DeleteAll(ctx context.Context) (int, error) {
	var removed int
	if err := r.db.QueryRow(ctx, `SELECT delete_all_materials()`).Scan(&removed); err != nil {
		return 0, err
	}
	return removed, nil
}

// ImportIgnoreDuplicates forwards one batch to the server-side dedup-upsert
// procedure. Codes already present in the catalog are skipped there, not here.
func (r *repository) ImportIgnoreDuplicates(ctx context.Context, batch []ImportRecord) (ImportCounts, error) {
	payload, err := json.Marshal(batch)
	if err != nil {
		return ImportCounts{}, err
	}
	var counts ImportCounts
	err = r.db.QueryRow(ctx, `SELECT inserted, skipped FROM import_materials_ignore_duplicates($1::jsonb)`, payload).
		Scan(&counts.Inserted, &counts.Skipped)
	if err != nil {
		return ImportCounts{}, err
	}
	return counts, nil
}

// Version is a cheap fingerprint of catalog state. Any insert, update or
// delete changes it, which is what consolidation caching keys on.
func (r *repository) Version(ctx context.Context) (string, error) {
	var count int
	var latest *time.Time
	err := r.db.QueryRow(ctx, `SELECT COUNT(*), MAX(updated_at) FROM materials`).Scan(&count, &latest)
	if err != nil {
		return "", err
	}
	if latest == nil {
		return "0:empty", nil
	}
	return strconv.Itoa(count) + ":" + strconv.FormatInt(latest.UnixNano(), 10), nil
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return httpx.ErrDuplicate
	}
	return err
}

func sortOrder(sortBy, sortDir string) string {
	dir := "ASC"
	if sortDir == "desc" {
		dir = "DESC"
	}
	switch sortBy {
	case "code":
		return "code " + dir
	case "price":
		return "price " + dir
	case "created_at":
		return "created_at " + dir
	default:
		return "description " + dir
	}
}
