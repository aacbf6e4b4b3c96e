package itemgroups

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
	"github.com/Paulodev-web/OrcaRede-sub001/internal/platform/db"
	"github.com/Paulodev-web/OrcaRede-sub001/internal/platform/httpx"
)

type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]ItemGroup, int, error)
	Get(ctx context.Context, id string) (ItemGroup, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]ItemGroup, error)
	Create(ctx context.Context, group ItemGroup) (ItemGroup, error)
	Update(ctx context.Context, id string, group ItemGroup) error
	ReplaceItems(ctx context.Context, id string, items []GroupItem) error
	Delete(ctx context.Context, id string) error
	Version(ctx context.Context) (string, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]ItemGroup, int, error) {
	query := `SELECT id, utility_id, name, description, created_at, updated_at FROM item_groups WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM item_groups WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	if filters.UtilityID != nil {
		argCount++
		clause := ` AND utility_id = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, *filters.UtilityID)
	}
	if filters.Search != "" {
		argCount++
		clause := ` AND name ILIKE $` + strconv.Itoa(argCount)
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

	var groups []ItemGroup
	for rows.Next() {
		var g ItemGroup
		if err := rows.Scan(&g.ID, &g.UtilityID, &g.Name, &g.Description, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, 0, err
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return groups, total, nil
}

func (r *repository) Get(ctx context.Context, id string) (ItemGroup, error) {
	var g ItemGroup
	err := r.db.QueryRow(ctx, `SELECT id, utility_id, name, description, created_at, updated_at FROM item_groups WHERE id = $1`, id).
		Scan(&g.ID, &g.UtilityID, &g.Name, &g.Description, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ItemGroup{}, httpx.ErrNotFound
		}
		return ItemGroup{}, err
	}
	items, err := r.loadItems(ctx, []string{id})
	if err != nil {
		return ItemGroup{}, err
	}
	g.Items = items[id]
	return g, nil
}

// GetByIDs loads groups with their items in two queries. Unknown IDs are
// simply absent from the result map.
func (r *repository) GetByIDs(ctx context.Context, ids []string) (map[string]ItemGroup, error) {
	result := make(map[string]ItemGroup, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	rows, err := r.db.Query(ctx, `SELECT id, utility_id, name, description, created_at, updated_at FROM item_groups WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var g ItemGroup
		if err := rows.Scan(&g.ID, &g.UtilityID, &g.Name, &g.Description, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		result[g.ID] = g
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	found := make([]string, 0, len(result))
	for id := range result {
		found = append(found, id)
	}
	items, err := r.loadItems(ctx, found)
	if err != nil {
		return nil, err
	}
	for id, list := range items {
		g := result[id]
		g.Items = list
		result[id] = g
	}
	return result, nil
}

func (r *repository) loadItems(ctx context.Context, groupIDs []string) (map[string][]GroupItem, error) {
	items := make(map[string][]GroupItem, len(groupIDs))
	if len(groupIDs) == 0 {
		return items, nil
	}
	rows, err := r.db.Query(ctx, `SELECT group_id, material_id, quantity FROM item_group_items WHERE group_id = ANY($1) ORDER BY position ASC`, groupIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var groupID string
		var item GroupItem
		if err := rows.Scan(&groupID, &item.MaterialID, &item.Quantity); err != nil {
			return nil, err
		}
		items[groupID] = append(items[groupID], item)
	}
	return items, rows.Err()
}

func (r *repository) Create(ctx context.Context, group ItemGroup) (ItemGroup, error) {
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	now := time.Now()
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return ItemGroup{}, err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `INSERT INTO item_groups (id, utility_id, name, description, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		group.ID, group.UtilityID, group.Name, group.Description, now, now)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ItemGroup{}, httpx.ErrDuplicate
		}
		return ItemGroup{}, err
	}
	if err := insertItems(ctx, tx, group.ID, group.Items); err != nil {
		return ItemGroup{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return ItemGroup{}, err
	}
	group.CreatedAt = now
	group.UpdatedAt = now
	return group, nil
}

func (r *repository) Update(ctx context.Context, id string, group ItemGroup) error {
	tag, err := r.db.Exec(ctx, `UPDATE item_groups SET name = $1, description = $2, updated_at = $3 WHERE id = $4`,
		group.Name, group.Description, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// ReplaceItems swaps the full composition atomically.
func (r *repository) ReplaceItems(ctx context.Context, id string, items []GroupItem) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM item_groups WHERE id = $1)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return httpx.ErrNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM item_group_items WHERE group_id = $1`, id); err != nil {
			return err
		}
		if err := insertItems(ctx, tx, id, items); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `UPDATE item_groups SET updated_at = $1 WHERE id = $2`, time.Now(), id)
		return err
	})
}

func insertItems(ctx context.Context, tx pgx.Tx, groupID string, items []GroupItem) error {
	for i, item := range items {
		_, err := tx.Exec(ctx, `INSERT INTO item_group_items (group_id, material_id, quantity, position) VALUES ($1, $2, $3, $4)`,
			groupID, item.MaterialID, item.Quantity, i)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM item_groups WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// Version fingerprints template state for cache keys. Every mutation
// either changes the row count or bumps an updated_at, including item
// replacement, which touches the parent group.
func (r *repository) Version(ctx context.Context) (string, error) {
	var count int
	var latest *time.Time
	err := r.db.QueryRow(ctx, `SELECT COUNT(*), MAX(updated_at) FROM item_groups`).Scan(&count, &latest)
	if err != nil {
		return "", err
	}
	if latest == nil {
		return "0:empty", nil
	}
	return strconv.Itoa(count) + ":" + strconv.FormatInt(latest.UnixNano(), 10), nil
}
