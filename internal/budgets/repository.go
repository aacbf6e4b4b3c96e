package budgets

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

const budgetColumns = `id, name, client_name, city, utility_id, folder_id, status, created_by, finalized_at, created_at, updated_at`

type Repository interface {
	ListBudgets(ctx context.Context, filters shared.ListFilters) ([]Budget, int, error)
	GetBudget(ctx context.Context, id string) (Budget, error)
	CreateBudget(ctx context.Context, b Budget) (Budget, error)
	UpdateBudget(ctx context.Context, id string, b Budget) error
	DeleteBudget(ctx context.Context, id string) error
	Finalize(ctx context.Context, id string) (bool, error)
	RecentIDs(ctx context.Context) ([]string, error)

	ListFolders(ctx context.Context) ([]Folder, error)
	CreateFolder(ctx context.Context, f Folder) (Folder, error)
	UpdateFolder(ctx context.Context, id string, f Folder) error
	DeleteFolder(ctx context.Context, id string) error

	ListPoles(ctx context.Context, budgetID string) ([]Pole, error)
	GetPole(ctx context.Context, id string) (Pole, error)
	CreatePole(ctx context.Context, p Pole) (Pole, error)
	UpdatePole(ctx context.Context, id string, p Pole) error
	DeletePole(ctx context.Context, id string) error

	AttachGroup(ctx context.Context, poleID, itemGroupID string) (PoleGroup, error)
	DetachGroup(ctx context.Context, poleID, instanceID string) error
	AddLooseItem(ctx context.Context, poleID string, item LooseItem) (LooseItem, error)
	RemoveLooseItem(ctx context.Context, poleID, itemID string) error

	RecordDuplicationStep(ctx context.Context, runID string, seq int, description string) error
	ListDuplicationSteps(ctx context.Context, runID string) ([]DuplicationStep, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) ListBudgets(ctx context.Context, filters shared.ListFilters) ([]Budget, int, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM budgets WHERE 1=1`
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
		clause := ` AND (name ILIKE $` + strconv.Itoa(argCount) + ` OR client_name ILIKE $` + strconv.Itoa(argCount) + `)`
		query += clause
		countQuery += clause
		args = append(args, "%"+filters.Search+"%")
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY updated_at DESC`
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

	var budgets []Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, 0, err
		}
		budgets = append(budgets, b)
	}
	return budgets, total, rows.Err()
}

func (r *repository) GetBudget(ctx context.Context, id string) (Budget, error) {
	row := r.db.QueryRow(ctx, `SELECT `+budgetColumns+` FROM budgets WHERE id = $1`, id)
	b, err := scanBudget(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Budget{}, httpx.ErrNotFound
		}
		return Budget{}, err
	}
	return b, nil
}

func (r *repository) CreateBudget(ctx context.Context, b Budget) (Budget, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	now := time.Now()
	_, err := r.db.Exec(ctx, `INSERT INTO budgets (id, name, client_name, city, utility_id, folder_id, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		b.ID, b.Name, b.ClientName, b.City, b.UtilityID, b.FolderID, StatusInProgress, b.CreatedBy, now, now)
	if err != nil {
		return Budget{}, mapPgError(err)
	}
	b.Status = StatusInProgress
	b.CreatedAt = now
	b.UpdatedAt = now
	return b, nil
}

func (r *repository) UpdateBudget(ctx context.Context, id string, b Budget) error {
	tag, err := r.db.Exec(ctx, `UPDATE budgets SET name = $1, client_name = $2, city = $3, folder_id = $4, updated_at = $5 WHERE id = $6`,
		b.Name, b.ClientName, b.City, b.FolderID, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *repository) DeleteBudget(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM budgets WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// Finalize invokes the finalize_budget database function. It returns
// false when no row moved to FINALIZED, which means the budget is either
// missing or already finalized; the caller distinguishes the two.
func (r *repository) Finalize(ctx context.Context, id string) (bool, error) {
	var ok bool
	if err := r.db.QueryRow(ctx, `SELECT finalize_budget($1)`, id).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

// RecentIDs lists in-progress budgets touched in the last day, newest
// first. Used by the cache warmup job.
func (r *repository) RecentIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM budgets WHERE status = $1 AND updated_at > NOW() - INTERVAL '1 day' ORDER BY updated_at DESC`, StatusInProgress)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *repository) ListFolders(ctx context.Context) ([]Folder, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, description, created_at, updated_at FROM folders ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var folders []Folder
	for rows.Next() {
		var f Folder
		if err := rows.Scan(&f.ID, &f.Name, &f.Description, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

func (r *repository) CreateFolder(ctx context.Context, f Folder) (Folder, error) {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	now := time.Now()
	_, err := r.db.Exec(ctx, `INSERT INTO folders (id, name, description, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		f.ID, f.Name, f.Description, now, now)
	if err != nil {
		return Folder{}, mapPgError(err)
	}
	f.CreatedAt = now
	f.UpdatedAt = now
	return f, nil
}

func (r *repository) UpdateFolder(ctx context.Context, id string, f Folder) error {
	tag, err := r.db.Exec(ctx, `UPDATE folders SET name = $1, description = $2, updated_at = $3 WHERE id = $4`,
		f.Name, f.Description, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// DeleteFolder detaches budgets before removing the folder.
func (r *repository) DeleteFolder(ctx context.Context, id string) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `UPDATE budgets SET folder_id = NULL WHERE folder_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM folders WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return httpx.ErrNotFound
		}
		return nil
	})
}

func (r *repository) ListPoles(ctx context.Context, budgetID string) ([]Pole, error) {
	rows, err := r.db.Query(ctx, `SELECT id, budget_id, label, position, post_type_id, created_at, updated_at FROM poles WHERE budget_id = $1 ORDER BY position ASC`, budgetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var poles []Pole
	ids := []string{}
	for rows.Next() {
		var p Pole
		if err := rows.Scan(&p.ID, &p.BudgetID, &p.Label, &p.Position, &p.PostTypeID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		poles = append(poles, p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadPoleChildren(ctx, ids, poles); err != nil {
		return nil, err
	}
	return poles, nil
}

func (r *repository) GetPole(ctx context.Context, id string) (Pole, error) {
	var p Pole
	err := r.db.QueryRow(ctx, `SELECT id, budget_id, label, position, post_type_id, created_at, updated_at FROM poles WHERE id = $1`, id).
		Scan(&p.ID, &p.BudgetID, &p.Label, &p.Position, &p.PostTypeID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Pole{}, httpx.ErrNotFound
		}
		return Pole{}, err
	}
	poles := []Pole{p}
	if err := r.loadPoleChildren(ctx, []string{id}, poles); err != nil {
		return Pole{}, err
	}
	return poles[0], nil
}

// loadPoleChildren fills group instances and loose items for the given
// poles in place. Attachment order is creation order.
func (r *repository) loadPoleChildren(ctx context.Context, ids []string, poles []Pole) error {
	if len(ids) == 0 {
		return nil
	}
	index := make(map[string]int, len(poles))
	for i, p := range poles {
		index[p.ID] = i
	}

	groupRows, err := r.db.Query(ctx, `SELECT id, pole_id, item_group_id, created_at FROM pole_groups WHERE pole_id = ANY($1) ORDER BY created_at ASC, id ASC`, ids)
	if err != nil {
		return err
	}
	defer groupRows.Close()
	for groupRows.Next() {
		var poleID string
		var g PoleGroup
		if err := groupRows.Scan(&g.ID, &poleID, &g.ItemGroupID, &g.CreatedAt); err != nil {
			return err
		}
		if i, ok := index[poleID]; ok {
			poles[i].Groups = append(poles[i].Groups, g)
		}
	}
	if err := groupRows.Err(); err != nil {
		return err
	}

	itemRows, err := r.db.Query(ctx, `SELECT id, pole_id, material_id, quantity, price_at_addition, created_at FROM pole_loose_items WHERE pole_id = ANY($1) ORDER BY created_at ASC, id ASC`, ids)
	if err != nil {
		return err
	}
	defer itemRows.Close()
	for itemRows.Next() {
		var poleID string
		var item LooseItem
		if err := itemRows.Scan(&item.ID, &poleID, &item.MaterialID, &item.Quantity, &item.PriceAtAddition, &item.CreatedAt); err != nil {
			return err
		}
		if i, ok := index[poleID]; ok {
			poles[i].LooseItems = append(poles[i].LooseItems, item)
		}
	}
	return itemRows.Err()
}

func (r *repository) CreatePole(ctx context.Context, p Pole) (Pole, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now()
	err := r.db.QueryRow(ctx, `INSERT INTO poles (id, budget_id, label, position, post_type_id, created_at, updated_at)
		VALUES ($1, $2, $3, COALESCE((SELECT MAX(position) + 1 FROM poles WHERE budget_id = $2), 0), $4, $5, $6)
		RETURNING position`,
		p.ID, p.BudgetID, p.Label, p.PostTypeID, now, now).Scan(&p.Position)
	if err != nil {
		return Pole{}, mapPgError(err)
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	return p, nil
}

func (r *repository) UpdatePole(ctx context.Context, id string, p Pole) error {
	tag, err := r.db.Exec(ctx, `UPDATE poles SET label = $1, position = $2, post_type_id = $3, updated_at = $4 WHERE id = $5`,
		p.Label, p.Position, p.PostTypeID, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *repository) DeletePole(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM poles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *repository) AttachGroup(ctx context.Context, poleID, itemGroupID string) (PoleGroup, error) {
	g := PoleGroup{ID: uuid.NewString(), ItemGroupID: itemGroupID, CreatedAt: time.Now()}
	_, err := r.db.Exec(ctx, `INSERT INTO pole_groups (id, pole_id, item_group_id, created_at) VALUES ($1, $2, $3, $4)`,
		g.ID, poleID, itemGroupID, g.CreatedAt)
	if err != nil {
		return PoleGroup{}, mapPgError(err)
	}
	return g, nil
}

func (r *repository) DetachGroup(ctx context.Context, poleID, instanceID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM pole_groups WHERE id = $1 AND pole_id = $2`, instanceID, poleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *repository) AddLooseItem(ctx context.Context, poleID string, item LooseItem) (LooseItem, error) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	item.CreatedAt = time.Now()
	_, err := r.db.Exec(ctx, `INSERT INTO pole_loose_items (id, pole_id, material_id, quantity, price_at_addition, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		item.ID, poleID, item.MaterialID, item.Quantity, item.PriceAtAddition, item.CreatedAt)
	if err != nil {
		return LooseItem{}, mapPgError(err)
	}
	return item, nil
}

func (r *repository) RemoveLooseItem(ctx context.Context, poleID, itemID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM pole_loose_items WHERE id = $1 AND pole_id = $2`, itemID, poleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *repository) RecordDuplicationStep(ctx context.Context, runID string, seq int, description string) error {
	_, err := r.db.Exec(ctx, `INSERT INTO budget_duplication_steps (run_id, seq, description, created_at) VALUES ($1, $2, $3, $4)`,
		runID, seq, description, time.Now())
	return err
}

func (r *repository) ListDuplicationSteps(ctx context.Context, runID string) ([]DuplicationStep, error) {
	rows, err := r.db.Query(ctx, `SELECT run_id, seq, description, created_at FROM budget_duplication_steps WHERE run_id = $1 ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var steps []DuplicationStep
	for rows.Next() {
		var s DuplicationStep
		if err := rows.Scan(&s.RunID, &s.Seq, &s.Description, &s.CreatedAt); err != nil {
			return nil, err
		}
		steps = append(steps, s)
	}
	return steps, rows.Err()
}

func scanBudget(row pgx.Row) (Budget, error) {
	var b Budget
	err := row.Scan(&b.ID, &b.Name, &b.ClientName, &b.City, &b.UtilityID, &b.FolderID, &b.Status, &b.CreatedBy, &b.FinalizedAt, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return httpx.ErrDuplicate
		case "23503":
			return httpx.ErrNotFound
		}
	}
	return err
}
