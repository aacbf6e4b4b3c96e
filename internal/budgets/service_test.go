package budgets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Paulodev-web/OrcaRede-sub001/internal/catalog/materials"
	"github.com/Paulodev-web/OrcaRede-sub001/internal/catalog/shared"
	"github.com/Paulodev-web/OrcaRede-sub001/internal/platform/httpx"
)

type memoryRepo struct {
	budgets    map[string]Budget
	poles      map[string]Pole
	steps      map[string][]DuplicationStep
	nextID     int
	failAttach bool
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		budgets: make(map[string]Budget),
		poles:   make(map[string]Pole),
		steps:   make(map[string][]DuplicationStep),
	}
}

func (r *memoryRepo) id(prefix string) string {
	r.nextID++
	return fmt.Sprintf("%s-%d", prefix, r.nextID)
}

func (r *memoryRepo) ListBudgets(ctx context.Context, filters shared.ListFilters) ([]Budget, int, error) {
	var out []Budget
	for _, b := range r.budgets {
		out = append(out, b)
	}
	return out, len(out), nil
}

func (r *memoryRepo) GetBudget(ctx context.Context, id string) (Budget, error) {
	b, ok := r.budgets[id]
	if !ok {
		return Budget{}, httpx.ErrNotFound
	}
	return b, nil
}

func (r *memoryRepo) CreateBudget(ctx context.Context, b Budget) (Budget, error) {
	if b.ID == "" {
		b.ID = r.id("budget")
	}
	b.Status = StatusInProgress
	r.budgets[b.ID] = b
	return b, nil
}

func (r *memoryRepo) UpdateBudget(ctx context.Context, id string, b Budget) error {
	if _, ok := r.budgets[id]; !ok {
		return httpx.ErrNotFound
	}
	b.ID = id
	r.budgets[id] = b
	return nil
}

func (r *memoryRepo) DeleteBudget(ctx context.Context, id string) error {
	if _, ok := r.budgets[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(r.budgets, id)
	return nil
}

func (r *memoryRepo) Finalize(ctx context.Context, id string) (bool, error) {
	b, ok := r.budgets[id]
	if !ok || b.Finalized() {
		return false, nil
	}
	now := time.Now()
	b.Status = StatusFinalized
	b.FinalizedAt = &now
	r.budgets[id] = b
	return true, nil
}

func (r *memoryRepo) RecentIDs(ctx context.Context) ([]string, error) {
	var out []string
	for id, b := range r.budgets {
		if !b.Finalized() {
			out = append(out, id)
		}
	}
	return out, nil
}

func (r *memoryRepo) ListFolders(ctx context.Context) ([]Folder, error)          { return nil, nil }
func (r *memoryRepo) CreateFolder(ctx context.Context, f Folder) (Folder, error) { return f, nil }
func (r *memoryRepo) UpdateFolder(ctx context.Context, id string, f Folder) error {
	return nil
}
func (r *memoryRepo) DeleteFolder(ctx context.Context, id string) error { return nil }

func (r *memoryRepo) ListPoles(ctx context.Context, budgetID string) ([]Pole, error) {
	var out []Pole
	for _, p := range r.poles {
		if p.BudgetID == budgetID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memoryRepo) GetPole(ctx context.Context, id string) (Pole, error) {
	p, ok := r.poles[id]
	if !ok {
		return Pole{}, httpx.ErrNotFound
	}
	return p, nil
}

func (r *memoryRepo) CreatePole(ctx context.Context, p Pole) (Pole, error) {
	p.ID = r.id("pole")
	r.poles[p.ID] = p
	return p, nil
}

func (r *memoryRepo) UpdatePole(ctx context.Context, id string, p Pole) error {
	if _, ok := r.poles[id]; !ok {
		return httpx.ErrNotFound
	}
	p.ID = id
	r.poles[id] = p
	return nil
}

func (r *memoryRepo) DeletePole(ctx context.Context, id string) error {
	delete(r.poles, id)
	return nil
}

func (r *memoryRepo) AttachGroup(ctx context.Context, poleID, itemGroupID string) (PoleGroup, error) {
	if r.failAttach {
		return PoleGroup{}, errors.New("attach refused")
	}
	p, ok := r.poles[poleID]
	if !ok {
		return PoleGroup{}, httpx.ErrNotFound
	}
	g := PoleGroup{ID: r.id("inst"), ItemGroupID: itemGroupID}
	p.Groups = append(p.Groups, g)
	r.poles[poleID] = p
	return g, nil
}

func (r *memoryRepo) DetachGroup(ctx context.Context, poleID, instanceID string) error { return nil }

func (r *memoryRepo) AddLooseItem(ctx context.Context, poleID string, item LooseItem) (LooseItem, error) {
	p, ok := r.poles[poleID]
	if !ok {
		return LooseItem{}, httpx.ErrNotFound
	}
	item.ID = r.id("loose")
	p.LooseItems = append(p.LooseItems, item)
	r.poles[poleID] = p
	return item, nil
}

func (r *memoryRepo) RemoveLooseItem(ctx context.Context, poleID, itemID string) error { return nil }

func (r *memoryRepo) RecordDuplicationStep(ctx context.Context, runID string, seq int, description string) error {
	r.steps[runID] = append(r.steps[runID], DuplicationStep{RunID: runID, Seq: seq, Description: description})
	return nil
}

func (r *memoryRepo) ListDuplicationSteps(ctx context.Context, runID string) ([]DuplicationStep, error) {
	return r.steps[runID], nil
}

type fakeMaterials struct {
	items map[string]materials.Material
}

func (f *fakeMaterials) Get(ctx context.Context, id string) (materials.Material, error) {
	m, ok := f.items[id]
	if !ok {
		return materials.Material{}, httpx.ErrNotFound
	}
	return m, nil
}

func newTestService(repo *memoryRepo, catalog *fakeMaterials) *Service {
	if catalog == nil {
		catalog = &fakeMaterials{items: map[string]materials.Material{}}
	}
	return NewService(repo, catalog, nil, slog.New(slog.DiscardHandler))
}

func TestFinalizeIsOneWay(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateBudgetRequest{Name: "Rede Rural", UtilityID: "util-1"}, "user-1")
	require.NoError(t, err)

	final, err := svc.Finalize(ctx, created.ID, "user-1")
	require.NoError(t, err)
	require.True(t, final.Finalized())
	require.NotNil(t, final.FinalizedAt)

	_, err = svc.Finalize(ctx, created.ID, "user-1")
	require.ErrorIs(t, err, httpx.ErrFinalized)

	_, err = svc.Finalize(ctx, "missing", "user-1")
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestFinalizedBudgetRejectsEdits(t *testing.T) {
	repo := newMemoryRepo()
	catalog := &fakeMaterials{items: map[string]materials.Material{
		"mat-1": {ID: "mat-1", Price: 12.5},
	}}
	svc := newTestService(repo, catalog)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateBudgetRequest{Name: "Rede Urbana", UtilityID: "util-1"}, "user-1")
	require.NoError(t, err)
	pole, err := svc.AddPole(ctx, created.ID, CreatePoleRequest{Label: "P1", PostTypeID: "pt-1"})
	require.NoError(t, err)

	_, err = svc.Finalize(ctx, created.ID, "user-1")
	require.NoError(t, err)

	name := "renamed"
	_, err = svc.Update(ctx, created.ID, UpdateBudgetRequest{Name: &name})
	require.ErrorIs(t, err, httpx.ErrFinalized)

	require.ErrorIs(t, svc.Delete(ctx, created.ID), httpx.ErrFinalized)

	_, err = svc.AddPole(ctx, created.ID, CreatePoleRequest{Label: "P2", PostTypeID: "pt-1"})
	require.ErrorIs(t, err, httpx.ErrFinalized)

	_, err = svc.AttachGroup(ctx, pole.ID, AttachGroupRequest{ItemGroupID: "grp-1"})
	require.ErrorIs(t, err, httpx.ErrFinalized)

	_, err = svc.AddLooseItem(ctx, pole.ID, AddLooseItemRequest{MaterialID: "mat-1", Quantity: 2})
	require.ErrorIs(t, err, httpx.ErrFinalized)
}

func TestAddLooseItemSnapshotsPrice(t *testing.T) {
	repo := newMemoryRepo()
	catalog := &fakeMaterials{items: map[string]materials.Material{
		"mat-1": {ID: "mat-1", Price: 7.80},
	}}
	svc := newTestService(repo, catalog)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateBudgetRequest{Name: "Extensão", UtilityID: "util-1"}, "user-1")
	require.NoError(t, err)
	pole, err := svc.AddPole(ctx, created.ID, CreatePoleRequest{Label: "P1", PostTypeID: "pt-1"})
	require.NoError(t, err)

	item, err := svc.AddLooseItem(ctx, pole.ID, AddLooseItemRequest{MaterialID: "mat-1", Quantity: 3})
	require.NoError(t, err)
	require.InDelta(t, 7.80, item.PriceAtAddition, 1e-9)

	// Later catalog changes must not touch the stored snapshot.
	catalog.items["mat-1"] = materials.Material{ID: "mat-1", Price: 15.60}
	stored, err := repo.GetPole(ctx, pole.ID)
	require.NoError(t, err)
	require.InDelta(t, 7.80, stored.LooseItems[0].PriceAtAddition, 1e-9)
}

func TestDuplicateCopiesEverythingAndLogsSteps(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, nil)
	ctx := context.Background()

	source, err := svc.Create(ctx, CreateBudgetRequest{Name: "Origem", UtilityID: "util-1"}, "user-1")
	require.NoError(t, err)
	pole, err := svc.AddPole(ctx, source.ID, CreatePoleRequest{Label: "P1", PostTypeID: "pt-1"})
	require.NoError(t, err)
	_, err = repo.AttachGroup(ctx, pole.ID, "grp-1")
	require.NoError(t, err)
	_, err = repo.AddLooseItem(ctx, pole.ID, LooseItem{MaterialID: "mat-1", Quantity: 4, PriceAtAddition: 3.20})
	require.NoError(t, err)

	copied, report, err := svc.Duplicate(ctx, source.ID, "user-2")
	require.NoError(t, err)
	require.Equal(t, "Origem (copy)", copied.Name)
	require.Equal(t, StatusInProgress, copied.Status)
	require.Equal(t, copied.ID, report.NewBudgetID)

	newPoles, err := repo.ListPoles(ctx, copied.ID)
	require.NoError(t, err)
	require.Len(t, newPoles, 1)
	require.Len(t, newPoles[0].Groups, 1)
	require.Len(t, newPoles[0].LooseItems, 1)
	require.InDelta(t, 3.20, newPoles[0].LooseItems[0].PriceAtAddition, 1e-9)

	steps, err := svc.DuplicationSteps(ctx, report.RunID)
	require.NoError(t, err)
	require.Len(t, steps, len(report.Steps))
	for i, step := range steps {
		require.Equal(t, i+1, step.Seq)
		require.Equal(t, report.Steps[i], step.Description)
	}
}

func TestDuplicateFailureKeepsPartialReport(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, nil)
	ctx := context.Background()

	source, err := svc.Create(ctx, CreateBudgetRequest{Name: "Origem", UtilityID: "util-1"}, "user-1")
	require.NoError(t, err)
	pole, err := svc.AddPole(ctx, source.ID, CreatePoleRequest{Label: "P1", PostTypeID: "pt-1"})
	require.NoError(t, err)
	_, err = repo.AttachGroup(ctx, pole.ID, "grp-1")
	require.NoError(t, err)

	repo.failAttach = true
	copied, report, err := svc.Duplicate(ctx, source.ID, "user-2")
	require.Error(t, err)
	require.NotEmpty(t, report.RunID)
	require.NotEmpty(t, report.NewBudgetID)

	// The half-built copy stays; nothing is rolled back.
	_, getErr := repo.GetBudget(ctx, copied.ID)
	require.NoError(t, getErr)
	require.GreaterOrEqual(t, len(report.Steps), 2)
}
