package consol

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/Paulodev-web/OrcaRede-sub001/internal/budgets"
	"github.com/Paulodev-web/OrcaRede-sub001/internal/catalog/itemgroups"
	"github.com/Paulodev-web/OrcaRede-sub001/internal/catalog/materials"
	"github.com/Paulodev-web/OrcaRede-sub001/internal/platform/httpx"
)

type fakeBudgetSource struct {
	budget    budgets.Budget
	poles     []budgets.Pole
	listCalls int
}

func (f *fakeBudgetSource) Get(ctx context.Context, id string) (budgets.Budget, error) {
	if id != f.budget.ID {
		return budgets.Budget{}, httpx.ErrNotFound
	}
	return f.budget, nil
}

func (f *fakeBudgetSource) ListPoles(ctx context.Context, budgetID string) ([]budgets.Pole, error) {
	f.listCalls++
	return f.poles, nil
}

func (f *fakeBudgetSource) RecentIDs(ctx context.Context) ([]string, error) {
	return []string{f.budget.ID}, nil
}

type fakeGroupSource struct {
	groups  map[string]itemgroups.ItemGroup
	version string
	calls   int
}

func (f *fakeGroupSource) GetByIDs(ctx context.Context, ids []string) (map[string]itemgroups.ItemGroup, error) {
	f.calls++
	out := make(map[string]itemgroups.ItemGroup)
	for _, id := range ids {
		if g, ok := f.groups[id]; ok {
			out[id] = g
		}
	}
	return out, nil
}

func (f *fakeGroupSource) Version(ctx context.Context) (string, error) {
	return f.version, nil
}

type fakeMaterialSource struct {
	items   []materials.Material
	version string
	calls   int
}

func (f *fakeMaterialSource) ListAll(ctx context.Context) ([]materials.Material, error) {
	f.calls++
	return f.items, nil
}

func (f *fakeMaterialSource) Version(ctx context.Context) (string, error) {
	return f.version, nil
}

func newCachedService(t *testing.T) (*Service, *fakeBudgetSource, *fakeGroupSource, *fakeMaterialSource) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	budgetSrc := &fakeBudgetSource{
		budget: budgets.Budget{ID: "budget-1", UpdatedAt: time.Unix(1000, 0)},
		poles: []budgets.Pole{
			{
				ID:        "pole-1",
				UpdatedAt: time.Unix(900, 0),
				Groups:    []budgets.PoleGroup{{ID: "inst-1", ItemGroupID: "grp-1"}},
				LooseItems: []budgets.LooseItem{
					{ID: "loose-1", MaterialID: "mat-2", Quantity: 2},
				},
			},
		},
	}
	groupSrc := &fakeGroupSource{
		groups: map[string]itemgroups.ItemGroup{
			"grp-1": {ID: "grp-1", Items: []itemgroups.GroupItem{{MaterialID: "mat-1", Quantity: 3}}},
		},
		version: "1:1000",
	}
	materialSrc := &fakeMaterialSource{
		items: []materials.Material{
			{ID: "mat-1", Code: "C-1", Price: 10},
			{ID: "mat-2", Code: "C-2", Price: 5},
		},
		version: "2:1000",
	}

	svc := NewService(budgetSrc, groupSrc, materialSrc, client, time.Minute, slog.New(slog.DiscardHandler))
	return svc, budgetSrc, groupSrc, materialSrc
}

func TestForBudgetMemoizes(t *testing.T) {
	svc, _, groupSrc, materialSrc := newCachedService(t)
	ctx := context.Background()

	first, err := svc.ForBudget(ctx, "budget-1")
	require.NoError(t, err)
	require.InDelta(t, 3*10+2*5, first.GrandTotal, 1e-9)
	require.Equal(t, 1, groupSrc.calls)
	require.Equal(t, 1, materialSrc.calls)

	second, err := svc.ForBudget(ctx, "budget-1")
	require.NoError(t, err)
	require.Equal(t, first, second)
	// The cached entry served the second call.
	require.Equal(t, 1, groupSrc.calls)
	require.Equal(t, 1, materialSrc.calls)
}

func TestForBudgetRecomputesOnCatalogChange(t *testing.T) {
	svc, _, groupSrc, materialSrc := newCachedService(t)
	ctx := context.Background()

	_, err := svc.ForBudget(ctx, "budget-1")
	require.NoError(t, err)

	materialSrc.version = "2:2000"
	materialSrc.items[0].Price = 20

	result, err := svc.ForBudget(ctx, "budget-1")
	require.NoError(t, err)
	require.InDelta(t, 3*20+2*5, result.GrandTotal, 1e-9)
	require.Equal(t, 2, groupSrc.calls)
	require.Equal(t, 2, materialSrc.calls)
}

func TestForBudgetRecomputesOnPoleChange(t *testing.T) {
	svc, budgetSrc, groupSrc, _ := newCachedService(t)
	ctx := context.Background()

	_, err := svc.ForBudget(ctx, "budget-1")
	require.NoError(t, err)

	budgetSrc.poles[0].LooseItems = append(budgetSrc.poles[0].LooseItems,
		budgets.LooseItem{ID: "loose-2", MaterialID: "mat-1", Quantity: 1})

	result, err := svc.ForBudget(ctx, "budget-1")
	require.NoError(t, err)
	require.Equal(t, 2, groupSrc.calls)
	require.InDelta(t, 4*10+2*5, result.GrandTotal, 1e-9)
}

func TestForBudgetRecomputesOnGroupTemplateChange(t *testing.T) {
	svc, _, groupSrc, _ := newCachedService(t)
	ctx := context.Background()

	first, err := svc.ForBudget(ctx, "budget-1")
	require.NoError(t, err)
	require.InDelta(t, 3*10+2*5, first.GrandTotal, 1e-9)

	// Template edit with untouched budget, poles and catalog.
	groupSrc.groups["grp-1"] = itemgroups.ItemGroup{
		ID:    "grp-1",
		Items: []itemgroups.GroupItem{{MaterialID: "mat-1", Quantity: 30}},
	}
	groupSrc.version = "1:2000"

	result, err := svc.ForBudget(ctx, "budget-1")
	require.NoError(t, err)
	require.Equal(t, 2, groupSrc.calls)
	require.InDelta(t, 30*10+2*5, result.GrandTotal, 1e-9)
}

func TestForBudgetWithoutCache(t *testing.T) {
	_, budgetSrc, groupSrc, materialSrc := newCachedService(t)
	svc := NewService(budgetSrc, groupSrc, materialSrc, nil, time.Minute, slog.New(slog.DiscardHandler))
	ctx := context.Background()

	_, err := svc.ForBudget(ctx, "budget-1")
	require.NoError(t, err)
	_, err = svc.ForBudget(ctx, "budget-1")
	require.NoError(t, err)
	require.Equal(t, 2, groupSrc.calls)
}

func TestInvalidateDropsEntry(t *testing.T) {
	svc, _, groupSrc, _ := newCachedService(t)
	ctx := context.Background()

	_, err := svc.ForBudget(ctx, "budget-1")
	require.NoError(t, err)

	svc.Invalidate(ctx, "budget-1")

	_, err = svc.ForBudget(ctx, "budget-1")
	require.NoError(t, err)
	require.Equal(t, 2, groupSrc.calls)
}

func TestForBudgetUnknownBudget(t *testing.T) {
	svc, _, _, _ := newCachedService(t)
	_, err := svc.ForBudget(context.Background(), "missing")
	require.ErrorIs(t, err, httpx.ErrNotFound)
}
