package consol

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Paulodev-web/OrcaRede-sub001/internal/budgets"
	"github.com/Paulodev-web/OrcaRede-sub001/internal/catalog/itemgroups"
	"github.com/Paulodev-web/OrcaRede-sub001/internal/catalog/materials"
)

func testCatalog() map[string]materials.Material {
	return map[string]materials.Material{
		"mat-cable": {ID: "mat-cable", Code: "CB-10", Description: "Cable 10mm", Unit: "m", Price: 4.50},
		"mat-bolt":  {ID: "mat-bolt", Code: "BT-01", Description: "Machine bolt", Unit: "un", Price: 1.25},
		"mat-cross": {ID: "mat-cross", Code: "CR-02", Description: "Crossarm", Unit: "un", Price: 38.00},
	}
}

func testGroups() map[string]itemgroups.ItemGroup {
	return map[string]itemgroups.ItemGroup{
		"grp-anchor": {
			ID: "grp-anchor",
			Items: []itemgroups.GroupItem{
				{MaterialID: "mat-cable", Quantity: 12},
				{MaterialID: "mat-bolt", Quantity: 4},
			},
		},
		"grp-cross": {
			ID: "grp-cross",
			Items: []itemgroups.GroupItem{
				{MaterialID: "mat-cross", Quantity: 1},
				{MaterialID: "mat-bolt", Quantity: 2},
			},
		},
	}
}

func TestConsolidateAggregatesAcrossPoles(t *testing.T) {
	poles := []budgets.Pole{
		{
			ID: "pole-1",
			Groups: []budgets.PoleGroup{
				{ID: "inst-1", ItemGroupID: "grp-anchor"},
				{ID: "inst-2", ItemGroupID: "grp-cross"},
			},
			LooseItems: []budgets.LooseItem{
				{ID: "loose-1", MaterialID: "mat-bolt", Quantity: 3, PriceAtAddition: 99.0},
			},
		},
		{
			ID: "pole-2",
			Groups: []budgets.PoleGroup{
				{ID: "inst-3", ItemGroupID: "grp-anchor"},
			},
		},
	}

	result := Consolidate(poles, testGroups(), testCatalog())

	require.Len(t, result.Lines, 3)

	// First-encountered order: cable then bolt (grp-anchor), then crossarm.
	require.Equal(t, "mat-cable", result.Lines[0].MaterialID)
	require.Equal(t, "mat-bolt", result.Lines[1].MaterialID)
	require.Equal(t, "mat-cross", result.Lines[2].MaterialID)

	require.Equal(t, 24, result.Lines[0].Quantity)
	require.Equal(t, 13, result.Lines[1].Quantity)
	require.Equal(t, 1, result.Lines[2].Quantity)

	// Pricing uses the live catalog, never the loose-line snapshot.
	require.InDelta(t, 1.25, result.Lines[1].UnitPrice, 1e-9)
	require.InDelta(t, 13*1.25, result.Lines[1].Total, 1e-9)

	var sum float64
	for _, line := range result.Lines {
		require.InDelta(t, float64(line.Quantity)*line.UnitPrice, line.Total, 1e-9)
		sum += line.Total
	}
	require.InDelta(t, sum, result.GrandTotal, 1e-9)
}

func TestConsolidateSkipsDanglingReferences(t *testing.T) {
	poles := []budgets.Pole{
		{
			ID: "pole-1",
			Groups: []budgets.PoleGroup{
				{ID: "inst-1", ItemGroupID: "grp-deleted"},
				{ID: "inst-2", ItemGroupID: "grp-cross"},
			},
			LooseItems: []budgets.LooseItem{
				{ID: "loose-1", MaterialID: "mat-missing", Quantity: 5},
			},
		},
	}

	result := Consolidate(poles, testGroups(), testCatalog())

	require.Len(t, result.Lines, 2)
	require.Equal(t, "mat-cross", result.Lines[0].MaterialID)
	require.Equal(t, "mat-bolt", result.Lines[1].MaterialID)
	require.InDelta(t, 38.00+2*1.25, result.GrandTotal, 1e-9)
}

func TestConsolidateEmptyBudget(t *testing.T) {
	result := Consolidate(nil, testGroups(), testCatalog())
	require.Empty(t, result.Lines)
	require.Zero(t, result.GrandTotal)
}

func TestConsolidateDeterministic(t *testing.T) {
	poles := []budgets.Pole{
		{ID: "pole-1", Groups: []budgets.PoleGroup{{ID: "i1", ItemGroupID: "grp-cross"}, {ID: "i2", ItemGroupID: "grp-anchor"}}},
		{ID: "pole-2", LooseItems: []budgets.LooseItem{{ID: "l1", MaterialID: "mat-cable", Quantity: 7}}},
	}

	first := Consolidate(poles, testGroups(), testCatalog())
	second := Consolidate(poles, testGroups(), testCatalog())
	require.Equal(t, first, second)
}

func TestConsolidatePriceChangeScalesLine(t *testing.T) {
	poles := []budgets.Pole{
		{ID: "pole-1", LooseItems: []budgets.LooseItem{{ID: "l1", MaterialID: "mat-cable", Quantity: 10, PriceAtAddition: 4.50}}},
	}

	catalog := testCatalog()
	before := Consolidate(poles, nil, catalog)

	cable := catalog["mat-cable"]
	cable.Price = 9.00
	catalog["mat-cable"] = cable
	after := Consolidate(poles, nil, catalog)

	require.InDelta(t, before.GrandTotal*2, after.GrandTotal, 1e-9)
	require.Equal(t, before.Lines[0].Quantity, after.Lines[0].Quantity)
}
