package consol

import (
	"github.com/Paulodev-web/OrcaRede-sub001/internal/budgets"
	"github.com/Paulodev-web/OrcaRede-sub001/internal/catalog/itemgroups"
	"github.com/Paulodev-web/OrcaRede-sub001/internal/catalog/materials"
)

// Line is one row of the consolidated bill of materials. Quantity is the
// sum across every pole and group instance referencing the material;
// Total is always Quantity times the current catalog price, never a
// stored snapshot.
type Line struct {
	MaterialID  string  `json:"material_id"`
	Code        string  `json:"code"`
	Description string  `json:"description"`
	Unit        string  `json:"unit"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Total       float64 `json:"total"`
}

// Result is the consolidated view for one budget.
type Result struct {
	Lines      []Line  `json:"lines"`
	GrandTotal float64 `json:"grand_total"`
}

// Consolidate flattens a budget's poles into a priced bill of materials.
//
// Poles are walked in their given order, group instances in attachment
// order, group items in composition order, then the pole's loose lines.
// Lines appear in first-encountered-material order. A group instance
// whose template is missing, or an item whose material is missing from
// the catalog, contributes nothing; no error is raised for either.
//
// The function is pure. Calling it twice on the same inputs yields the
// same lines in the same order.
func Consolidate(poles []budgets.Pole, groups map[string]itemgroups.ItemGroup, catalog map[string]materials.Material) Result {
	var order []string
	lines := make(map[string]*Line)

	accumulate := func(materialID string, quantity int) {
		material, ok := catalog[materialID]
		if !ok {
			return
		}
		line, ok := lines[materialID]
		if !ok {
			line = &Line{
				MaterialID:  material.ID,
				Code:        material.Code,
				Description: material.Description,
				Unit:        material.Unit,
				UnitPrice:   material.Price,
			}
			lines[materialID] = line
			order = append(order, materialID)
		}
		line.Quantity += quantity
		line.Total = float64(line.Quantity) * material.Price
	}

	for _, pole := range poles {
		for _, instance := range pole.Groups {
			group, ok := groups[instance.ItemGroupID]
			if !ok {
				continue
			}
			for _, item := range group.Items {
				accumulate(item.MaterialID, item.Quantity)
			}
		}
		for _, item := range pole.LooseItems {
			accumulate(item.MaterialID, item.Quantity)
		}
	}

	result := Result{Lines: make([]Line, 0, len(order))}
	for _, id := range order {
		result.Lines = append(result.Lines, *lines[id])
		result.GrandTotal += lines[id].Total
	}
	return result
}
