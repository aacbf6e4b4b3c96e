package budgets

import "time"

// Budget status lifecycle. The transition is one way and is enforced in
// the database by finalize_budget so concurrent finalize calls cannot
// both succeed.
const (
	StatusInProgress = "IN_PROGRESS"
	StatusFinalized  = "FINALIZED"
)

// Budget is a quoting project for a stretch of electrical network.
type Budget struct {
	ID          string     `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	ClientName  string     `json:"client_name" db:"client_name"`
	City        string     `json:"city" db:"city"`
	UtilityID   string     `json:"utility_id" db:"utility_id"`
	FolderID    *string    `json:"folder_id,omitempty" db:"folder_id"`
	Status      string     `json:"status" db:"status"`
	CreatedBy   string     `json:"created_by" db:"created_by"`
	FinalizedAt *time.Time `json:"finalized_at,omitempty" db:"finalized_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// Finalized reports whether the budget is locked against edits.
func (b Budget) Finalized() bool {
	return b.Status == StatusFinalized
}

// Folder groups budgets for navigation only. Deleting a folder detaches
// its budgets, it never deletes them.
type Folder struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Pole is one installation point inside a budget. Ordering within the
// budget follows Position.
type Pole struct {
	ID         string      `json:"id" db:"id"`
	BudgetID   string      `json:"budget_id" db:"budget_id"`
	Label      string      `json:"label" db:"label"`
	Position   int         `json:"position" db:"position"`
	PostTypeID string      `json:"post_type_id" db:"post_type_id"`
	Groups     []PoleGroup `json:"groups"`
	LooseItems []LooseItem `json:"loose_items"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at" db:"updated_at"`
}

// PoleGroup is one attached instance of an item group template. The same
// template may be attached to a pole more than once.
type PoleGroup struct {
	ID          string    `json:"id" db:"id"`
	ItemGroupID string    `json:"item_group_id" db:"item_group_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// LooseItem is an ad-hoc material line on a pole. PriceAtAddition is a
// snapshot taken when the line was created and is kept for audit; the
// consolidated view prices from the live catalog instead.
type LooseItem struct {
	ID              string    `json:"id" db:"id"`
	MaterialID      string    `json:"material_id" db:"material_id"`
	Quantity        int       `json:"quantity" db:"quantity"`
	PriceAtAddition float64   `json:"price_at_addition" db:"price_at_addition"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// DuplicationStep is one completed step of a budget copy run. Steps are
// written as they complete so a failed run shows exactly how far it got.
type DuplicationStep struct {
	RunID       string    `json:"run_id" db:"run_id"`
	Seq         int       `json:"seq" db:"seq"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// DuplicationReport summarizes a copy run.
type DuplicationReport struct {
	RunID       string   `json:"run_id"`
	NewBudgetID string   `json:"new_budget_id,omitempty"`
	Steps       []string `json:"steps"`
}
