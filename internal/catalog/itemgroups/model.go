package itemgroups

import "time"

// ItemGroup is a utility-standard kit of materials installed together,
// for example "three-phase transformer assembly". Groups belong to a
// single utility and are attached to poles as instances; attaching the
// same group twice doubles its contribution.
type ItemGroup struct {
	ID          string      `json:"id" db:"id"`
	UtilityID   string      `json:"utility_id" db:"utility_id"`
	Name        string      `json:"name" db:"name"`
	Description string      `json:"description" db:"description"`
	Items       []GroupItem `json:"items"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}

// GroupItem ties a material to a group with a whole-unit quantity.
type GroupItem struct {
	MaterialID string `json:"material_id" db:"material_id"`
	Quantity   int    `json:"quantity" db:"quantity"`
}
