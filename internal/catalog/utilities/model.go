package utilities

import "time"

// Utility is a power distribution company whose standards govern
// which item groups are available for budgeting.
type Utility struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Acronym   string    `json:"acronym" db:"acronym"`
	State     string    `json:"state" db:"state"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
