package materials

import "time"

// Material is a catalog entry priced per unit. Consolidation always reads the
// current Price; per-pole snapshots live on the budget side.
type Material struct {
	ID          string    `json:"id" db:"id"`
	Code        string    `json:"code" db:"code"`
	Description string    `json:"description" db:"description"`
	Unit        string    `json:"unit" db:"unit"`
	Price       float64   `json:"price" db:"price"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// ImportRecord is one sanitized row bound for the dedup-upsert procedure.
type ImportRecord struct {
	Code        string  `json:"code"`
	Description string  `json:"description"`
	Unit        string  `json:"unit"`
	Price       float64 `json:"price"`
}

// ImportCounts reports what a single dedup-upsert call did.
type ImportCounts struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}
