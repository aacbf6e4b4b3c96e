package rbac

import "time"

// Role groups a set of permissions that can be assigned to users.
type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Permission is a named capability such as "catalog.material.edit".
type Permission struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CanRender reports whether a UI element guarded by the given permission
// should be shown to a user holding the granted set. A missing or empty
// requirement renders unconditionally.
func CanRender(granted []string, required string) bool {
	required = normalize(required)
	if required == "" {
		return true
	}
	for _, p := range granted {
		if normalize(p) == required {
			return true
		}
	}
	return false
}
