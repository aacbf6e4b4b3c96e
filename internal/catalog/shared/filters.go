package shared

// ListFilters carries common listing parameters for catalog entities.
type ListFilters struct {
	Page      int
	Limit     int
	Search    string
	SortBy    string
	SortDir   string
	UtilityID *string
}

// Offset translates page/limit into a row offset.
func (f ListFilters) Offset() int {
	offset := (f.Page - 1) * f.Limit
	if offset < 0 {
		return 0
	}
	return offset
}
