package materials

type CreateMaterialRequest struct {
	Code        string  `json:"code" validate:"required,max=64"`
	Description string  `json:"description" validate:"required"`
	Unit        string  `json:"unit" validate:"required,max=16"`
	Price       float64 `json:"price" validate:"gte=0"`
}

type UpdateMaterialRequest struct {
	Code        *string  `json:"code,omitempty" validate:"omitempty,max=64"`
	Description *string  `json:"description,omitempty"`
	Unit        *string  `json:"unit,omitempty" validate:"omitempty,max=16"`
	Price       *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
}

type ListMaterialsResponse struct {
	Materials []Material `json:"materials"`
	Total     int        `json:"total"`
}
