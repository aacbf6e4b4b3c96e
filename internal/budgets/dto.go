package budgets

// CreateBudgetRequest opens a new budget in IN_PROGRESS state.
type CreateBudgetRequest struct {
	Name       string  `json:"name" validate:"required,max=160"`
	ClientName string  `json:"client_name" validate:"max=160"`
	City       string  `json:"city" validate:"max=120"`
	UtilityID  string  `json:"utility_id" validate:"required,uuid4"`
	FolderID   *string `json:"folder_id,omitempty" validate:"omitempty,uuid4"`
}

// UpdateBudgetRequest edits budget metadata. Rejected once finalized.
type UpdateBudgetRequest struct {
	Name       *string `json:"name,omitempty" validate:"omitempty,max=160"`
	ClientName *string `json:"client_name,omitempty" validate:"omitempty,max=160"`
	City       *string `json:"city,omitempty" validate:"omitempty,max=120"`
	FolderID   *string `json:"folder_id,omitempty" validate:"omitempty,uuid4"`
}

// CreateFolderRequest opens a navigation folder.
type CreateFolderRequest struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=500"`
}

// CreatePoleRequest appends a pole to a budget.
type CreatePoleRequest struct {
	Label      string `json:"label" validate:"required,max=60"`
	PostTypeID string `json:"post_type_id" validate:"required,uuid4"`
}

// UpdatePoleRequest edits a pole's label, type or position.
type UpdatePoleRequest struct {
	Label      *string `json:"label,omitempty" validate:"omitempty,max=60"`
	PostTypeID *string `json:"post_type_id,omitempty" validate:"omitempty,uuid4"`
	Position   *int    `json:"position,omitempty" validate:"omitempty,gte=0"`
}

// AttachGroupRequest attaches one item group instance to a pole.
type AttachGroupRequest struct {
	ItemGroupID string `json:"item_group_id" validate:"required,uuid4"`
}

// AddLooseItemRequest adds an ad-hoc material line. The unit price is
// captured server side from the current catalog, never sent by clients.
type AddLooseItemRequest struct {
	MaterialID string `json:"material_id" validate:"required,uuid4"`
	Quantity   int    `json:"quantity" validate:"required,gt=0"`
}

// ListBudgetsResponse wraps a page of budgets.
type ListBudgetsResponse struct {
	Budgets []Budget `json:"budgets"`
	Total   int      `json:"total"`
	Page    int      `json:"page"`
	Limit   int      `json:"limit"`
}
