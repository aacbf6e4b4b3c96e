package itemgroups

// CreateItemGroupRequest carries a new group with its full item list.
type CreateItemGroupRequest struct {
	UtilityID   string             `json:"utility_id" validate:"required,uuid4"`
	Name        string             `json:"name" validate:"required,max=120"`
	Description string             `json:"description" validate:"max=500"`
	Items       []GroupItemRequest `json:"items" validate:"dive"`
}

// UpdateItemGroupRequest updates group metadata. Item composition is
// replaced through the dedicated items endpoint.
type UpdateItemGroupRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,max=120"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
}

// GroupItemRequest is one material line in a group composition.
type GroupItemRequest struct {
	MaterialID string `json:"material_id" validate:"required,uuid4"`
	Quantity   int    `json:"quantity" validate:"required,gt=0"`
}

// ReplaceItemsRequest swaps the entire composition of a group.
type ReplaceItemsRequest struct {
	Items []GroupItemRequest `json:"items" validate:"required,dive"`
}

// ListItemGroupsResponse wraps a page of groups.
type ListItemGroupsResponse struct {
	ItemGroups []ItemGroup `json:"item_groups"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
}
