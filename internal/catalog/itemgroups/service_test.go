package itemgroups

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToGroupItems(t *testing.T) {
	items, err := toGroupItems([]GroupItemRequest{
		{MaterialID: "mat-1", Quantity: 3},
		{MaterialID: "mat-2", Quantity: 1},
	})
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, GroupItem{MaterialID: "mat-1", Quantity: 3}, items[0])
}

func TestToGroupItemsRejectsNonPositiveQuantity(t *testing.T) {
	_, err := toGroupItems([]GroupItemRequest{{MaterialID: "mat-1", Quantity: 0}})
	require.ErrorContains(t, err, "item 1")

	_, err = toGroupItems([]GroupItemRequest{
		{MaterialID: "mat-1", Quantity: 2},
		{MaterialID: "mat-2", Quantity: -4},
	})
	require.ErrorContains(t, err, "item 2")
}

func TestToGroupItemsRejectsDuplicateMaterial(t *testing.T) {
	_, err := toGroupItems([]GroupItemRequest{
		{MaterialID: "mat-1", Quantity: 2},
		{MaterialID: "mat-1", Quantity: 5},
	})
	require.ErrorContains(t, err, "listed twice")
}
