package rbac

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanRender(t *testing.T) {
	granted := []string{"budget.view", "Catalog.Material.Edit", " budget.edit "}

	require.True(t, CanRender(granted, ""))
	require.True(t, CanRender(nil, "  "))
	require.True(t, CanRender(granted, "budget.view"))
	require.True(t, CanRender(granted, "catalog.material.edit"))
	require.True(t, CanRender(granted, "BUDGET.EDIT"))
	require.False(t, CanRender(granted, "budget.finalize"))
	require.False(t, CanRender(nil, "budget.view"))
}
