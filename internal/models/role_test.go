package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleRegistryFind(t *testing.T) {
	t.Parallel()

	registry := RoleRegistry{
		{Kind: RoleKindUser, RoleID: "user-1", Active: true},
		{Kind: RoleKindAdmin, RoleID: "admin-1", Active: false},
	}

	attachment, ok := registry.Find(RoleKindAdmin)
	require.True(t, ok)
	assert.Equal(t, "admin-1", attachment.RoleID)
	assert.False(t, attachment.Active)

	_, ok = registry.Find(RoleKindSuperAdmin)
	assert.False(t, ok)
}

func TestRoleRegistryFindReturnsFirstMatch(t *testing.T) {
	t.Parallel()

	// A corrupted registry with duplicate kinds must still resolve
	// deterministically to the earliest attachment.
	registry := RoleRegistry{
		{Kind: RoleKindUser, RoleID: "user-old", Active: true},
		{Kind: RoleKindUser, RoleID: "user-new", Active: true},
	}

	attachment, ok := registry.Find(RoleKindUser)
	require.True(t, ok)
	assert.Equal(t, "user-old", attachment.RoleID)
}

func TestRoleRegistryAttach(t *testing.T) {
	t.Parallel()

	registry := RoleRegistry{}

	registry, err := registry.Attach(RoleAttachment{Kind: RoleKindUser, RoleID: "user-1", Active: true})
	require.NoError(t, err)
	registry, err = registry.Attach(RoleAttachment{Kind: RoleKindAdmin, RoleID: "admin-1", Active: true})
	require.NoError(t, err)
	require.Len(t, registry, 2)

	_, err = registry.Attach(RoleAttachment{Kind: RoleKindUser, RoleID: "user-2", Active: true})
	assert.ErrorIs(t, err, ErrRoleAttached)
	assert.Len(t, registry, 2)
}
