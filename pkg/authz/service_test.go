package authz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCapabilities(t *testing.T) *Capabilities {
	t.Helper()
	svc, err := New("", nil)
	require.NoError(t, err)
	return svc
}

func TestCapabilities_Can(t *testing.T) {
	svc := newTestCapabilities(t)

	cases := []struct {
		role       string
		capability string
		want       bool
	}{
		{RoleUser, AssetView, true},
		{RoleUser, AssetCreate, false},
		{RoleUser, TeamManage, false},
		{RoleTechnician, AssetView, true},
		{RoleTechnician, AssetImport, true},
		{RoleTechnician, AssetDelete, false},
		{RoleTechnician, ProjectDelete, false},
		{RoleTechnician, ProjectAllocate, true},
		{RoleAdmin, AssetDeleteAll, true},
		{RoleAdmin, ProjectDelete, true},
		{"Admin", ProjectEdit, true},
		{"", AssetView, true},
		{"", AssetEdit, false},
		{"guest", AssetView, false},
	}
	for _, tc := range cases {
		t.Run(tc.role+"/"+tc.capability, func(t *testing.T) {
			assert.Equal(t, tc.want, svc.Can(tc.role, tc.capability))
		})
	}
}

func TestCapabilities_AuthorizeDenied(t *testing.T) {
	svc := newTestCapabilities(t)

	err := svc.Authorize(context.Background(), RoleUser, ProjectDelete)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, svc.Authorize(context.Background(), RoleAdmin, ProjectDelete))
}

func TestCapabilities_CustomPolicy(t *testing.T) {
	svc, err := New("p, auditor, asset, export", nil)
	require.NoError(t, err)

	assert.True(t, svc.Can("auditor", AssetExport))
	assert.False(t, svc.Can("auditor", AssetView))
}

func TestCapabilities_Granted(t *testing.T) {
	svc := newTestCapabilities(t)
	caps := svc.Granted(RoleUser)
	assert.ElementsMatch(t, []string{AssetView, AssetExport, ProjectView, TeamView, ResourceView}, caps)
}
