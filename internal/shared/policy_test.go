package shared

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoleRanking(t *testing.T) {
	require.True(t, RoleAdmin.AtLeast(RoleViewer))
	require.True(t, RoleAdmin.AtLeast(RoleAccountant))
	require.True(t, RoleAccountant.AtLeast(RoleViewer))
	require.False(t, RoleViewer.AtLeast(RoleAccountant))
	require.False(t, RoleAccountant.AtLeast(RoleAdmin))
	require.True(t, RoleViewer.AtLeast(RoleViewer))
}

func TestRoleValid(t *testing.T) {
	require.True(t, RoleAdmin.Valid())
	require.True(t, RoleAccountant.Valid())
	require.True(t, RoleViewer.Valid())
	require.False(t, Role("owner").Valid())
	require.False(t, Role("").Valid())
}

func TestRequiredRole(t *testing.T) {
	require.Equal(t, RoleViewer, RequiredRole(OpReportView))
	require.Equal(t, RoleAccountant, RequiredRole(OpJournalWrite))
	require.Equal(t, RoleAccountant, RequiredRole(OpPeriodClose))
	require.Equal(t, RoleAdmin, RequiredRole(OpPeriodReopen))
	require.Equal(t, RoleAdmin, RequiredRole(OpJournalDelete))
	require.Equal(t, RoleAdmin, RequiredRole(OpOrgManage))
}

func TestRequiredRoleUnknownOperation(t *testing.T) {
	require.Equal(t, RoleAdmin, RequiredRole(Operation("made.up")))
}

func TestAuthorize(t *testing.T) {
	require.NoError(t, Authorize(RoleViewer, OpAccountView))
	require.NoError(t, Authorize(RoleAccountant, OpJournalApprove))
	require.NoError(t, Authorize(RoleAdmin, OpPeriodDelete))

	err := Authorize(RoleViewer, OpJournalWrite)
	require.Equal(t, KindInsufficientRole, KindOf(err))

	err = Authorize(RoleAccountant, OpJournalDelete)
	require.Equal(t, KindInsufficientRole, KindOf(err))
}

func TestAuthorizeUnknownRole(t *testing.T) {
	err := Authorize(Role("superuser"), OpAccountView)
	require.ErrorIs(t, err, ErrForbidden)
}
