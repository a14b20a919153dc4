package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fibernet/auth"
)

func uintPtr(v uint) *uint { return &v }

func superAdmin() *auth.Identity {
	return &auth.Identity{UserID: 1, Username: "root", Role: auth.RoleSuperAdmin}
}

func companyAdmin(companyID uint) *auth.Identity {
	return &auth.Identity{UserID: 2, Username: "acme_admin", Role: auth.RoleCompanyAdmin, CompanyID: uintPtr(companyID)}
}

func installer(userID uint, companyID uint) *auth.Identity {
	return &auth.Identity{UserID: userID, Username: "tech", Role: auth.RoleInstaller, CompanyID: uintPtr(companyID)}
}

func supportAgent(userID uint, companyID uint) *auth.Identity {
	return &auth.Identity{UserID: userID, Username: "agent", Role: auth.RoleSupport, CompanyID: uintPtr(companyID)}
}

// owned is a minimal resource instance carrying a tenant
type owned struct{ companyID *uint }

func (o owned) EffectiveCompanyID() *uint { return o.companyID }

// assigned is a minimal work item carrying an assignee
type assigned struct{ staffID *uint }

func (a assigned) AssignedStaffID() *uint { return a.staffID }

func TestAuthorizeAnonymous(t *testing.T) {
	d := auth.Authorize(nil, auth.ActionRead, auth.ResourceFAT, nil)
	assert.False(t, d.Allowed)
	assert.Equal(t, auth.ReasonNotLoggedIn, d.Reason)
	assert.Equal(t, 401, d.Reason.HTTPStatus())
}

func TestAuthorizeSuperAdminUnscoped(t *testing.T) {
	for _, res := range []auth.Resource{
		auth.ResourceCompany, auth.ResourceTelecomCenter, auth.ResourceFAT,
		auth.ResourceSubscriber, auth.ResourceSubscription, auth.ResourceTicket,
		auth.ResourceUser,
	} {
		d := auth.Authorize(superAdmin(), auth.ActionDelete, res, nil)
		require.True(t, d.Allowed, "super admin should pass for %s", res)
		assert.Empty(t, d.Scope.Conds)
		assert.Empty(t, d.Scope.Joins)
	}
}

func TestAuthorizeCompanyAdminListScopes(t *testing.T) {
	id := companyAdmin(7)

	d := auth.Authorize(id, auth.ActionRead, auth.ResourceFAT, nil)
	require.True(t, d.Allowed)
	require.Len(t, d.Scope.Conds, 1)
	assert.Equal(t, "fats.company_id = ?", d.Scope.Conds[0].Expr)

	// Subscriptions have no company column; the scope traverses the FAT.
	d = auth.Authorize(id, auth.ActionRead, auth.ResourceSubscription, nil)
	require.True(t, d.Allowed)
	require.Len(t, d.Scope.Joins, 1)
	assert.Contains(t, d.Scope.Joins[0], "fats")

	// Subscribers traverse two hops.
	d = auth.Authorize(id, auth.ActionRead, auth.ResourceSubscriber, nil)
	require.True(t, d.Allowed)
	assert.Len(t, d.Scope.Joins, 2)

	// Telecom centers include the global partition.
	d = auth.Authorize(id, auth.ActionRead, auth.ResourceTelecomCenter, nil)
	require.True(t, d.Allowed)
	require.Len(t, d.Scope.Conds, 1)
	assert.Contains(t, d.Scope.Conds[0].Expr, "IS NULL")
}

func TestAuthorizeCompanyAdminCompanyReadOnly(t *testing.T) {
	id := companyAdmin(7)

	d := auth.Authorize(id, auth.ActionRead, auth.ResourceCompany, nil)
	assert.True(t, d.Allowed)

	for _, action := range []auth.Action{auth.ActionCreate, auth.ActionUpdate, auth.ActionDelete} {
		d := auth.Authorize(id, action, auth.ResourceCompany, nil)
		assert.False(t, d.Allowed)
		assert.Equal(t, auth.ReasonInsufficientRole, d.Reason)
	}
}

func TestAuthorizeCompanyAdminInstanceTenancy(t *testing.T) {
	id := companyAdmin(7)

	d := auth.Authorize(id, auth.ActionUpdate, auth.ResourceFAT, owned{uintPtr(7)})
	assert.True(t, d.Allowed)

	d = auth.Authorize(id, auth.ActionUpdate, auth.ResourceFAT, owned{uintPtr(8)})
	assert.False(t, d.Allowed)
	assert.Equal(t, auth.ReasonWrongTenant, d.Reason)
}

func TestAuthorizeCompanyAdminGlobalCenter(t *testing.T) {
	id := companyAdmin(7)

	// Readable by every tenant.
	d := auth.Authorize(id, auth.ActionRead, auth.ResourceTelecomCenter, owned{nil})
	assert.True(t, d.Allowed)

	// But owned by none of them.
	d = auth.Authorize(id, auth.ActionUpdate, auth.ResourceTelecomCenter, owned{nil})
	assert.False(t, d.Allowed)
	assert.Equal(t, auth.ReasonWrongTenant, d.Reason)
}

func TestAuthorizeCompanyAdminCannotFileReports(t *testing.T) {
	id := companyAdmin(7)
	for _, res := range []auth.Resource{auth.ResourceInstallationReport, auth.ResourceSupportReport} {
		d := auth.Authorize(id, auth.ActionCreate, res, nil)
		assert.False(t, d.Allowed)
		assert.Equal(t, auth.ReasonInsufficientRole, d.Reason)
	}
}

func TestAuthorizeInstallerWorkQueue(t *testing.T) {
	id := installer(42, 7)

	d := auth.Authorize(id, auth.ActionRead, auth.ResourceSubscription, nil)
	require.True(t, d.Allowed)
	require.Len(t, d.Scope.Conds, 1)
	assert.Equal(t, "subscriptions.assigned_installer_id = ?", d.Scope.Conds[0].Expr)

	// Everything outside the work queue is closed.
	for _, res := range []auth.Resource{
		auth.ResourceCompany, auth.ResourceFAT, auth.ResourceSubscriber,
		auth.ResourceTicket, auth.ResourceUser,
	} {
		d := auth.Authorize(id, auth.ActionRead, res, nil)
		assert.False(t, d.Allowed, "installer should not read %s", res)
	}
	d = auth.Authorize(id, auth.ActionUpdate, auth.ResourceSubscription, nil)
	assert.False(t, d.Allowed)
}

func TestAuthorizeInstallerReportFiling(t *testing.T) {
	id := installer(42, 7)

	d := auth.Authorize(id, auth.ActionCreate, auth.ResourceInstallationReport, assigned{uintPtr(42)})
	assert.True(t, d.Allowed)

	// Another installer's item, or an unassigned one, is off limits.
	d = auth.Authorize(id, auth.ActionCreate, auth.ResourceInstallationReport, assigned{uintPtr(43)})
	assert.False(t, d.Allowed)
	d = auth.Authorize(id, auth.ActionCreate, auth.ResourceInstallationReport, assigned{nil})
	assert.False(t, d.Allowed)

	// Wrong report family for the role.
	d = auth.Authorize(id, auth.ActionCreate, auth.ResourceSupportReport, assigned{uintPtr(42)})
	assert.False(t, d.Allowed)
	assert.Equal(t, auth.ReasonInsufficientRole, d.Reason)
}

func TestAuthorizeSupportWorkQueue(t *testing.T) {
	id := supportAgent(55, 7)

	d := auth.Authorize(id, auth.ActionRead, auth.ResourceTicket, nil)
	require.True(t, d.Allowed)
	require.Len(t, d.Scope.Conds, 1)
	assert.Equal(t, "support_tickets.assigned_support_id = ?", d.Scope.Conds[0].Expr)

	d = auth.Authorize(id, auth.ActionRead, auth.ResourceTicket, assigned{uintPtr(55)})
	assert.True(t, d.Allowed)
	d = auth.Authorize(id, auth.ActionRead, auth.ResourceTicket, assigned{uintPtr(56)})
	assert.False(t, d.Allowed)

	d = auth.Authorize(id, auth.ActionCreate, auth.ResourceSupportReport, assigned{uintPtr(55)})
	assert.True(t, d.Allowed)
}

func TestParseRole(t *testing.T) {
	role, ok := auth.ParseRole("installer")
	assert.True(t, ok)
	assert.Equal(t, auth.RoleInstaller, role)

	_, ok = auth.ParseRole("admin")
	assert.False(t, ok)
}
