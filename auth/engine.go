package auth

import "net/http"

// Action is the closed set of operations a request can perform
type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionAssign Action = "assign"
)

// Resource is the closed set of entity classes the engine knows about
type Resource string

const (
	ResourceCompany            Resource = "company"
	ResourceTelecomCenter      Resource = "telecom_center"
	ResourceFAT                Resource = "fat"
	ResourceSubscriber         Resource = "subscriber"
	ResourceSubscription       Resource = "subscription"
	ResourceTicket             Resource = "support_ticket"
	ResourceUser               Resource = "user"
	ResourceInstallationReport Resource = "installation_report"
	ResourceSupportReport      Resource = "support_report"
)

// Reason is the machine-distinguishable cause of a denial
type Reason string

const (
	ReasonNotLoggedIn      Reason = "not_logged_in"
	ReasonInsufficientRole Reason = "insufficient_role"
	ReasonWrongTenant      Reason = "wrong_tenant"
)

// HTTPStatus maps a deny reason to the outward status code. Controllers
// translate instance-level tenant denials on lookups to 404 themselves so
// out-of-tenant ids stay indistinguishable from missing ones.
func (r Reason) HTTPStatus() int {
	if r == ReasonNotLoggedIn {
		return http.StatusUnauthorized
	}
	return http.StatusForbidden
}

// Ownable exposes the tenant a loaded resource instance belongs to.
// Resources without a direct company column resolve it through the
// Subscription -> FAT -> company traversal before the check.
type Ownable interface {
	EffectiveCompanyID() *uint
}

// Assigned exposes the staff member a work item is currently assigned to
type Assigned interface {
	AssignedStaffID() *uint
}

// Decision is the engine's answer for one (identity, action, resource)
// triple: allow with a row filter, or deny with a reason.
type Decision struct {
	Allowed bool
	Scope   Scope
	Reason  Reason
}

func allow(scope Scope) Decision {
	return Decision{Allowed: true, Scope: scope}
}

func deny(reason Reason) Decision {
	return Decision{Reason: reason}
}

// Authorize decides whether identity may perform action on the given
// resource class, and under which row filter. The instance argument is
// optional; when a loaded row is passed (get-by-id, update, delete, report
// filing) its ownership is checked against the identity. Rules are applied
// in precedence order, first match wins. The function is pure: callers
// apply the returned scope to their query and re-check instances fetched
// by id, since id lookups bypass list filters.
func Authorize(id *Identity, action Action, res Resource, inst interface{}) Decision {
	if id == nil {
		return deny(ReasonNotLoggedIn)
	}

	switch id.Role {
	case RoleSuperAdmin:
		return allow(Scope{})
	case RoleCompanyAdmin:
		return authorizeCompanyAdmin(id, action, res, inst)
	case RoleInstaller:
		return authorizeWorker(id, action, res, inst,
			ResourceSubscription, ResourceInstallationReport,
			Scope{Conds: []Cond{where("subscriptions.assigned_installer_id = ?", id.UserID)}})
	case RoleSupport:
		return authorizeWorker(id, action, res, inst,
			ResourceTicket, ResourceSupportReport,
			Scope{Conds: []Cond{where("support_tickets.assigned_support_id = ?", id.UserID)}})
	}
	return deny(ReasonInsufficientRole)
}

func authorizeCompanyAdmin(id *Identity, action Action, res Resource, inst interface{}) Decision {
	switch res {
	case ResourceInstallationReport, ResourceSupportReport:
		// Reports are filed by the assigned worker role only.
		return deny(ReasonInsufficientRole)
	case ResourceCompany:
		if action != ActionRead {
			return deny(ReasonInsufficientRole)
		}
	}

	if own, ok := inst.(Ownable); ok {
		cid := own.EffectiveCompanyID()
		if cid == nil {
			// Global telecom centers are readable by every tenant but
			// belong to none of them.
			if res == ResourceTelecomCenter && action == ActionRead {
				return allow(Scope{})
			}
			return deny(ReasonWrongTenant)
		}
		if id.CompanyID == nil || *cid != *id.CompanyID {
			return deny(ReasonWrongTenant)
		}
		return allow(Scope{})
	}

	return allow(tenantScope(id, res))
}

// tenantScope builds the row filter restricting res to the identity's
// company, including the traversal joins for resources without a direct
// company column.
func tenantScope(id *Identity, res Resource) Scope {
	switch res {
	case ResourceCompany:
		return Scope{Conds: []Cond{where("companies.id = ?", id.CompanyID)}}
	case ResourceTelecomCenter:
		return Scope{Conds: []Cond{
			where("telecom_centers.company_id = ? OR telecom_centers.company_id IS NULL", id.CompanyID),
		}}
	case ResourceFAT:
		return Scope{Conds: []Cond{where("fats.company_id = ?", id.CompanyID)}}
	case ResourceSubscription:
		return Scope{
			Joins: []string{"JOIN fats ON fats.id = subscriptions.fat_id"},
			Conds: []Cond{where("fats.company_id = ?", id.CompanyID)},
		}
	case ResourceSubscriber:
		return Scope{
			Joins: []string{
				"JOIN subscriptions ON subscriptions.subscriber_id = subscribers.id",
				"JOIN fats ON fats.id = subscriptions.fat_id",
			},
			Conds: []Cond{where("fats.company_id = ?", id.CompanyID)},
		}
	case ResourceTicket:
		return Scope{Conds: []Cond{where("support_tickets.company_id = ?", id.CompanyID)}}
	case ResourceUser:
		return Scope{Conds: []Cond{where("users.company_id = ?", id.CompanyID)}}
	}
	return Scope{}
}

// authorizeWorker covers the installer and support roles: read access to
// their own work items, and report creation only while they are the
// current assignee.
func authorizeWorker(id *Identity, action Action, res Resource, inst interface{},
	workRes, reportRes Resource, workScope Scope) Decision {

	switch {
	case res == workRes && action == ActionRead:
		if asg, ok := inst.(Assigned); ok {
			if asg.AssignedStaffID() == nil || *asg.AssignedStaffID() != id.UserID {
				return deny(ReasonWrongTenant)
			}
			return allow(Scope{})
		}
		return allow(workScope)
	case res == reportRes && action == ActionCreate:
		asg, ok := inst.(Assigned)
		if !ok {
			return deny(ReasonWrongTenant)
		}
		if asg.AssignedStaffID() == nil || *asg.AssignedStaffID() != id.UserID {
			return deny(ReasonWrongTenant)
		}
		return allow(Scope{})
	}
	return deny(ReasonInsufficientRole)
}
