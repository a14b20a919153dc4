package auth

// Role is the closed set of account roles
type Role string

const (
	RoleSuperAdmin   Role = "super_admin"
	RoleCompanyAdmin Role = "company_admin"
	RoleInstaller    Role = "installer"
	RoleSupport      Role = "support"
)

// ParseRole maps a stored role string onto the closed Role set
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleSuperAdmin, RoleCompanyAdmin, RoleInstaller, RoleSupport:
		return Role(s), true
	}
	return "", false
}

// Identity is the acting user resolved from the session token. A nil
// *Identity means the request is unauthenticated.
type Identity struct {
	UserID    uint
	Username  string
	Role      Role
	CompanyID *uint
}

// IsAdmin reports whether the identity may manage resources rather than
// only work assigned items
func (id *Identity) IsAdmin() bool {
	return id != nil && (id.Role == RoleSuperAdmin || id.Role == RoleCompanyAdmin)
}
