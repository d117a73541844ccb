// Package rbac maps the service's roles onto explicit permission sets and
// provides the capability check the HTTP layer gates on. Roles support
// inheritance so the hierarchy (user ⊂ admin ⊂ superadmin) is declared in
// one place instead of string comparisons scattered through handlers.
package rbac

// Role names recognized by the service.
const (
	RoleSuperadmin = "superadmin"
	RoleAdmin      = "admin"
	RoleUser       = "user"
)

// Permissions gating the HTTP surface.
const (
	PermSendCampaigns = "campaigns.send"
	PermReadSenders   = "senders.read"
	PermManageSenders = "senders.manage"
	PermCreateUsers   = "users.create"
	PermManageUsers   = "users.manage"
)

// MaxInheritanceDepth bounds role nesting so a miswired role map fails at
// construction instead of recursing.
const MaxInheritanceDepth = 10

// Role is a set of directly granted permissions plus the roles it inherits
// everything from.
type Role struct {
	Permissions []string
	Inherits    []string
}

// DefaultRoles returns the canonical role map of the mail-merge service.
func DefaultRoles() map[string]Role {
	return map[string]Role{
		RoleUser: {
			Permissions: []string{PermSendCampaigns, PermReadSenders},
		},
		RoleAdmin: {
			Permissions: []string{PermManageSenders, PermCreateUsers},
			Inherits:    []string{RoleUser},
		},
		RoleSuperadmin: {
			Permissions: []string{PermManageUsers},
			Inherits:    []string{RoleAdmin},
		},
	}
}
