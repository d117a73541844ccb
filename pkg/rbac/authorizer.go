package rbac

import (
	"fmt"
	"slices"
)

// Authorizer answers capability checks against a fixed role map. All
// permissions, including inherited ones, are flattened at construction so
// runtime checks are lookups into immutable state.
type Authorizer struct {
	rolePermissions map[string][]string
}

// NewAuthorizer flattens the role map into per-role permission sets,
// rejecting circular or overly deep inheritance.
func NewAuthorizer(roles map[string]Role) (*Authorizer, error) {
	flattened := make(map[string][]string, len(roles))
	for name := range roles {
		perms, err := collect(name, roles, make(map[string]bool), 0)
		if err != nil {
			return nil, err
		}
		slices.Sort(perms)
		flattened[name] = slices.Compact(perms)
	}
	return &Authorizer{rolePermissions: flattened}, nil
}

// MustNewAuthorizer panics on an invalid role map. The role map is static
// configuration; a broken one should prevent startup.
func MustNewAuthorizer(roles map[string]Role) *Authorizer {
	a, err := NewAuthorizer(roles)
	if err != nil {
		panic(err)
	}
	return a
}

// Can returns nil when the role holds the permission, directly or through
// inheritance.
func (a *Authorizer) Can(role, permission string) error {
	perms, ok := a.rolePermissions[role]
	if !ok {
		return ErrInvalidRole
	}
	if !slices.Contains(perms, permission) {
		return ErrInsufficientPermissions
	}
	return nil
}

// VerifyRole returns ErrInvalidRole when the role is unknown.
func (a *Authorizer) VerifyRole(role string) error {
	if _, ok := a.rolePermissions[role]; !ok {
		return ErrInvalidRole
	}
	return nil
}

// Roles returns all known role names, sorted.
func (a *Authorizer) Roles() []string {
	names := make([]string, 0, len(a.rolePermissions))
	for name := range a.rolePermissions {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func collect(name string, roles map[string]Role, visiting map[string]bool, depth int) ([]string, error) {
	if depth > MaxInheritanceDepth {
		return nil, fmt.Errorf("%w: depth exceeded at role %q", ErrCircularInheritance, name)
	}
	if visiting[name] {
		return nil, fmt.Errorf("%w: role %q", ErrCircularInheritance, name)
	}
	role, ok := roles[name]
	if !ok {
		return nil, fmt.Errorf("%w: inherited role %q is not defined", ErrInvalidRole, name)
	}

	visiting[name] = true
	defer delete(visiting, name)

	perms := slices.Clone(role.Permissions)
	for _, parent := range role.Inherits {
		inherited, err := collect(parent, roles, visiting, depth+1)
		if err != nil {
			return nil, err
		}
		perms = append(perms, inherited...)
	}
	return perms, nil
}
