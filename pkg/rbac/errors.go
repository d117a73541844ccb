package rbac

import "errors"

var (
	// ErrInvalidRole is returned when a role does not exist.
	ErrInvalidRole = errors.New("rbac.invalid_role")

	// ErrInsufficientPermissions is returned when the required permission
	// is not granted.
	ErrInsufficientPermissions = errors.New("rbac.insufficient_permissions")

	// ErrCircularInheritance is returned when the role map inherits in a
	// cycle or nests deeper than MaxInheritanceDepth.
	ErrCircularInheritance = errors.New("rbac.circular_inheritance")
)
