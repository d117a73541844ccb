package rbac

import "context"

type roleCtxKey struct{}

// SetRole stores the authenticated user's role in the context.
func SetRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, roleCtxKey{}, role)
}

// RoleFromContext retrieves the role set by the auth middleware.
func RoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(roleCtxKey{}).(string)
	return role, ok
}
