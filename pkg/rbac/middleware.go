package rbac

import (
	"errors"
	"net/http"
)

// Require returns middleware that rejects requests whose context role does
// not hold the permission. It must be mounted after the auth middleware
// that stores the role in the context.
func Require(authz *Authorizer, permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := RoleFromContext(r.Context())
			if !ok {
				http.Error(w, "missing role", http.StatusUnauthorized)
				return
			}
			if err := authz.Can(role, permission); err != nil {
				status := http.StatusForbidden
				if errors.Is(err, ErrInvalidRole) {
					status = http.StatusUnauthorized
				}
				http.Error(w, "access denied", status)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
