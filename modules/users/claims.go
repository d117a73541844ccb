package users

import (
	"context"
	"net/http"
	"strings"

	"github.com/mergepost/mergepost/core"
	"github.com/mergepost/mergepost/pkg/jwt"
	"github.com/mergepost/mergepost/pkg/rbac"
)

// Claims are the token claims issued at login. The registered subject
// duplicates ID so standard JWT tooling can identify the account too.
type Claims struct {
	jwt.StandardClaims

	UserID string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

type claimsCtxKey struct{}

// SetCurrentUser stores the authenticated user's claims in the context.
func SetCurrentUser(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, claimsCtxKey{}, claims)
}

// CurrentUser retrieves the claims set by Middleware.
func CurrentUser(ctx context.Context) (Claims, bool) {
	claims, ok := ctx.Value(claimsCtxKey{}).(Claims)
	return claims, ok
}

// Middleware authenticates requests with a Bearer token. Valid tokens put
// the claims and the role into the request context; everything else is a
// 401 before any handler runs.
func Middleware(tokens *jwt.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				core.Error(w, core.Unauthorized("No token provided"))
				return
			}

			var claims Claims
			if err := tokens.Parse(token, &claims); err != nil {
				core.Error(w, core.Unauthorized("Invalid token"))
				return
			}

			ctx := SetCurrentUser(r.Context(), claims)
			ctx = rbac.SetRole(ctx, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(auth, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return token, true
}
