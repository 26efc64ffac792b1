package middleware

import (
	"net/http"

	errors "github.com/frahmantamala/expense-client/internal"
	"github.com/frahmantamala/expense-client/internal/core/datamodel/user"
	"github.com/frahmantamala/expense-client/internal/transport"
	"github.com/frahmantamala/expense-client/pkg/logger"
)

// RequireRole lets the request through only if the authenticated user holds
// one of roles. It must run after Bearer.
func RequireRole(base *transport.BaseHandler, roles ...user.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := errors.UserFromContext(r.Context())
			if !ok {
				base.WriteError(w, errors.NewUnauthorizedError("Unauthorized", errors.ErrCodeInvalidToken))
				return
			}

			if !HasRole(u, roles...) {
				logger.From(r.Context()).Warn("access denied: user lacks required role",
					"user_id", u.ID,
					"required_roles", roles,
					"user_role", u.Role)
				base.WriteError(w, errors.NewForbiddenError("Forbidden: admin access required", errors.ErrCodeAdminOnly))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func HasRole(u *user.User, roles ...user.Role) bool {
	if u == nil {
		return false
	}
	for _, role := range roles {
		if u.Role == role {
			return true
		}
	}
	return false
}
