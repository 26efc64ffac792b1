package middleware

import (
	"net/http"

	errors "github.com/frahmantamala/expense-client/internal"
	"github.com/frahmantamala/expense-client/internal/core/datamodel/user"
	"github.com/frahmantamala/expense-client/internal/transport"
	"github.com/frahmantamala/expense-client/pkg/logger"
)

// TokenVerifier resolves a bearer token to the user it was issued to.
type TokenVerifier func(token string) (*user.User, error)

// Bearer rejects requests without a valid bearer token and attaches the
// token's user to the request context.
func Bearer(verify TokenVerifier, base *transport.BaseHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := transport.ExtractTokenFromHeader(r)
			if token == "" {
				base.WriteError(w, errors.NewUnauthorizedError("Authorization token required", errors.ErrCodeInvalidToken))
				return
			}

			u, err := verify(token)
			if err != nil {
				base.WriteError(w, err)
				return
			}

			ctx := errors.ContextWithUser(r.Context(), u)
			ctx = logger.With(ctx, "userID", u.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
