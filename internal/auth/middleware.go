package auth

import (
	"context"
	"fmt"
	"net/http"

	"ms-booking/internal/apperr"
	"ms-booking/internal/logger"
	"ms-booking/internal/utils"
)

type contextKey string

const identityKey contextKey = "identity"

// Middleware rejects requests without a valid bearer token and places the
// caller's Identity on the request context.
func Middleware(verifier Verifier, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawToken, err := ExtractTokenFromRequest(r)
			if err != nil {
				log.LogSecurity("AUTH", fmt.Sprintf("%s %s: %v", r.Method, r.URL.Path, err))
				utils.WriteError(w, apperr.Unauthorized("Unauthorized"))
				return
			}

			identity, err := verifier.Verify(r.Context(), rawToken)
			if err != nil {
				log.LogSecurity("AUTH", fmt.Sprintf("%s %s: %v", r.Method, r.URL.Path, err))
				utils.WriteError(w, apperr.Unauthorized("Unauthorized"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// FromContext returns the caller placed by Middleware, or nil.
func FromContext(ctx context.Context) *Identity {
	identity, _ := ctx.Value(identityKey).(*Identity)
	return identity
}

// Helper to extract user ID in handlers
func UserID(ctx context.Context) string {
	if identity := FromContext(ctx); identity != nil {
		return identity.UserID
	}
	return ""
}

func Email(ctx context.Context) string {
	if identity := FromContext(ctx); identity != nil {
		return identity.Email
	}
	return ""
}
