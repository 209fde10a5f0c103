package middleware

import (
	"context"
	"net/http"

	"github.com/mcoot/taskauth/internal/api/apierr"
	"github.com/mcoot/taskauth/internal/services/auth"
)

type contextKey string

const claimContextKey contextKey = "claim"

// RequireAuth rejects requests without a valid bearer token and stores
// the verified claim in the request context
func RequireAuth(sessions *auth.Sessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claim, err := sessions.VerifyHeader(r.Header.Get("Authorization"))
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaim(r.Context(), claim)))
		})
	}
}

// WithClaim returns a copy of ctx carrying claim
func WithClaim(ctx context.Context, claim *auth.Claim) context.Context {
	return context.WithValue(ctx, claimContextKey, claim)
}

// ClaimFromContext returns the verified claim, if any
func ClaimFromContext(ctx context.Context) (*auth.Claim, bool) {
	claim, ok := ctx.Value(claimContextKey).(*auth.Claim)
	return claim, ok && claim != nil
}

// MustClaim returns the verified claim or panics
func MustClaim(ctx context.Context) *auth.Claim {
	claim, ok := ClaimFromContext(ctx)
	if !ok {
		panic("no claim in context - auth middleware not applied?")
	}
	return claim
}
