package httpapi

import (
	"context"
	"net/http"
	"strings"

	"redeemr/rewards-service/internal/models"
	"redeemr/rewards-service/internal/service"
)

type authContextKey struct{}

// requireIdentity rejects requests without a bearer token that resolves to a
// current user. Credential routes are mounted outside it, so an expired token
// never stands in the way of logging in again.
func (h *Handler) requireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeUnauthorized(w, "not authenticated")
			return
		}
		identity, err := h.svc.Sessions.Resolve(r.Context(), token)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), identity)))
	})
}

// optionalIdentity attaches the caller's identity when the token resolves and
// otherwise serves the request anonymously.
func (h *Handler) optionalIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		identity, err := h.svc.Sessions.Resolve(r.Context(), token)
		if err != nil {
			if _, known := service.KindOf(err); !known {
				h.logger.WithError(err).WithField("request_id", requestIDFromRequest(r)).Warn("token resolution failed, serving anonymously")
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), identity)))
	})
}

func withIdentity(ctx context.Context, identity models.Identity) context.Context {
	return context.WithValue(ctx, authContextKey{}, identity)
}

func identityFromContext(ctx context.Context) (models.Identity, bool) {
	identity, ok := ctx.Value(authContextKey{}).(models.Identity)
	if !ok || identity.UserID == "" {
		return models.Identity{}, false
	}
	return identity, true
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return ""
	}
	if strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return parts[1]
}
