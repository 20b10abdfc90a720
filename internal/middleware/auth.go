package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/hearth/internal/auth"
	"github.com/dukerupert/hearth/internal/store"
)

// RequireIdentity verifies the identity provider's bearer token, provisions
// the local user row on first sight, and stores the Identity in the request
// context. Browsers cannot set headers on WebSocket upgrades, so upgrade
// requests may carry the token in the access_token query parameter instead.
// Other requests must use the Authorization header.
func RequireIdentity(verifier *auth.Verifier, users *store.UserStore, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := verifier.Verify(bearerToken(r))
			if err != nil {
				logger.Debug("identity rejected", "error", err, "path", r.URL.Path)
				writeError(w, http.StatusUnauthorized, "unauthenticated", "Authentication required")
				return
			}

			if _, err := users.Upsert(r.Context(), id.UserID, id.Email, id.Name); err != nil {
				logger.Error("provision user", "user_id", id.UserID, "error", err)
				writeError(w, http.StatusInternalServerError, "internal", "Failed to load user")
				return
			}

			ctx := auth.WithIdentity(r.Context(), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if isWebSocketUpgrade(r) {
		return r.URL.Query().Get("access_token")
	}
	return ""
}

func isWebSocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket") &&
		strings.Contains(strings.ToLower(r.Header.Get("Connection")), "upgrade")
}
