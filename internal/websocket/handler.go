package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/hearth/internal/auth"
)

// MembershipChecker decides whether a user may subscribe to a household.
type MembershipChecker interface {
	IsMember(ctx context.Context, householdID, userID string) (bool, error)
}

// HandleWebSocket upgrades authenticated members to a WebSocket subscribed
// to the household named by the household_id query parameter.
// originPatterns are host patterns as accepted by coder/websocket; when empty
// only same-origin upgrades are allowed.
func HandleWebSocket(hub *Hub, members MembershipChecker, originPatterns []string, logger *slog.Logger) http.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.UserID(r.Context())
		if userID == "" {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "Authentication required")
			return
		}
		householdID := r.URL.Query().Get("household_id")
		if householdID == "" {
			writeError(w, http.StatusBadRequest, "invalid_input", "household_id is required")
			return
		}

		ok, err := members.IsMember(r.Context(), householdID, userID)
		if err != nil {
			logger.Error("websocket: membership check", "household_id", householdID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal", "Internal server error")
			return
		}
		if !ok {
			writeError(w, http.StatusNotFound, "not_found", "Household not found or access denied")
			return
		}

		// Subscriptions outlive the server's read and write timeouts.
		rc := http.NewResponseController(w)
		rc.SetReadDeadline(time.Time{})
		rc.SetWriteDeadline(time.Time{})

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{OriginPatterns: originPatterns})
		if err != nil {
			logger.Warn("websocket: accept", "error", err)
			return
		}

		logger.Debug("websocket: subscribed", "household_id", householdID, "user_id", userID)
		NewClient(hub, conn, householdID, userID).Run(r.Context())
	}
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": kind, "message": message})
}
