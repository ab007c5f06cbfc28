// Package http holds the gateway's HTTP handlers: player scan and answer
// flows, the kiosk redemption surface, and identity verification.
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/trailquest/hunt-server/internal/hunt"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// storeError maps engine sentinels onto the error taxonomy: not-found-class
// rejections, uniform conflicts, and retryable server faults for everything
// else.
func storeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, hunt.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, hunt.ErrPoolEmpty):
		writeError(w, http.StatusNotFound, "no questions available")
	case errors.Is(err, hunt.ErrInvalidSubmission):
		writeError(w, http.StatusBadRequest, "invalid submission")
	case errors.Is(err, hunt.ErrTokenSpent):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "Invalid, expired, or already used redeem token",
		})
	default:
		slog.Error("store operation failed", "op", op, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
