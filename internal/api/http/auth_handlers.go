package http

import (
	"encoding/json"
	"net/http"

	"github.com/trailquest/hunt-server/internal/auth/idp"
	"github.com/trailquest/hunt-server/internal/hunt"
)

// VerifyIdentityHandler lets a client confirm its ID token server-side and
// get back the upserted user record.
//
// POST /api/auth/verify
func VerifyIdentityHandler(store hunt.Store, verifier *idp.Verifier) http.HandlerFunc {
	type request struct {
		IDToken string `json:"id_token"`
	}
	type userView struct {
		ID          int64  `json:"id"`
		DisplayName string `json:"display_name,omitempty"`
		AvatarURL   string `json:"avatar_url,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IDToken == "" {
			writeError(w, http.StatusBadRequest, "missing id_token")
			return
		}

		claims, err := verifier.Verify(r.Context(), req.IDToken)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "authentication failed")
			return
		}

		user, err := store.FindOrCreateUser(r.Context(), claims.Subject, claims.Name, claims.Picture)
		if err != nil {
			storeError(w, "find or create user", err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]userView{"user": {
			ID:          user.ID,
			DisplayName: user.DisplayName,
			AvatarURL:   user.AvatarURL,
		}})
	}
}
