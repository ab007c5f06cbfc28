package http

import (
	"net/http"

	"github.com/trailquest/hunt-server/internal/auth/idp"
	"github.com/trailquest/hunt-server/internal/hunt"
)

type checkpointView struct {
	Index        int    `json:"index"`
	CategoryName string `json:"categoryName"`
	IsCompleted  bool   `json:"isCompleted"`
}

type scanEnterResponse struct {
	Campaign            hunt.CampaignConfig `json:"campaign"`
	Checkpoint          checkpointView      `json:"checkpoint"`
	Progress            hunt.Progress       `json:"progress"`
	Question            *hunt.QuestionView  `json:"question"`
	SessionCheckpointID int64               `json:"sessionCheckpointId"`
	RedeemToken         string              `json:"redeemToken,omitempty"`
}

// ScanEnterHandler is the whole scan flow: checkpoint token → identity →
// session → question assignment → progress, plus the live redeem token once
// the hunt is finished.
//
// GET /api/scan/enter?checkpointToken=...&idToken=...
func ScanEnterHandler(store hunt.Store, verifier *idp.Verifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		checkpointToken := r.URL.Query().Get("checkpointToken")
		idToken := r.URL.Query().Get("idToken")
		if checkpointToken == "" || idToken == "" {
			writeError(w, http.StatusBadRequest, "missing checkpointToken or idToken")
			return
		}

		cpToken, err := store.ValidateCheckpointToken(ctx, checkpointToken)
		if err != nil {
			storeError(w, "validate checkpoint token", err)
			return
		}

		claims, err := verifier.Verify(ctx, idToken)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "authentication failed")
			return
		}

		user, err := store.FindOrCreateUser(ctx, claims.Subject, claims.Name, claims.Picture)
		if err != nil {
			storeError(w, "find or create user", err)
			return
		}

		session, err := store.GetOrCreateSession(ctx, user.ID, cpToken.CampaignID)
		if err != nil {
			storeError(w, "get or create session", err)
			return
		}

		campaign, err := store.CampaignConfig(ctx, cpToken.CampaignID)
		if err != nil {
			storeError(w, "load campaign", err)
			return
		}

		state, err := store.GetOrAssignQuestion(ctx, session.ID, cpToken.CheckpointIndex, cpToken.CategoryID)
		if err != nil {
			storeError(w, "assign question", err)
			return
		}

		progress, err := store.Progress(ctx, session.ID, cpToken.CampaignID)
		if err != nil {
			storeError(w, "project progress", err)
			return
		}

		resp := scanEnterResponse{
			Campaign: campaign,
			Checkpoint: checkpointView{
				Index:        cpToken.CheckpointIndex,
				CategoryName: cpToken.CategoryName,
				IsCompleted:  state.Checkpoint.Completed,
			},
			Progress:            progress,
			Question:            state.Question,
			SessionCheckpointID: state.Checkpoint.ID,
		}

		if progress.Completed >= progress.Total {
			token, err := store.ExistingRedeemToken(ctx, session.ID)
			if err != nil {
				storeError(w, "existing redeem token", err)
				return
			}
			resp.RedeemToken = token
		}

		writeJSON(w, http.StatusOK, resp)
	}
}
