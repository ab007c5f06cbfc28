package http

import (
	"encoding/json"
	"net/http"

	"github.com/trailquest/hunt-server/internal/auth/idp"
	"github.com/trailquest/hunt-server/internal/hunt"
)

type answerRequest struct {
	SessionCheckpointID int64  `json:"sessionCheckpointId"`
	QuestionID          int64  `json:"questionId"`
	ChoiceID            int64  `json:"choiceId"`
	IDToken             string `json:"idToken"`
}

type answerResponse struct {
	IsCorrect       bool               `json:"isCorrect"`
	CorrectChoiceID int64              `json:"correctChoiceId"`
	Explanation     string             `json:"explanation,omitempty"`
	Checkpoint      checkpointView     `json:"checkpoint"`
	Progress        hunt.Progress      `json:"progress"`
	NewQuestion     *hunt.QuestionView `json:"newQuestion,omitempty"`
	RedeemToken     string             `json:"redeemToken,omitempty"`
}

// SubmitAnswerHandler grades one answer submission.
//
// POST /api/answer
func SubmitAnswerHandler(store hunt.Store, verifier *idp.Verifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var req answerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad json")
			return
		}
		if req.SessionCheckpointID == 0 || req.QuestionID == 0 || req.ChoiceID == 0 || req.IDToken == "" {
			writeError(w, http.StatusBadRequest, "missing required fields")
			return
		}

		claims, err := verifier.Verify(ctx, req.IDToken)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "authentication failed")
			return
		}
		user, err := store.FindOrCreateUser(ctx, claims.Subject, claims.Name, claims.Picture)
		if err != nil {
			storeError(w, "find or create user", err)
			return
		}

		result, err := store.SubmitAnswer(ctx, req.SessionCheckpointID, req.QuestionID, req.ChoiceID, user.ID)
		if err != nil {
			storeError(w, "submit answer", err)
			return
		}

		writeJSON(w, http.StatusOK, answerResponse{
			IsCorrect:       result.Correct,
			CorrectChoiceID: result.CorrectChoiceID,
			Explanation:     result.Explanation,
			Checkpoint: checkpointView{
				Index:        result.CheckpointIndex,
				CategoryName: result.CategoryName,
				IsCompleted:  result.CheckpointComplete,
			},
			Progress:    result.Progress,
			NewQuestion: result.NewQuestion,
			RedeemToken: result.RedeemToken,
		})
	}
}
