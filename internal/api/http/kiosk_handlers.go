package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/trailquest/hunt-server/internal/hunt"
)

type kioskRedeemRequest struct {
	RedeemToken string `json:"redeemToken"`
	KioskID     string `json:"kioskId"`
}

type kioskRedeemResponse struct {
	Success    bool            `json:"success"`
	Campaign   campaignSummary `json:"campaign"`
	RedeemedAt string          `json:"redeemedAt"`
}

type campaignSummary struct {
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

// KioskRedeemHandler consumes a redemption token exactly once. Failures are
// uniform on purpose: a kiosk cannot probe whether a token ever existed.
//
// POST /api/kiosk/redeem
func KioskRedeemHandler(store hunt.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req kioskRedeemRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad json")
			return
		}
		if req.RedeemToken == "" || req.KioskID == "" {
			writeError(w, http.StatusBadRequest, "missing redeemToken or kioskId")
			return
		}

		result, err := store.Redeem(r.Context(), req.RedeemToken, req.KioskID)
		if err != nil {
			storeError(w, "redeem token", err)
			return
		}

		writeJSON(w, http.StatusOK, kioskRedeemResponse{
			Success: true,
			Campaign: campaignSummary{
				Title: result.CampaignTitle,
				Slug:  result.CampaignSlug,
			},
			RedeemedAt: time.Unix(result.RedeemedAt, 0).UTC().Format(time.RFC3339),
		})
	}
}
