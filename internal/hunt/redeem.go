package hunt

import (
	"context"
	"database/sql"
	"errors"
)

// Redeem consumes a redemption token at most once. The conditional update is
// the concurrency control: of any number of simultaneous kiosk scans exactly
// one matches used = false, the rest fall through to the uniform failure.
func (s *SQLStore) Redeem(ctx context.Context, token, kioskID string) (Redemption, error) {
	var out Redemption
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var sessionID int64
		err := tx.QueryRowContext(ctx, `
			UPDATE redeem_tokens
			SET is_used = $1, used_at = $2, kiosk_id = $3
			WHERE token = $4 AND NOT is_used AND expires_at > $5
			RETURNING session_id, used_at`,
			true, s.now().Unix(), kioskID, token, s.now().Unix(),
		).Scan(&sessionID, &out.RedeemedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTokenSpent
		}
		if err != nil {
			return err
		}
		out.SessionID = sessionID

		return tx.QueryRowContext(ctx, `
			SELECT c.title, c.slug
			FROM sessions ss
			JOIN campaigns c ON c.id = ss.campaign_id
			WHERE ss.id = $1`, sessionID,
		).Scan(&out.CampaignTitle, &out.CampaignSlug)
	})
	if err != nil {
		return Redemption{}, err
	}
	return out, nil
}

// ExistingRedeemToken surfaces the session's live token, if any, so a scan on
// a finished hunt can re-show the QR code.
func (s *SQLStore) ExistingRedeemToken(ctx context.Context, sessionID int64) (string, error) {
	var token string
	err := s.db.QueryRowContext(ctx, `
		SELECT token FROM redeem_tokens
		WHERE session_id = $1 AND NOT is_used AND expires_at > $2`,
		sessionID, s.now().Unix(),
	).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return token, nil
}
