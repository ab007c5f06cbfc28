package hunt

import (
	"context"
	"database/sql"
	"errors"
)

// ValidateCheckpointToken resolves a scanned tag token. Expired or unknown
// tokens both come back as ErrNotFound.
func (s *SQLStore) ValidateCheckpointToken(ctx context.Context, token string) (CheckpointToken, error) {
	var ct CheckpointToken
	err := s.db.QueryRowContext(ctx, `
		SELECT ct.id, ct.token, ct.campaign_id, ct.checkpoint_index,
		       ct.category_id, ct.expires_at, qc.name
		FROM checkpoint_tokens ct
		JOIN categories qc ON qc.id = ct.category_id
		WHERE ct.token = $1 AND ct.expires_at > $2`,
		token, s.now().Unix(),
	).Scan(&ct.ID, &ct.Token, &ct.CampaignID, &ct.CheckpointIndex,
		&ct.CategoryID, &ct.ExpiresAt, &ct.CategoryName)
	if errors.Is(err, sql.ErrNoRows) {
		return CheckpointToken{}, ErrNotFound
	}
	if err != nil {
		return CheckpointToken{}, err
	}
	return ct, nil
}

// GetOrCreateSession returns the one session for (user, campaign). Concurrent
// first scans race on the locked read; the loser of the race falls through to
// a no-op upsert and observes the winner's row.
func (s *SQLStore) GetOrCreateSession(ctx context.Context, userID, campaignID int64) (Session, error) {
	var out Session
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var completed sql.NullInt64
		err := tx.QueryRowContext(ctx, `
			SELECT id, user_id, campaign_id, created_at, completed_at
			FROM sessions
			WHERE user_id = $1 AND campaign_id = $2`+s.forUpdate(),
			userID, campaignID,
		).Scan(&out.ID, &out.UserID, &out.CampaignID, &out.CreatedAt, &completed)
		if err == nil {
			out.CompletedAt = nullInt(completed)
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		// The conflict clause is a deliberate no-op so a concurrently created
		// row survives and is returned as-is.
		err = tx.QueryRowContext(ctx, `
			INSERT INTO sessions (user_id, campaign_id, created_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id, campaign_id) DO UPDATE SET user_id = sessions.user_id
			RETURNING id, user_id, campaign_id, created_at, completed_at`,
			userID, campaignID, s.now().Unix(),
		).Scan(&out.ID, &out.UserID, &out.CampaignID, &out.CreatedAt, &completed)
		if err != nil {
			return err
		}
		out.CompletedAt = nullInt(completed)
		return nil
	})
	if err != nil {
		return Session{}, err
	}
	return out, nil
}
