package hunt

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gofrs/uuid/v5"
)

// gradeTarget is the locked grading context: the session checkpoint joined to
// its owning session and the category its physical tag points at.
type gradeTarget struct {
	SCPID           int64
	SessionID       int64
	CheckpointIndex int
	Completed       bool
	UserID          int64
	CampaignID      int64
	CategoryID      int64
	CategoryName    string
}

// SubmitAnswer grades one submission atomically. The row lock on the session
// checkpoint strictly orders concurrent submissions; only the first can move
// assigned -> completed, the second sees Completed and is rejected with no
// writes. A correct final answer marks the session complete and upserts the
// redemption token, which is a no-op if one already exists.
func (s *SQLStore) SubmitAnswer(ctx context.Context, sessionCheckpointID, questionID, choiceID, userID int64) (GradeResult, error) {
	var out GradeResult
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		t, err := s.lockGradeTarget(ctx, tx, sessionCheckpointID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrInvalidSubmission
		}
		if err != nil {
			return err
		}
		// Reject before any write: cross-user forgery and replay after
		// completion leave no trace beyond the rollback.
		if t.UserID != userID || t.Completed {
			return ErrInvalidSubmission
		}

		var correct bool
		err = tx.QueryRowContext(ctx,
			`SELECT is_correct FROM choices WHERE id = $1 AND question_id = $2`,
			choiceID, questionID,
		).Scan(&correct)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrInvalidSubmission
		}
		if err != nil {
			return err
		}

		// Every validated submission is recorded; the log is the audit trail
		// and drives rotation exclusion.
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO attempts (session_checkpoint_id, question_id, choice_id, is_correct, attempted_at)
			VALUES ($1, $2, $3, $4, $5)`,
			t.SCPID, questionID, choiceID, correct, s.now().Unix()); err != nil {
			return err
		}

		if err := tx.QueryRowContext(ctx,
			`SELECT id FROM choices WHERE question_id = $1 AND is_correct`,
			questionID,
		).Scan(&out.CorrectChoiceID); err != nil {
			return err
		}
		if err := tx.QueryRowContext(ctx,
			`SELECT explanation FROM questions WHERE id = $1`,
			questionID,
		).Scan(&out.Explanation); err != nil {
			return err
		}

		out.Correct = correct
		out.CheckpointComplete = correct
		out.CheckpointIndex = t.CheckpointIndex
		out.CategoryName = t.CategoryName

		var rotate bool
		var total int
		if err := tx.QueryRowContext(ctx,
			`SELECT total_checkpoints, rotate_on_wrong FROM campaigns WHERE id = $1`,
			t.CampaignID,
		).Scan(&total, &rotate); err != nil {
			return err
		}

		if correct {
			if err := s.completeCheckpoint(ctx, tx, t, total, &out); err != nil {
				return err
			}
		} else if rotate {
			if err := s.rotateQuestion(ctx, tx, t, &out); err != nil {
				return err
			}
		}
		// Rotation disabled: pointer untouched, the caller retries the same
		// question.

		progress, err := s.progressTx(ctx, tx, t.SessionID, total)
		if err != nil {
			return err
		}
		out.Progress = progress
		return nil
	})
	if err != nil {
		return GradeResult{}, err
	}
	return out, nil
}

func (s *SQLStore) lockGradeTarget(ctx context.Context, tx *sql.Tx, scpID int64) (gradeTarget, error) {
	var t gradeTarget
	err := tx.QueryRowContext(ctx, `
		SELECT sc.id, sc.session_id, sc.checkpoint_index, sc.is_completed,
		       ss.user_id, ss.campaign_id, ct.category_id, qc.name
		FROM session_checkpoints sc
		JOIN sessions ss ON ss.id = sc.session_id
		JOIN checkpoint_tokens ct ON ct.campaign_id = ss.campaign_id
		                         AND ct.checkpoint_index = sc.checkpoint_index
		JOIN categories qc ON qc.id = ct.category_id
		WHERE sc.id = $1
		LIMIT 1`+s.forUpdateOf("sc"),
		scpID,
	).Scan(&t.SCPID, &t.SessionID, &t.CheckpointIndex, &t.Completed,
		&t.UserID, &t.CampaignID, &t.CategoryID, &t.CategoryName)
	return t, err
}

// completeCheckpoint marks the checkpoint done and, when it was the last one,
// completes the session and issues the redemption token idempotently.
func (s *SQLStore) completeCheckpoint(ctx context.Context, tx *sql.Tx, t gradeTarget, total int, out *GradeResult) error {
	now := s.now().Unix()
	if _, err := tx.ExecContext(ctx, `
		UPDATE session_checkpoints SET is_completed = $1, completed_at = $2 WHERE id = $3`,
		true, now, t.SCPID); err != nil {
		return err
	}

	var done int
	if err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM session_checkpoints
		WHERE session_id = $1 AND is_completed`,
		t.SessionID,
	).Scan(&done); err != nil {
		return err
	}
	if done < total {
		return nil
	}

	out.AllComplete = true
	if _, err := tx.ExecContext(ctx,
		`UPDATE sessions SET completed_at = $1 WHERE id = $2`,
		now, t.SessionID); err != nil {
		return err
	}

	// Defense in depth: the session-id unique constraint makes re-issuance a
	// no-op returning the existing token, so duplicate final submissions can
	// never mint two live tokens.
	token := uuid.Must(uuid.NewV4()).String()
	return tx.QueryRowContext(ctx, `
		INSERT INTO redeem_tokens (token, session_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (session_id) DO UPDATE SET session_id = redeem_tokens.session_id
		RETURNING token`,
		token, t.SessionID, s.now().Add(s.redeemTTL).Unix(),
	).Scan(&out.RedeemToken)
}

// rotateQuestion reassigns the checkpoint to a question the player has not
// seen at it. An exhausted pool cycles back to the full category rather than
// stranding the player.
func (s *SQLStore) rotateQuestion(ctx context.Context, tx *sql.Tx, t gradeTarget, out *GradeResult) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT DISTINCT question_id FROM attempts WHERE session_checkpoint_id = $1`,
		t.SCPID)
	if err != nil {
		return err
	}
	var attempted []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		attempted = append(attempted, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	next, err := s.sampleQuestion(ctx, tx, t.CategoryID, attempted)
	if errors.Is(err, sql.ErrNoRows) {
		next, err = s.sampleQuestion(ctx, tx, t.CategoryID, nil)
	}
	if errors.Is(err, sql.ErrNoRows) {
		// Category emptied since assignment; leave the pointer alone.
		return nil
	}
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE session_checkpoints SET assigned_question_id = $1 WHERE id = $2`,
		next.ID, t.SCPID); err != nil {
		return err
	}
	qv, err := s.questionView(ctx, tx, next.ID)
	if err != nil {
		return err
	}
	out.NewQuestion = &qv
	return nil
}
