package hunt

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// GetOrAssignQuestion binds a question to (session, checkpoint) on first
// visit, sampling uniformly from the category's active pool. Later visits
// return whatever is currently assigned; completed checkpoints return no
// question at all.
func (s *SQLStore) GetOrAssignQuestion(ctx context.Context, sessionID int64, checkpointIndex int, categoryID int64) (EnterState, error) {
	var out EnterState
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		scp, err := s.lockSessionCheckpoint(ctx, tx, sessionID, checkpointIndex)
		if errors.Is(err, sql.ErrNoRows) {
			q, qerr := s.sampleQuestion(ctx, tx, categoryID, nil)
			if errors.Is(qerr, sql.ErrNoRows) {
				return ErrPoolEmpty
			}
			if qerr != nil {
				return qerr
			}
			// Preserve a concurrently created row: the conflict no-op keeps
			// the first writer's assigned_question_id.
			scp, err = s.upsertSessionCheckpoint(ctx, tx, sessionID, checkpointIndex, q.ID)
		}
		if err != nil {
			return err
		}

		out.Checkpoint = scp
		if scp.Completed {
			return nil
		}
		if scp.AssignedQuestionID == 0 {
			return ErrNotFound
		}
		qv, err := s.questionView(ctx, tx, scp.AssignedQuestionID)
		if err != nil {
			return err
		}
		out.Question = &qv
		return nil
	})
	if err != nil {
		return EnterState{}, err
	}
	return out, nil
}

func (s *SQLStore) lockSessionCheckpoint(ctx context.Context, tx *sql.Tx, sessionID int64, checkpointIndex int) (SessionCheckpoint, error) {
	var (
		scp         SessionCheckpoint
		assigned    sql.NullInt64
		completedAt sql.NullInt64
	)
	err := tx.QueryRowContext(ctx, `
		SELECT id, session_id, checkpoint_index, assigned_question_id, is_completed, completed_at
		FROM session_checkpoints
		WHERE session_id = $1 AND checkpoint_index = $2`+s.forUpdate(),
		sessionID, checkpointIndex,
	).Scan(&scp.ID, &scp.SessionID, &scp.CheckpointIndex, &assigned, &scp.Completed, &completedAt)
	if err != nil {
		return SessionCheckpoint{}, err
	}
	scp.AssignedQuestionID = nullInt(assigned)
	scp.CompletedAt = nullInt(completedAt)
	return scp, nil
}

func (s *SQLStore) upsertSessionCheckpoint(ctx context.Context, tx *sql.Tx, sessionID int64, checkpointIndex int, questionID int64) (SessionCheckpoint, error) {
	var (
		scp         SessionCheckpoint
		assigned    sql.NullInt64
		completedAt sql.NullInt64
	)
	err := tx.QueryRowContext(ctx, `
		INSERT INTO session_checkpoints (session_id, checkpoint_index, assigned_question_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (session_id, checkpoint_index)
		  DO UPDATE SET session_id = session_checkpoints.session_id
		RETURNING id, session_id, checkpoint_index, assigned_question_id, is_completed, completed_at`,
		sessionID, checkpointIndex, questionID,
	).Scan(&scp.ID, &scp.SessionID, &scp.CheckpointIndex, &assigned, &scp.Completed, &completedAt)
	if err != nil {
		return SessionCheckpoint{}, err
	}
	scp.AssignedQuestionID = nullInt(assigned)
	scp.CompletedAt = nullInt(completedAt)
	return scp, nil
}

type questionRow struct {
	ID          int64
	Text        string
	Explanation string
}

// sampleQuestion picks one active question uniformly at random from the
// category pool, excluding the given question ids. ORDER BY RANDOM() is
// uniform over the filtered set on both drivers.
func (s *SQLStore) sampleQuestion(ctx context.Context, tx *sql.Tx, categoryID int64, exclude []int64) (questionRow, error) {
	q := `SELECT id, question_text, explanation
		FROM questions
		WHERE category_id = $1 AND is_active`
	args := []any{categoryID}
	if len(exclude) > 0 {
		ph := make([]string, len(exclude))
		for i, id := range exclude {
			ph[i] = fmt.Sprintf("$%d", len(args)+1)
			args = append(args, id)
		}
		q += ` AND id NOT IN (` + strings.Join(ph, ",") + `)`
	}
	q += ` ORDER BY RANDOM() LIMIT 1`

	var row questionRow
	err := tx.QueryRowContext(ctx, q, args...).Scan(&row.ID, &row.Text, &row.Explanation)
	return row, err
}

// questionView loads a question with its choices in stable sort order and
// without correctness markers.
func (s *SQLStore) questionView(ctx context.Context, tx *sql.Tx, questionID int64) (QuestionView, error) {
	var qv QuestionView
	var explanation string
	err := tx.QueryRowContext(ctx,
		`SELECT id, question_text, explanation FROM questions WHERE id = $1`,
		questionID,
	).Scan(&qv.ID, &qv.Text, &explanation)
	if errors.Is(err, sql.ErrNoRows) {
		return QuestionView{}, ErrNotFound
	}
	if err != nil {
		return QuestionView{}, err
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT id, question_id, choice_text, sort_order
		FROM choices WHERE question_id = $1
		ORDER BY sort_order, id`, questionID)
	if err != nil {
		return QuestionView{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var c Choice
		if err := rows.Scan(&c.ID, &c.QuestionID, &c.Text, &c.SortOrder); err != nil {
			return QuestionView{}, err
		}
		qv.Choices = append(qv.Choices, c)
	}
	return qv, rows.Err()
}
