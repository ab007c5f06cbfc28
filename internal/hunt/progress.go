package hunt

import (
	"context"
	"database/sql"
	"errors"
)

// Progress projects the dense completed/total summary. The array always has
// total entries; unvisited checkpoints report not-completed. Callers must
// never infer the total from the sparse row set.
func (s *SQLStore) Progress(ctx context.Context, sessionID, campaignID int64) (Progress, error) {
	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT total_checkpoints FROM campaigns WHERE id = $1`, campaignID).Scan(&total)
	if errors.Is(err, sql.ErrNoRows) {
		return Progress{}, ErrNotFound
	}
	if err != nil {
		return Progress{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT checkpoint_index, is_completed
		FROM session_checkpoints
		WHERE session_id = $1
		ORDER BY checkpoint_index`, sessionID)
	if err != nil {
		return Progress{}, err
	}
	defer rows.Close()
	return buildProgress(rows, total)
}

// progressTx is the in-transaction variant used by grading so the snapshot
// reflects the submission being committed.
func (s *SQLStore) progressTx(ctx context.Context, tx *sql.Tx, sessionID int64, total int) (Progress, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT checkpoint_index, is_completed
		FROM session_checkpoints
		WHERE session_id = $1
		ORDER BY checkpoint_index`, sessionID)
	if err != nil {
		return Progress{}, err
	}
	defer rows.Close()
	return buildProgress(rows, total)
}

func buildProgress(rows *sql.Rows, total int) (Progress, error) {
	done := make(map[int]bool)
	for rows.Next() {
		var (
			idx       int
			completed bool
		)
		if err := rows.Scan(&idx, &completed); err != nil {
			return Progress{}, err
		}
		done[idx] = completed
	}
	if err := rows.Err(); err != nil {
		return Progress{}, err
	}

	p := Progress{Total: total, Checkpoints: make([]CheckpointStatus, 0, total)}
	for i := 1; i <= total; i++ {
		completed := done[i]
		if completed {
			p.Completed++
		}
		p.Checkpoints = append(p.Checkpoints, CheckpointStatus{Index: i, Completed: completed})
	}
	return p, nil
}
