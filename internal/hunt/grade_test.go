package hunt_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trailquest/hunt-server/internal/hunt"
)

func wrongChoiceOf(t *testing.T, dbh *sql.DB, questionID int64) int64 {
	t.Helper()
	var id int64
	require.NoError(t, dbh.QueryRow(
		`SELECT id FROM choices WHERE question_id = $1 AND is_correct = 0 ORDER BY id LIMIT 1`,
		questionID).Scan(&id))
	return id
}

func TestSubmitAnswerCorrect(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	_, state := f.enter(t, 1)
	res, err := f.store.SubmitAnswer(ctx, state.Checkpoint.ID, state.Question.ID, f.correct[0], f.user.ID)
	require.NoError(t, err)

	assert.True(t, res.Correct)
	assert.True(t, res.CheckpointComplete)
	assert.False(t, res.AllComplete)
	assert.Equal(t, f.correct[0], res.CorrectChoiceID)
	assert.Equal(t, "because right", res.Explanation)
	assert.Equal(t, 1, res.CheckpointIndex)
	assert.Equal(t, "cat-1", res.CategoryName)
	assert.Empty(t, res.RedeemToken)
	assert.Nil(t, res.NewQuestion)
	assert.Equal(t, 1, res.Progress.Completed)
	assert.Equal(t, 3, res.Progress.Total)
	assert.Equal(t, 1, f.countAttempts(t))
}

func TestSubmitAnswerWrongWithoutRotation(t *testing.T) {
	f := newFixture(t, 1) // rotation off
	ctx := context.Background()

	_, state := f.enter(t, 1)
	res, err := f.store.SubmitAnswer(ctx, state.Checkpoint.ID, state.Question.ID, f.wrong[0], f.user.ID)
	require.NoError(t, err)

	assert.False(t, res.Correct)
	assert.False(t, res.CheckpointComplete)
	assert.Equal(t, f.correct[0], res.CorrectChoiceID)
	assert.Nil(t, res.NewQuestion, "rotation disabled keeps the question")

	// The pointer is untouched: re-entering serves the same question.
	_, again := f.enter(t, 1)
	require.NotNil(t, again.Question)
	assert.Equal(t, state.Question.ID, again.Question.ID)
}

// Completed checkpoints are terminal: replays are rejected with no writes.
func TestSubmitAnswerAfterCompletionRejected(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	_, state := f.enter(t, 1)
	_, err := f.store.SubmitAnswer(ctx, state.Checkpoint.ID, state.Question.ID, f.correct[0], f.user.ID)
	require.NoError(t, err)
	attempts := f.countAttempts(t)

	for _, choice := range []int64{f.correct[0], f.wrong[0]} {
		_, err = f.store.SubmitAnswer(ctx, state.Checkpoint.ID, state.Question.ID, choice, f.user.ID)
		assert.ErrorIs(t, err, hunt.ErrInvalidSubmission)
	}
	assert.Equal(t, attempts, f.countAttempts(t), "rejected replays must not be recorded")
}

func TestSubmitAnswerWrongOwnerRejected(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	intruder := seedUser(t, f.store, "someone-else")

	_, state := f.enter(t, 1)
	_, err := f.store.SubmitAnswer(ctx, state.Checkpoint.ID, state.Question.ID, f.correct[0], intruder.ID)
	assert.ErrorIs(t, err, hunt.ErrInvalidSubmission)
	assert.Equal(t, 0, f.countAttempts(t))
}

// A choice belonging to a different question is rejected before the attempt
// log is touched.
func TestSubmitAnswerForeignChoiceRejected(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	_, state := f.enter(t, 1)
	_, err := f.store.SubmitAnswer(ctx, state.Checkpoint.ID, state.Question.ID, f.correct[1], f.user.ID)
	assert.ErrorIs(t, err, hunt.ErrInvalidSubmission)
	assert.Equal(t, 0, f.countAttempts(t))
}

// Completing every checkpoint finishes the session and issues exactly one
// redemption token; a duplicated final submission is rejected cleanly.
func TestFullCompletionIssuesOneToken(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()

	var sess hunt.Session
	for i := 1; i <= 4; i++ {
		s, state := f.enter(t, i)
		sess = s
		res, err := f.store.SubmitAnswer(ctx, state.Checkpoint.ID, state.Question.ID, f.correct[i-1], f.user.ID)
		require.NoError(t, err)
		assert.False(t, res.AllComplete)
		assert.Empty(t, res.RedeemToken)
	}

	_, state := f.enter(t, 5)
	res, err := f.store.SubmitAnswer(ctx, state.Checkpoint.ID, state.Question.ID, f.correct[4], f.user.ID)
	require.NoError(t, err)
	assert.True(t, res.AllComplete)
	assert.NotEmpty(t, res.RedeemToken)
	assert.Equal(t, 5, res.Progress.Completed)

	// Simulated duplicate network retry of the final submission.
	_, err = f.store.SubmitAnswer(ctx, state.Checkpoint.ID, state.Question.ID, f.correct[4], f.user.ID)
	assert.ErrorIs(t, err, hunt.ErrInvalidSubmission)

	assert.Equal(t, 1, f.countRedeemTokens(t, sess.ID))

	var completedAt sql.NullInt64
	require.NoError(t, f.dbh.QueryRow(
		`SELECT completed_at FROM sessions WHERE id = $1`, sess.ID).Scan(&completedAt))
	assert.True(t, completedAt.Valid, "session must be marked completed")

	token, err := f.store.ExistingRedeemToken(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, res.RedeemToken, token)
}

// The token upsert is a no-op when a row already exists, so re-running the
// issuance path can never mint a second live token.
func TestRedeemTokenIssuanceIdempotent(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	sess, state := f.enter(t, 1)
	_, err := f.dbh.Exec(`
		INSERT INTO redeem_tokens (token, session_id, expires_at)
		VALUES ($1, $2, $3)`,
		"pre-existing", sess.ID, time.Now().Add(time.Hour).Unix())
	require.NoError(t, err)

	res, err := f.store.SubmitAnswer(ctx, state.Checkpoint.ID, state.Question.ID, f.correct[0], f.user.ID)
	require.NoError(t, err)
	assert.True(t, res.AllComplete)
	assert.Equal(t, "pre-existing", res.RedeemToken)
	assert.Equal(t, 1, f.countRedeemTokens(t, sess.ID))
}

// Rotation pool of three: two wrong answers produce three distinct questions
// across the three presentations; only once the pool is exhausted may a seen
// question come back.
func TestRotationNeverRepeatsUntilExhausted(t *testing.T) {
	store, dbh := newTestStore(t)
	themeID := seedTheme(t, dbh, `{}`)
	campaignID := seedCampaign(t, dbh, themeID, 1, true) // rotation on
	cat := seedCategory(t, dbh, "riddles")
	for _, text := range []string{"q-alpha", "q-beta", "q-gamma"} {
		seedQuestion(t, dbh, cat, text, "right", "wrong")
	}
	seedCheckpointToken(t, dbh, campaignID, 1, cat, time.Now().Add(time.Hour).Unix())
	user := seedUser(t, store, "rotator")

	ctx := context.Background()
	sess, err := store.GetOrCreateSession(ctx, user.ID, campaignID)
	require.NoError(t, err)
	state, err := store.GetOrAssignQuestion(ctx, sess.ID, 1, cat)
	require.NoError(t, err)
	require.NotNil(t, state.Question)

	seen := map[string]bool{state.Question.Text: true}
	current := state.Question

	for i := 0; i < 2; i++ {
		res, err := store.SubmitAnswer(ctx, state.Checkpoint.ID, current.ID,
			wrongChoiceOf(t, dbh, current.ID), user.ID)
		require.NoError(t, err)
		assert.False(t, res.Correct)
		require.NotNil(t, res.NewQuestion, "rotation must supply a replacement")
		assert.False(t, seen[res.NewQuestion.Text], "rotation repeated %q", res.NewQuestion.Text)
		seen[res.NewQuestion.Text] = true
		current = res.NewQuestion
	}
	assert.Len(t, seen, 3)

	// Pool exhausted: the cycle-back fallback still serves a question rather
	// than stranding the player.
	res, err := store.SubmitAnswer(ctx, state.Checkpoint.ID, current.ID,
		wrongChoiceOf(t, dbh, current.ID), user.ID)
	require.NoError(t, err)
	require.NotNil(t, res.NewQuestion)
	assert.True(t, seen[res.NewQuestion.Text])
}

// Answering the rotated question correctly completes the checkpoint.
func TestRotatedQuestionStillCompletes(t *testing.T) {
	store, dbh := newTestStore(t)
	themeID := seedTheme(t, dbh, `{}`)
	campaignID := seedCampaign(t, dbh, themeID, 1, true)
	cat := seedCategory(t, dbh, "riddles")
	seedQuestion(t, dbh, cat, "q-one", "right", "wrong")
	seedQuestion(t, dbh, cat, "q-two", "right", "wrong")
	seedCheckpointToken(t, dbh, campaignID, 1, cat, time.Now().Add(time.Hour).Unix())
	user := seedUser(t, store, "finisher")

	ctx := context.Background()
	sess, err := store.GetOrCreateSession(ctx, user.ID, campaignID)
	require.NoError(t, err)
	state, err := store.GetOrAssignQuestion(ctx, sess.ID, 1, cat)
	require.NoError(t, err)

	res, err := store.SubmitAnswer(ctx, state.Checkpoint.ID, state.Question.ID,
		wrongChoiceOf(t, dbh, state.Question.ID), user.ID)
	require.NoError(t, err)
	require.NotNil(t, res.NewQuestion)

	var correctID int64
	require.NoError(t, dbh.QueryRow(
		`SELECT id FROM choices WHERE question_id = $1 AND is_correct = 1`,
		res.NewQuestion.ID).Scan(&correctID))

	final, err := store.SubmitAnswer(ctx, state.Checkpoint.ID, res.NewQuestion.ID, correctID, user.ID)
	require.NoError(t, err)
	assert.True(t, final.Correct)
	assert.True(t, final.AllComplete)
	assert.NotEmpty(t, final.RedeemToken)
}

func TestSubmitAnswerUnknownCheckpoint(t *testing.T) {
	f := newFixture(t, 1)
	_, err := f.store.SubmitAnswer(context.Background(), 9999, f.questions[0], f.correct[0], f.user.ID)
	assert.ErrorIs(t, err, hunt.ErrInvalidSubmission)
}
