package hunt_test

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trailquest/hunt-server/internal/db"
	"github.com/trailquest/hunt-server/internal/hunt"
)

func newTestStore(t *testing.T) (*hunt.SQLStore, *sql.DB) {
	t.Helper()
	// Named shared-cache memory DB so every pooled connection sees the same
	// data; the pool keeps a connection alive for the test's lifetime.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	dbh, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = dbh.Close() })
	return hunt.NewSQLStore(dbh, db.DriverSQLite, 7*24*time.Hour), dbh
}

func seedTheme(t *testing.T, dbh *sql.DB, config string) int64 {
	t.Helper()
	var id int64
	err := dbh.QueryRow(
		`INSERT INTO themes (name, config) VALUES ($1, $2) RETURNING id`,
		"test-theme", config).Scan(&id)
	require.NoError(t, err)
	return id
}

func seedCampaign(t *testing.T, dbh *sql.DB, themeID int64, total int, rotate bool) int64 {
	t.Helper()
	var id int64
	err := dbh.QueryRow(`
		INSERT INTO campaigns (slug, title, theme_id, is_active, total_checkpoints, rotate_on_wrong)
		VALUES ($1, $2, $3, 1, $4, $5)
		RETURNING id`,
		fmt.Sprintf("camp-%s", strings.ReplaceAll(t.Name(), "/", "-")),
		"Test Hunt", themeID, total, rotate).Scan(&id)
	require.NoError(t, err)
	return id
}

func seedCategory(t *testing.T, dbh *sql.DB, name string) int64 {
	t.Helper()
	var id int64
	err := dbh.QueryRow(
		`INSERT INTO categories (name) VALUES ($1) RETURNING id`, name).Scan(&id)
	require.NoError(t, err)
	return id
}

// seedQuestion inserts a question with one correct choice (the first) and
// len(wrong) incorrect ones, returning the question id, the correct choice
// id, and the wrong choice ids.
func seedQuestion(t *testing.T, dbh *sql.DB, categoryID int64, text, correct string, wrong ...string) (int64, int64, []int64) {
	t.Helper()
	var qid int64
	err := dbh.QueryRow(`
		INSERT INTO questions (category_id, question_text, explanation, is_active)
		VALUES ($1, $2, $3, 1) RETURNING id`,
		categoryID, text, "because "+correct).Scan(&qid)
	require.NoError(t, err)

	var correctID int64
	err = dbh.QueryRow(`
		INSERT INTO choices (question_id, choice_text, sort_order, is_correct)
		VALUES ($1, $2, 0, 1) RETURNING id`, qid, correct).Scan(&correctID)
	require.NoError(t, err)

	wrongIDs := make([]int64, 0, len(wrong))
	for i, w := range wrong {
		var wid int64
		err = dbh.QueryRow(`
			INSERT INTO choices (question_id, choice_text, sort_order, is_correct)
			VALUES ($1, $2, $3, 0) RETURNING id`, qid, w, i+1).Scan(&wid)
		require.NoError(t, err)
		wrongIDs = append(wrongIDs, wid)
	}
	return qid, correctID, wrongIDs
}

func seedCheckpointToken(t *testing.T, dbh *sql.DB, campaignID int64, index int, categoryID int64, expiresAt int64) string {
	t.Helper()
	token := fmt.Sprintf("cp-%d-%d-%d-%s", campaignID, index, expiresAt,
		strings.ReplaceAll(t.Name(), "/", "-"))
	_, err := dbh.Exec(`
		INSERT INTO checkpoint_tokens (token, campaign_id, checkpoint_index, category_id, expires_at)
		VALUES ($1, $2, $3, $4, $5)`,
		token, campaignID, index, categoryID, expiresAt)
	require.NoError(t, err)
	return token
}

func seedUser(t *testing.T, store *hunt.SQLStore, subject string) hunt.User {
	t.Helper()
	u, err := store.FindOrCreateUser(context.Background(), subject, "Player", "")
	require.NoError(t, err)
	return u
}

// hunt fixture: one campaign with n checkpoints, each bound to its own
// category holding a single question, rotation off.
type fixture struct {
	store      *hunt.SQLStore
	dbh        *sql.DB
	campaignID int64
	categories []int64
	questions  []int64
	correct    []int64
	wrong      []int64
	tokens     []string
	user       hunt.User
}

func newFixture(t *testing.T, checkpoints int) *fixture {
	t.Helper()
	store, dbh := newTestStore(t)
	themeID := seedTheme(t, dbh, `{}`)
	campaignID := seedCampaign(t, dbh, themeID, checkpoints, false)
	future := time.Now().Add(24 * time.Hour).Unix()

	f := &fixture{store: store, dbh: dbh, campaignID: campaignID}
	for i := 1; i <= checkpoints; i++ {
		cat := seedCategory(t, dbh, fmt.Sprintf("cat-%d", i))
		qid, correctID, wrongIDs := seedQuestion(t, dbh, cat,
			fmt.Sprintf("question %d", i), "right", "wrong")
		f.categories = append(f.categories, cat)
		f.questions = append(f.questions, qid)
		f.correct = append(f.correct, correctID)
		f.wrong = append(f.wrong, wrongIDs[0])
		f.tokens = append(f.tokens, seedCheckpointToken(t, dbh, campaignID, i, cat, future))
	}
	f.user = seedUser(t, store, "subject-"+t.Name())
	return f
}

// enter scans checkpoint idx (1-based) and returns the state.
func (f *fixture) enter(t *testing.T, idx int) (hunt.Session, hunt.EnterState) {
	t.Helper()
	ctx := context.Background()
	sess, err := f.store.GetOrCreateSession(ctx, f.user.ID, f.campaignID)
	require.NoError(t, err)
	state, err := f.store.GetOrAssignQuestion(ctx, sess.ID, idx, f.categories[idx-1])
	require.NoError(t, err)
	return sess, state
}

func (f *fixture) countAttempts(t *testing.T) int {
	t.Helper()
	var n int
	require.NoError(t, f.dbh.QueryRow(`SELECT COUNT(*) FROM attempts`).Scan(&n))
	return n
}

func (f *fixture) countRedeemTokens(t *testing.T, sessionID int64) int {
	t.Helper()
	var n int
	require.NoError(t, f.dbh.QueryRow(
		`SELECT COUNT(*) FROM redeem_tokens WHERE session_id = $1`, sessionID).Scan(&n))
	return n
}
