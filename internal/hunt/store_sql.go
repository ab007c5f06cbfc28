package hunt

import (
	"context"
	"database/sql"
	"time"

	"github.com/trailquest/hunt-server/internal/db"
)

// SQLStore implements Store on database/sql, portable across the sqlite and
// postgres drivers. All multi-step operations run inside one transaction;
// cross-request correctness comes from row locks (postgres) or the serialized
// writer (sqlite) plus the unique-constraint upserts.
type SQLStore struct {
	db        *sql.DB
	driver    db.Driver
	redeemTTL time.Duration
	now       func() time.Time
}

func NewSQLStore(dbh *sql.DB, driver db.Driver, redeemTTL time.Duration) *SQLStore {
	if redeemTTL <= 0 {
		redeemTTL = 7 * 24 * time.Hour
	}
	return &SQLStore{db: dbh, driver: driver, redeemTTL: redeemTTL, now: time.Now}
}

// withTx runs fn in a transaction, rolling back wholesale on any error.
func (s *SQLStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// forUpdate is appended to locked reads. SQLite has no FOR UPDATE; its write
// transactions are serialized on a single connection instead.
func (s *SQLStore) forUpdate() string {
	if s.driver == db.DriverPostgres {
		return " FOR UPDATE"
	}
	return ""
}

func (s *SQLStore) forUpdateOf(alias string) string {
	if s.driver == db.DriverPostgres {
		return " FOR UPDATE OF " + alias
	}
	return ""
}

func nullInt(n sql.NullInt64) int64 {
	if n.Valid {
		return n.Int64
	}
	return 0
}
