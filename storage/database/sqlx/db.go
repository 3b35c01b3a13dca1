// Package sqlxrepos implements the host repositories over a Moodle-like SQL schema. Queries
// name tables in braces, e.g. {course}, and are expanded with the configured table prefix.
package sqlxrepos

import (
	"context"
	"database/sql"
	"regexp"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/gregoryekhator/debonairkent/core"
)

// Context levels
const (
	contextSystem = 10
	contextCourse = 50
)

var (
	NowFunc = time.Now // mockable

	tableRe = regexp.MustCompile(`\{(\w+)\}`)
)

type DB struct {
	*sqlx.DB
	prefix string
	siteID int
}

func NewDB(db *sqlx.DB, conf *core.Config) (*DB, error) {
	if err := vala.BeginValidation().Validate(
		vala.IsNotNil(db, "db"),
		vala.IsNotNil(conf, "conf"),
	).Check(); err != nil {
		return nil, err
	}
	return &DB{DB: db, prefix: conf.Database.Prefix, siteID: conf.SiteID}, nil
}

// expand replaces the {table} names of query by the prefixed table names.
func (db *DB) expand(query string) string {
	return tableRe.ReplaceAllString(query, db.prefix+"${1}")
}

// q expands query and binds its placeholders for the driver.
func (db *DB) q(query string) string {
	return db.Rebind(db.expand(query))
}

// in expands a query holding IN (?) clauses for args.
func (db *DB) in(query string, args ...interface{}) (string, []interface{}, error) {
	query, args, err := sqlx.In(db.expand(query), args...)
	if err != nil {
		return "", nil, err
	}
	return db.Rebind(query), args, nil
}

// get runs a single row query; sql.ErrNoRows is reported as core.ErrNotFound.
func (db *DB) get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	err := db.GetContext(ctx, dest, db.q(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	return err
}

// insert runs an INSERT .. RETURNING id statement and returns the new id.
func insert(ctx context.Context, exec core.DBExecutor, query string, args ...interface{}) (int, error) {
	var id int
	if err := exec.GetContext(ctx, &id, query+" RETURNING id", args...); err != nil {
		return 0, err
	}
	return id, nil
}

// withTx runs fn in a transaction, rolled back when fn fails.
func (db *DB) withTx(ctx context.Context, fn func(tx core.DBExecutor) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

func fromUnix(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

func toUnix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
