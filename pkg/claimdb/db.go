// Package claimdb persists which transaction hash each order has
// claimed. This is caller-side state: the verification subsystem keeps
// no memory between calls, so the claimed set is rebuilt from this store
// and passed in on every scan.
package claimdb

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/zeebo/errs"

	"github.com/lodgepay/chainpay/pkg/match"
)

const schema = `
CREATE TABLE IF NOT EXISTS claims (
	order_ref  TEXT NOT NULL PRIMARY KEY,
	tx_hash    TEXT NOT NULL UNIQUE,
	claimed_at TIMESTAMP NOT NULL
)`

type DB struct {
	db *sql.DB
}

func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errs.Wrap(err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, errs.Combine(errs.Wrap(err), db.Close())
	}
	return &DB{db: db}, nil
}

func OpenInMemory() (*DB, error) {
	return Open(":memory:")
}

func (d *DB) Close() error {
	return errs.Wrap(d.db.Close())
}

// Claim records that order owns hash. Hashes are stored lowercased so a
// later claim cannot slip past the uniqueness constraint on casing
// alone; each order holds at most one hash and each hash belongs to at
// most one order.
func (d *DB) Claim(ctx context.Context, orderRef, hash string) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO claims (order_ref, tx_hash, claimed_at) VALUES (?, ?, ?)`,
		orderRef,
		strings.ToLower(hash),
		time.Now().UTC().Truncate(time.Millisecond),
	)
	if err != nil {
		return errs.New("unable to claim %s for order %s: %v", hash, orderRef, err)
	}
	return nil
}

// ClaimedByOthers returns the set of hashes held by every order except
// orderRef, ready to feed into the matcher.
func (d *DB) ClaimedByOthers(ctx context.Context, orderRef string) (match.ClaimedSet, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT tx_hash FROM claims WHERE order_ref != ?`, orderRef)
	if err != nil {
		return nil, errs.Wrap(err)
	}
	defer func() { _ = rows.Close() }()

	set := match.NewClaimedSet()
	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return nil, errs.Wrap(err)
		}
		set.Add(hash)
	}
	return set, errs.Wrap(rows.Err())
}

// HashForOrder returns the hash claimed by orderRef, if any.
func (d *DB) HashForOrder(ctx context.Context, orderRef string) (string, bool, error) {
	var hash string
	err := d.db.QueryRowContext(ctx,
		`SELECT tx_hash FROM claims WHERE order_ref = ?`, orderRef).Scan(&hash)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", false, nil
	case err != nil:
		return "", false, errs.Wrap(err)
	}
	return hash, true, nil
}
