// Package sqlite3 implements a block store on a Sqlite database.
package sqlite3

import (
	"context"
	"database/sql"

	"github.com/bobg/sqlutil"
	"github.com/ipfs/go-cid"
	_ "github.com/mattn/go-sqlite3" // register the sqlite3 type for sql.Open
	"github.com/pkg/errors"

	"github.com/bobg/txlog"
	"github.com/bobg/txlog/store"
)

var (
	_ txlog.Store       = &Store{}
	_ txlog.MultiPutter = &Store{}
)

// Store is a Sqlite-based block store.
type Store struct {
	db *sql.DB
}

// Schema is the SQL that New executes.
// It creates the `blocks` table if it does not exist.
// (If it does exist, it must have the columns and constraints described here.)
// Sqlite compares BLOBs bytewise,
// so ordering by cid matches txlog.Less.
const Schema = `
CREATE TABLE IF NOT EXISTS blocks (
  cid BLOB PRIMARY KEY NOT NULL,
  data BLOB NOT NULL
);
`

// New produces a new Store using db for storage.
// It expects to create the table `blocks`,
// or for that table already to exist with the correct schema.
// (See Schema.)
func New(ctx context.Context, db *sql.DB) (*Store, error) {
	_, err := db.ExecContext(ctx, Schema)
	return &Store{db: db}, err
}

// Get gets the block with the given CID.
func (s *Store) Get(ctx context.Context, c cid.Cid) ([]byte, error) {
	const q = `SELECT data FROM blocks WHERE cid = $1`

	var data []byte
	err := s.db.QueryRowContext(ctx, q, c.Bytes()).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, txlog.ErrNotFound
	}
	return data, errors.Wrapf(err, "getting block %s", c)
}

const insertQuery = `INSERT INTO blocks (cid, data) VALUES ($1, $2) ON CONFLICT DO NOTHING`

type execer interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
}

func put(ctx context.Context, db execer, c cid.Cid, data []byte) (bool, error) {
	res, err := db.ExecContext(ctx, insertQuery, c.Bytes(), data)
	if err != nil {
		return false, errors.Wrapf(err, "inserting block %s", c)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "counting affected rows")
	}
	return aff > 0, nil
}

// Put adds a block to the store if it wasn't already present.
func (s *Store) Put(ctx context.Context, c cid.Cid, data []byte) (bool, error) {
	return put(ctx, s.db, c, data)
}

// PutMulti adds many blocks in a single database transaction.
func (s *Store) PutMulti(ctx context.Context, blocks []*txlog.Block) (map[cid.Cid]bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback()

	result := make(map[cid.Cid]bool, len(blocks))
	for _, b := range blocks {
		added, err := put(ctx, tx, b.Cid(), b.Bytes())
		if err != nil {
			return nil, err
		}
		result[b.Cid()] = result[b.Cid()] || added
	}
	return result, errors.Wrap(tx.Commit(), "committing transaction")
}

// ListRefs produces all CIDs in the store, in the order defined by txlog.Less.
func (s *Store) ListRefs(ctx context.Context, start cid.Cid, f func(cid.Cid) error) error {
	const q = `SELECT cid FROM blocks WHERE cid > $1 ORDER BY cid`

	startBytes := start.Bytes()
	if startBytes == nil {
		startBytes = []byte{}
	}
	return sqlutil.ForQueryRows(ctx, s.db, q, startBytes, func(b []byte) error {
		c, err := cid.Cast(b)
		if err != nil {
			return errors.Wrapf(err, "parsing cid %x", b)
		}
		return f(c)
	})
}

func init() {
	store.Register("sqlite3", func(ctx context.Context, conf map[string]interface{}) (txlog.Store, error) {
		conn, err := store.String(conf, "conn")
		if err != nil {
			return nil, err
		}
		db, err := sql.Open("sqlite3", conn)
		if err != nil {
			return nil, errors.Wrap(err, "opening db")
		}
		return New(ctx, db)
	})
}
