// Package pg implements a block store on a Postgresql database.
package pg

import (
	"context"
	"database/sql"

	"github.com/bobg/sqlutil"
	"github.com/ipfs/go-cid"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/bobg/txlog"
	"github.com/bobg/txlog/store"
)

var (
	_ txlog.Store       = &Store{}
	_ txlog.MultiGetter = &Store{}
)

// Store is a Postgresql-based block store.
type Store struct {
	db *sql.DB
}

// Schema is the SQL that New executes.
// It creates the `blocks` table if it does not exist.
// (If it does exist, it must have the columns and constraints described here.)
const Schema = `
CREATE TABLE IF NOT EXISTS blocks (
  cid BYTEA PRIMARY KEY NOT NULL,
  data BYTEA NOT NULL
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

	var result []byte
	err := s.db.QueryRowContext(ctx, q, c.Bytes()).Scan(&result)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, txlog.ErrNotFound
	}
	return result, errors.Wrapf(err, "getting block %s", c)
}

// GetMulti gets multiple blocks in one query.
// CIDs that are not present are reported as txlog.ErrNotFound in a txlog.MultiErr.
func (s *Store) GetMulti(ctx context.Context, cids []cid.Cid) (map[cid.Cid][]byte, error) {
	const q = `SELECT cid, data FROM blocks WHERE cid = ANY($1)`

	arg := make(pq.ByteaArray, 0, len(cids))
	for _, c := range cids {
		arg = append(arg, c.Bytes())
	}

	result := make(map[cid.Cid][]byte)
	err := sqlutil.ForQueryRows(ctx, s.db, q, arg, func(b, data []byte) error {
		c, err := cid.Cast(b)
		if err != nil {
			return errors.Wrapf(err, "parsing cid %x", b)
		}
		result[c] = data
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "querying blocks")
	}

	var errmap txlog.MultiErr
	for _, c := range cids {
		if _, ok := result[c]; ok {
			continue
		}
		if errmap == nil {
			errmap = make(txlog.MultiErr)
		}
		errmap[c] = txlog.ErrNotFound
	}
	if errmap != nil {
		return result, errmap
	}
	return result, nil
}

// Put adds a block to the store if it wasn't already present.
func (s *Store) Put(ctx context.Context, c cid.Cid, data []byte) (bool, error) {
	const q = `INSERT INTO blocks (cid, data) VALUES ($1, $2) ON CONFLICT DO NOTHING`

	res, err := s.db.ExecContext(ctx, q, c.Bytes(), data)
	if err != nil {
		return false, errors.Wrapf(err, "inserting block %s", c)
	}

	aff, err := res.RowsAffected()
	return aff > 0, errors.Wrap(err, "counting affected rows")
}

// ListRefs produces all CIDs in the store, in the order defined by txlog.Less.
func (s *Store) ListRefs(ctx context.Context, start cid.Cid, f func(cid.Cid) error) error {
	const q = `SELECT cid FROM blocks WHERE cid > $1 ORDER BY cid`

	startBytes := start.Bytes()
	if startBytes == nil {
		startBytes = []byte{}
	}
	rows, err := s.db.QueryContext(ctx, q, startBytes)
	if err != nil {
		return errors.Wrap(err, "querying starting position")
	}
	defer rows.Close()

	for rows.Next() {
		var b []byte
		err := rows.Scan(&b)
		if err != nil {
			return errors.Wrap(err, "scanning query result")
		}
		c, err := cid.Cast(b)
		if err != nil {
			return errors.Wrapf(err, "parsing cid %x", b)
		}
		if err := f(c); err != nil {
			return err
		}
	}
	return errors.Wrap(rows.Err(), "iterating over result rows")
}

func init() {
	store.Register("pg", func(ctx context.Context, conf map[string]interface{}) (txlog.Store, error) {
		conn, err := store.String(conf, "conn")
		if err != nil {
			return nil, err
		}
		db, err := sql.Open("postgres", conn)
		if err != nil {
			return nil, errors.Wrap(err, "opening db")
		}
		return New(ctx, db)
	})
}
