// Package bt implements a block store on Google Cloud Bigtable.
package bt

import (
	"context"
	"encoding/hex"
	"strings"

	"cloud.google.com/go/bigtable"
	"github.com/ipfs/go-cid"
	"github.com/pkg/errors"
	"google.golang.org/api/option"

	"github.com/bobg/txlog"
	"github.com/bobg/txlog/store"
)

var (
	_ txlog.Store       = &Store{}
	_ txlog.MultiGetter = &Store{}
)

// Store is a Google Cloud Bigtable-backed implementation of a block store.
// Each block is a row keyed by "b:" followed by the hex encoding of its CID's bytes.
// The table must have a column family named "block".
type Store struct {
	t *bigtable.Table
}

const (
	blockcol = "block"
	blockfam = "block"
)

// New produces a new Store.
func New(t *bigtable.Table) *Store {
	return &Store{t: t}
}

// Get gets the block with the given CID.
func (s *Store) Get(ctx context.Context, c cid.Cid) ([]byte, error) {
	row, err := s.t.ReadRow(ctx, blockKey(c))
	if err != nil {
		return nil, errors.Wrapf(err, "reading row %s", c)
	}
	items := row[blockfam]
	if len(items) == 0 {
		return nil, txlog.ErrNotFound
	}
	return items[0].Value, nil
}

// GetMulti reads multiple rows in one call.
// CIDs that are not present are reported as txlog.ErrNotFound in a txlog.MultiErr.
func (s *Store) GetMulti(ctx context.Context, cids []cid.Cid) (map[cid.Cid][]byte, error) {
	rowKeys := make(bigtable.RowList, len(cids))
	for i, c := range cids {
		rowKeys[i] = blockKey(c)
	}

	var (
		result   = make(map[cid.Cid][]byte)
		innerErr error
	)
	err := s.t.ReadRows(ctx, rowKeys, func(row bigtable.Row) bool {
		key := row.Key()
		c, err := cidFromKey(key)
		if err != nil {
			innerErr = err
			return false
		}
		if items := row[blockfam]; len(items) > 0 {
			result[c] = items[0].Value
		}
		return true
	})
	if err != nil {
		return nil, errors.Wrap(err, "reading rows")
	}
	if innerErr != nil {
		return nil, innerErr
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

// ListRefs produces all CIDs in the store, in the order defined by txlog.Less.
func (s *Store) ListRefs(ctx context.Context, start cid.Cid, f func(cid.Cid) error) error {
	var innerErr error
	rowFn := func(row bigtable.Row) bool {
		key := row.Key()
		c, err := cidFromKey(key)
		if err != nil {
			innerErr = err
			return false
		}
		if err = f(c); err != nil {
			innerErr = err
			return false
		}
		return true
	}

	// Appending "0" yields the least hex key strictly after start's.
	startKey := blockPrefix
	if start.Defined() {
		startKey = blockKey(start) + "0"
	}
	// "b;" is the least key after every "b:" key.
	err := s.t.ReadRows(ctx, bigtable.NewRange(startKey, blockLimit), rowFn)
	if err != nil {
		return errors.Wrap(err, "reading rows")
	}
	return innerErr
}

// Put adds a block to the store if it wasn't already present.
func (s *Store) Put(ctx context.Context, c cid.Cid, data []byte) (bool, error) {
	mut := bigtable.NewMutation()
	mut.Set(blockfam, blockcol, bigtable.Now(), data)

	cmut := bigtable.NewCondMutation(bigtable.LatestNFilter(1), nil, mut)

	var alreadyPresent bool
	err := s.t.Apply(ctx, blockKey(c), cmut, bigtable.GetCondMutationResult(&alreadyPresent))
	if err != nil {
		return false, errors.Wrapf(err, "writing row for %s", c)
	}
	return !alreadyPresent, nil
}

const (
	blockPrefix = "b:"
	blockLimit  = "b;"
)

func blockKey(c cid.Cid) string {
	return blockPrefix + hex.EncodeToString(c.Bytes())
}

func cidFromKey(key string) (cid.Cid, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(key, blockPrefix))
	if err != nil {
		return cid.Undef, errors.Wrapf(err, "decoding row key %s", key)
	}
	c, err := cid.Cast(b)
	return c, errors.Wrapf(err, "parsing cid in row key %s", key)
}

func init() {
	store.Register("bt", func(ctx context.Context, conf map[string]interface{}) (txlog.Store, error) {
		project, err := store.String(conf, "project")
		if err != nil {
			return nil, err
		}
		instance, err := store.String(conf, "instance")
		if err != nil {
			return nil, err
		}
		table, err := store.String(conf, "table")
		if err != nil {
			return nil, err
		}

		var options []option.ClientOption
		if creds, ok := conf["creds"].(string); ok {
			options = append(options, option.WithCredentialsFile(creds))
		}
		c, err := bigtable.NewClient(ctx, project, instance, options...)
		if err != nil {
			return nil, errors.Wrap(err, "creating bigtable client")
		}
		return New(c.Open(table)), nil
	})
}
