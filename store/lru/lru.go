// Package lru implements a block store that acts as a least-recently-used cache for a nested block store.
package lru

import (
	"context"

	lru "github.com/hashicorp/golang-lru"
	"github.com/ipfs/go-cid"
	"github.com/pkg/errors"

	"github.com/bobg/txlog"
	"github.com/bobg/txlog/store"
)

var _ txlog.Store = &Store{}

// Store implements a memory-based least-recently-used cache for a block store.
// Writes pass through to the underlying block store.
type Store struct {
	c *lru.Cache // cid.Cid->[]byte
	s txlog.Store
}

// New produces a new Store backed by s and caching up to size blocks.
func New(s txlog.Store, size int) (*Store, error) {
	c, err := lru.New(size)
	return &Store{s: s, c: c}, err
}

// Get gets the block with the given CID.
func (s *Store) Get(ctx context.Context, c cid.Cid) ([]byte, error) {
	if got, ok := s.c.Get(c); ok {
		return got.([]byte), nil
	}
	data, err := s.s.Get(ctx, c)
	if err != nil {
		return nil, err
	}
	s.c.Add(c, data)
	return data, nil
}

// Put adds a block to the store if it wasn't already present.
func (s *Store) Put(ctx context.Context, c cid.Cid, data []byte) (bool, error) {
	added, err := s.s.Put(ctx, c, data)
	if err != nil {
		return added, err
	}
	s.c.Add(c, data)
	return added, nil
}

// ListRefs produces all CIDs in the nested store, in the order defined by txlog.Less.
func (s *Store) ListRefs(ctx context.Context, start cid.Cid, f func(cid.Cid) error) error {
	return s.s.ListRefs(ctx, start, f)
}

// Cached tells whether the block with the given CID is in the cache,
// without updating its recency.
func (s *Store) Cached(c cid.Cid) bool {
	return s.c.Contains(c)
}

func init() {
	store.Register("lru", func(ctx context.Context, conf map[string]interface{}) (txlog.Store, error) {
		size, err := store.Int(conf, "size")
		if err != nil {
			return nil, err
		}
		nestedStore, err := store.Nested(ctx, conf, "nested")
		if err != nil {
			return nil, errors.Wrap(err, "creating nested store")
		}
		return New(nestedStore, size)
	})
}
