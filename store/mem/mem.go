// Package mem implements an in-memory block store.
package mem

import (
	"context"
	"sort"
	"sync"

	"github.com/ipfs/go-cid"

	"github.com/bobg/txlog"
	"github.com/bobg/txlog/store"
)

var (
	_ txlog.Store       = &Store{}
	_ txlog.MultiGetter = &Store{}
	_ txlog.MultiPutter = &Store{}
)

// Store is a memory-based implementation of a block store.
type Store struct {
	mu     sync.Mutex
	blocks map[cid.Cid][]byte
}

// New produces a new Store.
func New() *Store {
	return &Store{
		blocks: make(map[cid.Cid][]byte),
	}
}

// Get gets the block with the given CID.
func (s *Store) Get(_ context.Context, c cid.Cid) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(c)
}

// Caller must obtain a lock.
func (s *Store) get(c cid.Cid) ([]byte, error) {
	if data, ok := s.blocks[c]; ok {
		return data, nil
	}
	return nil, txlog.ErrNotFound
}

// GetMulti gets multiple blocks in one call.
func (s *Store) GetMulti(_ context.Context, cids []cid.Cid) (map[cid.Cid][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		result = make(map[cid.Cid][]byte)
		errmap txlog.MultiErr
	)
	for _, c := range cids {
		data, err := s.get(c)
		if err != nil {
			if errmap == nil {
				errmap = make(txlog.MultiErr)
			}
			errmap[c] = err
			continue
		}
		result[c] = data
	}
	if errmap != nil {
		return result, errmap
	}
	return result, nil
}

// Put adds a block to the store if it wasn't already present.
func (s *Store) Put(_ context.Context, c cid.Cid, data []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.put(c, data), nil
}

// Caller must obtain a lock.
func (s *Store) put(c cid.Cid, data []byte) bool {
	if _, ok := s.blocks[c]; ok {
		return false
	}
	s.blocks[c] = append([]byte(nil), data...)
	return true
}

// PutMulti adds multiple blocks to the store in one call.
func (s *Store) PutMulti(_ context.Context, blocks []*txlog.Block) (map[cid.Cid]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make(map[cid.Cid]bool, len(blocks))
	for _, b := range blocks {
		if s.put(b.Cid(), b.Bytes()) {
			result[b.Cid()] = true
		} else if _, ok := result[b.Cid()]; !ok {
			result[b.Cid()] = false
		}
	}
	return result, nil
}

// Len tells how many blocks are in the store.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blocks)
}

// ListRefs produces all CIDs in the store, in the order defined by txlog.Less.
func (s *Store) ListRefs(ctx context.Context, start cid.Cid, f func(cid.Cid) error) error {
	s.mu.Lock()
	cids := make([]cid.Cid, 0, len(s.blocks))
	for c := range s.blocks {
		cids = append(cids, c)
	}
	s.mu.Unlock()

	sort.Slice(cids, func(i, j int) bool { return txlog.Less(cids[i], cids[j]) })
	index := sort.Search(len(cids), func(n int) bool {
		return txlog.Less(start, cids[n])
	})

	for i := index; i < len(cids); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := f(cids[i])
		if err != nil {
			return err
		}
	}
	return nil
}

func init() {
	store.Register("mem", func(context.Context, map[string]interface{}) (txlog.Store, error) {
		return New(), nil
	})
}
