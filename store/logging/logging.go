// Package logging implements a store that delegates everything to a nested store,
// logging operations as they happen.
package logging

import (
	"context"
	"log"

	"github.com/ipfs/go-cid"
	"github.com/pkg/errors"

	"github.com/bobg/txlog"
	"github.com/bobg/txlog/store"
)

var _ txlog.Store = &Store{}

// Store logs each call before passing it on to a nested store.
type Store struct {
	s      txlog.Store
	logger *log.Logger
}

// New produces a Store logging calls on s to the standard logger.
func New(s txlog.Store) *Store {
	return NewWithLogger(s, log.Default())
}

// NewWithLogger is like New but logs to the given logger.
func NewWithLogger(s txlog.Store, logger *log.Logger) *Store {
	return &Store{s: s, logger: logger}
}

func (s *Store) Get(ctx context.Context, c cid.Cid) ([]byte, error) {
	data, err := s.s.Get(ctx, c)
	if err != nil {
		s.logger.Printf("ERROR Get %s: %s", c, err)
	} else {
		s.logger.Printf("Get %s (%d bytes)", c, len(data))
	}
	return data, err
}

func (s *Store) ListRefs(ctx context.Context, start cid.Cid, f func(cid.Cid) error) error {
	s.logger.Printf("ListRefs, start=%s", start)
	return s.s.ListRefs(ctx, start, func(c cid.Cid) error {
		err := f(c)
		if err != nil {
			s.logger.Printf("  ERROR in ListRefs: %s: %s", c, err)
		} else {
			s.logger.Printf("  ListRefs: %s", c)
		}
		return err
	})
}

func (s *Store) Put(ctx context.Context, c cid.Cid, data []byte) (bool, error) {
	added, err := s.s.Put(ctx, c, data)
	if err != nil {
		s.logger.Printf("ERROR in Put %s: %s", c, err)
	} else {
		s.logger.Printf("Put %s, added=%v", c, added)
	}
	return added, err
}

func init() {
	store.Register("logging", func(ctx context.Context, conf map[string]interface{}) (txlog.Store, error) {
		nestedStore, err := store.Nested(ctx, conf, "nested")
		if err != nil {
			return nil, errors.Wrap(err, "creating nested store")
		}
		return New(nestedStore), nil
	})
}
