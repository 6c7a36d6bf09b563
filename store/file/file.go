// Package file implements a block store as a file hierarchy.
package file

import (
	"context"
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bobg/flock"
	"github.com/ipfs/go-cid"
	"github.com/pkg/errors"

	"github.com/bobg/txlog"
	"github.com/bobg/txlog/store"
)

var _ txlog.Store = &Store{}

// Store is a file-based implementation of a block store.
// Each block lives in a file named by the hex encoding of its CID's bytes,
// so that directory order matches the order defined by txlog.Less.
type Store struct {
	root    string
	flocker flock.Locker
}

// New produces a new Store storing data beneath root.
func New(root string) *Store {
	return &Store{root: root}
}

const (
	topLen = 8
	midLen = 12
)

func (s *Store) blockroot() string {
	return filepath.Join(s.root, "blocks")
}

func (s *Store) blockpath(c cid.Cid) string {
	h := hex.EncodeToString(c.Bytes())
	return filepath.Join(s.blockroot(), prefix(h, topLen), prefix(h, midLen), h)
}

func prefix(s string, n int) string {
	if len(s) < n {
		return s
	}
	return s[:n]
}

func (s *Store) lockpath() string {
	return filepath.Join(s.root, "lock")
}

// Get gets the block with the given CID.
func (s *Store) Get(_ context.Context, c cid.Cid) ([]byte, error) {
	path := s.blockpath(c)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, txlog.ErrNotFound
	}
	return data, errors.Wrapf(err, "reading %s", path)
}

// Put adds a block to the store if it wasn't already present.
// The block is written to a temporary file
// and renamed into place while holding a file lock,
// so concurrent writers in other processes never see partial blocks.
func (s *Store) Put(_ context.Context, c cid.Cid, data []byte) (bool, error) {
	var (
		path = s.blockpath(c)
		dir  = filepath.Dir(path)
	)

	if _, err := os.Stat(path); err == nil {
		return false, nil
	}

	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return false, errors.Wrapf(err, "ensuring path %s exists", dir)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return false, errors.Wrapf(err, "creating temp file in %s", dir)
	}
	defer os.Remove(tmp.Name())

	_, err = tmp.Write(data)
	if err != nil {
		tmp.Close()
		return false, errors.Wrapf(err, "writing data to %s", tmp.Name())
	}
	if err = tmp.Close(); err != nil {
		return false, errors.Wrapf(err, "closing %s", tmp.Name())
	}

	if err = s.lock(); err != nil {
		return false, err
	}
	defer s.flocker.Unlock(s.lockpath())

	if _, err = os.Stat(path); err == nil {
		return false, nil
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return false, errors.Wrapf(err, "renaming %s to %s", tmp.Name(), path)
	}
	return true, nil
}

func (s *Store) lock() error {
	if err := os.MkdirAll(s.root, 0755); err != nil {
		return errors.Wrapf(err, "ensuring %s exists", s.root)
	}
	f, err := os.OpenFile(s.lockpath(), os.O_CREATE|os.O_RDONLY, 0644)
	if err != nil {
		return errors.Wrap(err, "creating lock file")
	}
	f.Close()
	return errors.Wrap(s.flocker.Lock(s.lockpath()), "locking")
}

// ListRefs produces all CIDs in the store, in the order defined by txlog.Less.
func (s *Store) ListRefs(ctx context.Context, start cid.Cid, f func(cid.Cid) error) error {
	err := os.MkdirAll(s.blockroot(), 0755)
	if err != nil {
		return errors.Wrapf(err, "ensuring %s exists", s.blockroot())
	}

	topLevel, err := os.ReadDir(s.blockroot())
	if err != nil {
		return errors.Wrapf(err, "reading dir %s", s.blockroot())
	}

	var startHex string
	if start.Defined() {
		startHex = hex.EncodeToString(start.Bytes())
	}

	topIndex := sort.Search(len(topLevel), func(n int) bool {
		return topLevel[n].Name() >= prefix(startHex, topLen)
	})
	for i := topIndex; i < len(topLevel); i++ {
		topInfo := topLevel[i]
		if !topInfo.IsDir() || !isHex(topInfo.Name()) {
			continue
		}
		topName := topInfo.Name()

		midLevel, err := os.ReadDir(filepath.Join(s.blockroot(), topName))
		if err != nil {
			return errors.Wrapf(err, "reading dir %s/%s", s.blockroot(), topName)
		}
		midIndex := sort.Search(len(midLevel), func(n int) bool {
			return midLevel[n].Name() >= prefix(startHex, midLen)
		})
		for j := midIndex; j < len(midLevel); j++ {
			midInfo := midLevel[j]
			if !midInfo.IsDir() || !isHex(midInfo.Name()) {
				continue
			}
			midName := midInfo.Name()

			blockInfos, err := os.ReadDir(filepath.Join(s.blockroot(), topName, midName))
			if err != nil {
				return errors.Wrapf(err, "reading dir %s/%s/%s", s.blockroot(), topName, midName)
			}

			index := sort.Search(len(blockInfos), func(n int) bool {
				return blockInfos[n].Name() > startHex
			})
			for k := index; k < len(blockInfos); k++ {
				blockInfo := blockInfos[k]
				if blockInfo.IsDir() || strings.HasPrefix(blockInfo.Name(), ".") {
					continue
				}

				b, err := hex.DecodeString(blockInfo.Name())
				if err != nil {
					continue
				}
				c, err := cid.Cast(b)
				if err != nil {
					continue
				}

				if err := ctx.Err(); err != nil {
					return err
				}
				err = f(c)
				if err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func isHex(s string) bool {
	_, err := hex.DecodeString(s)
	return err == nil
}

func init() {
	store.Register("file", func(_ context.Context, conf map[string]interface{}) (txlog.Store, error) {
		root, err := store.String(conf, "root")
		if err != nil {
			return nil, err
		}
		return New(root), nil
	})
}
