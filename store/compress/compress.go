// Package compress implements a block store that compresses and uncompresses blocks
// on their way into and out of a nested store.
package compress

import (
	"context"
	"math"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-varint"
	"github.com/pkg/errors"

	"github.com/bobg/txlog"
	"github.com/bobg/txlog/store"
)

var _ txlog.Store = &Store{}

// Store compresses blocks before handing them to a nested store.
// Blocks keep their original CIDs in the nested store.
// Each stored value is a Tag byte,
// the uvarint length of the uncompressed block,
// and the (possibly compressed) block bytes.
// Blocks that do not shrink are stored with TagNone.
// Any known tag can be read back regardless of the configured Compressor.
type Store struct {
	s txlog.Store
	c Compressor
}

// New produces a Store compressing with c into s.
func New(s txlog.Store, c Compressor) *Store {
	return &Store{s: s, c: c}
}

// Get gets and uncompresses the block with the given CID.
func (s *Store) Get(ctx context.Context, c cid.Cid) ([]byte, error) {
	stored, err := s.s.Get(ctx, c)
	if err != nil {
		return nil, err
	}
	data, err := unwrap(stored)
	return data, errors.Wrapf(err, "uncompressing block %s", c)
}

// maxBlockSize bounds the uncompressed size recorded in a stored value.
const maxBlockSize = math.MaxInt32

func unwrap(stored []byte) ([]byte, error) {
	if len(stored) == 0 {
		return nil, errors.New("empty stored value")
	}
	tag := Tag(stored[0])
	size, n, err := varint.FromUvarint(stored[1:])
	if err != nil {
		return nil, errors.Wrap(err, "reading length")
	}
	payload := stored[1+n:]

	if tag == TagNone {
		if uint64(len(payload)) != size {
			return nil, errors.Errorf("got %d bytes, want %d", len(payload), size)
		}
		return payload, nil
	}
	comp, ok := compressors[tag]
	if !ok {
		return nil, errors.Errorf("unknown compression tag %d", tag)
	}
	if size > maxBlockSize || size > comp.MaxUncompressed(len(payload)) {
		return nil, errors.Errorf("implausible %s size %d for %d compressed bytes", tag, size, len(payload))
	}
	return comp.Uncompress(payload, int(size))
}

// Put compresses a block and adds it to the nested store if it wasn't already present.
func (s *Store) Put(ctx context.Context, c cid.Cid, data []byte) (bool, error) {
	stored, err := s.wrap(data)
	if err != nil {
		return false, errors.Wrapf(err, "compressing block %s", c)
	}
	added, err := s.s.Put(ctx, c, stored)
	return added, errors.Wrap(err, "storing compressed block")
}

func (s *Store) wrap(data []byte) ([]byte, error) {
	tag := s.c.Tag()
	payload, err := s.c.Compress(data)
	if errors.Is(err, errIncompressible) {
		tag, payload = TagNone, data
	} else if err != nil {
		return nil, err
	}

	size := uint64(len(data))
	out := make([]byte, 1+varint.UvarintSize(size), 1+varint.UvarintSize(size)+len(payload))
	out[0] = byte(tag)
	varint.PutUvarint(out[1:], size)
	return append(out, payload...), nil
}

// ListRefs produces all CIDs in the nested store, in the order defined by txlog.Less.
func (s *Store) ListRefs(ctx context.Context, start cid.Cid, f func(cid.Cid) error) error {
	return s.s.ListRefs(ctx, start, f)
}

func init() {
	store.Register("compress", func(ctx context.Context, conf map[string]interface{}) (txlog.Store, error) {
		nestedStore, err := store.Nested(ctx, conf, "nested")
		if err != nil {
			return nil, errors.Wrap(err, "creating nested store")
		}
		name, err := store.String(conf, "compressor")
		if err != nil {
			return nil, err
		}
		comp, err := ByName(name)
		if err != nil {
			return nil, err
		}
		return New(nestedStore, comp), nil
	})
}
