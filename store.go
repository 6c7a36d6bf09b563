package txlog

import (
	"context"

	"github.com/ipfs/go-cid"
	"github.com/pkg/errors"
)

// Getter is a read-only Store (qv).
type Getter interface {
	// Get gets a block's bytes by its CID.
	// It returns ErrNotFound if the block is absent.
	Get(context.Context, cid.Cid) ([]byte, error)

	// ListRefs calls a function for each CID in the store in the order defined by Less,
	// beginning with the first CID _after_ the specified one.
	// Use cid.Undef to start at the beginning.
	//
	// The calls reflect at least the set of CIDs
	// known at the moment ListRefs was called.
	// It is unspecified whether later changes,
	// that happen concurrently with ListRefs,
	// are reflected.
	//
	// If the callback function returns an error,
	// ListRefs exits with that error.
	ListRefs(context.Context, cid.Cid, func(cid.Cid) error) error
}

// Store is a block store.
// It holds encoded blocks,
// each retrievable by its CID.
//
// A Store does not check that the bytes it is given hash to the CID it is given.
// GetBlock does that check on the way out.
type Store interface {
	Getter

	// Put adds a block to the store if it was not already present.
	// It returns true iff the block had to be added.
	Put(ctx context.Context, c cid.Cid, data []byte) (added bool, err error)
}

// Writer is something that turns nodes into blocks.
// Transaction is a Writer;
// so is the result of NewStoreWriter.
type Writer interface {
	Write(context.Context, Node) (cid.Cid, error)
}

// Resolver is something that produces the node for a CID.
// Container is a Resolver;
// so is the result of NewStoreResolver.
type Resolver interface {
	Resolve(context.Context, cid.Cid) (Node, error)
}

// PutNode encodes n and adds the resulting block to s.
func PutNode(ctx context.Context, s Store, n Node) (cid.Cid, bool, error) {
	b, err := Encode(n)
	if err != nil {
		return cid.Undef, false, errors.Wrap(err, "encoding block")
	}
	added, err := s.Put(ctx, b.cid, b.data)
	return b.cid, added, err
}

// GetBlock gets a block from g,
// decodes it,
// and verifies that its bytes match its CID.
func GetBlock(ctx context.Context, g Getter, c cid.Cid) (*Block, error) {
	data, err := g.Get(ctx, c)
	if err != nil {
		return nil, err
	}
	b, err := Decode(c, data)
	if err != nil {
		return nil, err
	}
	if err := b.Verify(); err != nil {
		return nil, err
	}
	return b, nil
}

// GetNode is like GetBlock but returns only the decoded node.
func GetNode(ctx context.Context, g Getter, c cid.Cid) (Node, error) {
	b, err := GetBlock(ctx, g, c)
	if err != nil {
		return nil, err
	}
	return b.node, nil
}

type storeWriter struct {
	s Store
}

// NewStoreWriter produces a Writer that adds blocks directly to s.
func NewStoreWriter(s Store) Writer {
	return storeWriter{s: s}
}

func (w storeWriter) Write(ctx context.Context, n Node) (cid.Cid, error) {
	c, _, err := PutNode(ctx, w.s, n)
	return c, err
}

type storeResolver struct {
	g Getter
}

// NewStoreResolver produces a Resolver that reads blocks from g.
func NewStoreResolver(g Getter) Resolver {
	return storeResolver{g: g}
}

func (r storeResolver) Resolve(ctx context.Context, c cid.Cid) (Node, error) {
	return GetNode(ctx, r.g, c)
}
