package txlog

import (
	"context"

	"github.com/ipfs/go-cid"
	"github.com/pkg/errors"

	"github.com/bobg/txlog/car"
)

// Container is a loaded container.
// Its blocks are decoded on demand.
type Container struct {
	// Root is the container's declared root.
	Root cid.Cid

	r      *car.Reader
	verify bool
}

var _ Resolver = &Container{}

// LoadOption is the type of an option to Load.
type LoadOption func(*Container)

// Verify is a LoadOption that makes the Container check,
// on each block it decodes,
// that the block's bytes hash to its CID.
// Without it, a tampered container decodes without complaint.
func Verify() LoadOption {
	return func(c *Container) {
		c.verify = true
	}
}

// Load parses a container produced by Transaction.Commit.
// The container must declare exactly one root.
// No blocks are decoded until requested.
// Callers must not modify buf while the Container is in use.
func Load(buf []byte, opts ...LoadOption) (*Container, error) {
	r, err := car.NewReader(buf)
	if err != nil {
		return nil, errors.Wrap(err, "reading container")
	}
	roots := r.Roots()
	if len(roots) != 1 {
		return nil, errors.Wrapf(ErrMalformed, "container has %d roots, want 1", len(roots))
	}
	c := &Container{Root: roots[0], r: r}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GetBlock decodes the block with the given CID.
// It fails with ErrNotFound if the container has no such block.
func (c *Container) GetBlock(id cid.Cid) (*Block, error) {
	data, err := c.r.Get(id)
	if err != nil {
		return nil, err
	}
	b, err := Decode(id, data)
	if err != nil {
		return nil, err
	}
	if c.verify {
		if err := b.Verify(); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Get returns the decoded value of the block with the given CID.
// It fails with ErrNotFound if the container has no such block.
func (c *Container) Get(id cid.Cid) (Node, error) {
	b, err := c.GetBlock(id)
	if err != nil {
		return nil, err
	}
	return b.node, nil
}

// Resolve implements Resolver.
func (c *Container) Resolve(_ context.Context, id cid.Cid) (Node, error) {
	return c.Get(id)
}

// Has tells whether the container has a block with the given CID.
func (c *Container) Has(id cid.Cid) bool {
	return c.r.Has(id)
}

// Cids returns the CIDs of the container's blocks in the order they appear.
func (c *Container) Cids() []cid.Cid {
	return c.r.Cids()
}
