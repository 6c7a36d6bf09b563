package split

import (
	"context"

	"github.com/ipfs/go-cid"
	"github.com/pkg/errors"

	"github.com/bobg/txlog"
)

// Tree nodes are dag-cbor maps.
// Leaf-level nodes are {"size": N, "leaves": [chunk links]}.
// Interior nodes are {"size": N, "nodes": [node links]}.
const (
	keySize   = "size"
	keyLeaves = "leaves"
	keyNodes  = "nodes"
)

type pending struct {
	size  uint64
	links txlog.List
}

// treeBuilder assembles chunk links into a tree,
// writing each finished node through a txlog.Writer.
// Level 0 holds chunk links.
// A chunk at level L closes the open nodes at levels 0 through L-1.
type treeBuilder struct {
	w      txlog.Writer
	levels []*pending
}

func (tb *treeBuilder) level(i int) *pending {
	for len(tb.levels) <= i {
		tb.levels = append(tb.levels, &pending{})
	}
	return tb.levels[i]
}

func (tb *treeBuilder) add(ctx context.Context, c cid.Cid, size int, level uint) error {
	p := tb.level(0)
	p.links = append(p.links, txlog.Link{Cid: c})
	p.size += uint64(size)

	for i := 0; i < int(level); i++ {
		if err := tb.close(ctx, i); err != nil {
			return err
		}
	}
	return nil
}

// close writes the node open at level i
// and adds a link to it at level i+1.
func (tb *treeBuilder) close(ctx context.Context, i int) error {
	p := tb.level(i)
	if len(p.links) == 0 {
		return nil
	}
	c, err := tb.write(ctx, i, p)
	if err != nil {
		return err
	}
	parent := tb.level(i + 1)
	parent.links = append(parent.links, txlog.Link{Cid: c})
	parent.size += p.size
	tb.levels[i] = &pending{}
	return nil
}

func (tb *treeBuilder) write(ctx context.Context, i int, p *pending) (cid.Cid, error) {
	key := keyNodes
	if i == 0 {
		key = keyLeaves
	}
	n := txlog.Map{
		keySize: txlog.Int(p.size),
		key:     p.links,
	}
	c, err := tb.w.Write(ctx, n)
	return c, errors.Wrapf(err, "writing tree node at level %d", i)
}

// root closes every open node and returns the CID of the top one.
// An interior node with a single child is elided.
// The result is cid.Undef if nothing was added.
func (tb *treeBuilder) root(ctx context.Context) (cid.Cid, error) {
	if len(tb.levels) == 0 {
		return cid.Undef, nil
	}

	top := len(tb.levels) - 1
	for i := 0; i < top; i++ {
		if err := tb.close(ctx, i); err != nil {
			return cid.Undef, err
		}
	}
	if top > 0 && len(tb.levels[top].links) == 1 {
		link := tb.levels[top].links[0].(txlog.Link)
		return link.Cid, nil
	}
	return tb.write(ctx, top, tb.levels[top])
}
