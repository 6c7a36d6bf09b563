package txlog

import (
	"context"

	"github.com/ipfs/go-cid"
	"github.com/pkg/errors"
)

// Export packs into a container the block at root
// and every block reachable from it through links,
// reading them from g.
// Blocks appear in depth-first preorder, each once, starting with the root.
func Export(ctx context.Context, g Getter, root cid.Cid) ([]byte, error) {
	var (
		blocks []*Block
		seen   = make(map[cid.Cid]bool)
	)

	var walk func(cid.Cid) error
	walk = func(c cid.Cid) error {
		if seen[c] {
			return nil
		}
		seen[c] = true

		b, err := GetBlock(ctx, g, c)
		if err != nil {
			return errors.Wrapf(err, "getting block %s", c)
		}
		blocks = append(blocks, b)

		for _, link := range Links(b.node) {
			if err := walk(link); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(root); err != nil {
		return nil, err
	}
	return pack(ctx, root, blocks)
}

// Import adds every block in a container to s,
// verifying each one,
// and returns the container's root.
func Import(ctx context.Context, s Store, buf []byte) (cid.Cid, error) {
	c, err := Load(buf, Verify())
	if err != nil {
		return cid.Undef, err
	}

	var blocks []*Block
	for _, id := range c.Cids() {
		b, err := c.GetBlock(id)
		if err != nil {
			return cid.Undef, errors.Wrapf(err, "reading block %s", id)
		}
		blocks = append(blocks, b)
	}

	if _, err := PutMulti(ctx, s, blocks); err != nil {
		return cid.Undef, errors.Wrap(err, "storing blocks")
	}
	return c.Root, nil
}
