// Package txlog is a content-addressed transaction log.
//
// A Transaction accumulates immutable blocks.
// Each block is the encoding of a Node:
// a Bytes node is stored raw,
// and anything else
// (maps, lists, strings, numbers, booleans, null, links)
// is encoded as DAG-CBOR.
// A block is identified by its CID,
// which is derived from the block's bytes:
// the sha2-256 hash of the bytes plus a tag naming the codec.
// Identical content always yields an identical CID.
//
// Writing a node returns its CID,
// which can be embedded as a Link in nodes written later.
// That is how blocks form a Merkle graph.
//
// Committing a transaction serializes all its blocks into a single CARv1 container
// whose root is the last block written.
// Loading a container yields that root and a way to decode blocks on demand.
//
//	tx := txlog.NewTransaction()
//	sub, _ := tx.Write(ctx, txlog.Map{"some": txlog.String("data")})
//	tx.Write(ctx, txlog.Map{"sub": txlog.Link{Cid: sub}})
//	buf, _ := tx.Commit(ctx)
//
//	c, _ := txlog.Load(buf)
//	root, _ := c.Get(c.Root) // {"sub": <link to sub>}
//
// Blocks can also be kept in a Store
// (see the store subpackages for implementations),
// and moved between stores and containers with Import and Export.
// Large byte streams can be split into trees of blocks with the split subpackage.
package txlog
