package txlog

import (
	"context"

	"github.com/ipfs/go-cid"
	"github.com/pkg/errors"

	"github.com/bobg/txlog/car"
)

// Transaction accumulates blocks and serializes them as a container.
// The most recently written block is the container's root.
//
// A Transaction is not safe for concurrent use.
type Transaction struct {
	blocks []*Block
	last   *Block
}

var _ Writer = &Transaction{}

// NewTransaction produces a new, empty Transaction.
func NewTransaction() *Transaction {
	return &Transaction{}
}

// Write encodes n as a block,
// appends it to the transaction,
// and makes it the root.
// The resulting CID may be embedded as a Link in nodes written later.
//
// If Write fails, the transaction is unchanged.
func (t *Transaction) Write(ctx context.Context, n Node) (cid.Cid, error) {
	if err := ctx.Err(); err != nil {
		return cid.Undef, err
	}
	b, err := Encode(n)
	if err != nil {
		return cid.Undef, errors.Wrap(err, "encoding block")
	}
	if err := ctx.Err(); err != nil {
		return cid.Undef, err
	}
	t.blocks = append(t.blocks, b)
	t.last = b
	return b.cid, nil
}

// Commit serializes the transaction as a container
// whose single root is the last block written
// and whose sections are the written blocks in order.
// The same sequence of writes always produces the same bytes.
//
// Commit fails with ErrNoRoot if nothing has been written.
// It does not modify the transaction.
func (t *Transaction) Commit(ctx context.Context) ([]byte, error) {
	if t.last == nil {
		return nil, ErrNoRoot
	}
	return pack(ctx, t.last.cid, t.blocks)
}

// Root returns the CID of the last block written,
// and false if nothing has been written.
func (t *Transaction) Root() (cid.Cid, bool) {
	if t.last == nil {
		return cid.Undef, false
	}
	return t.last.cid, true
}

// Len tells how many blocks have been written.
func (t *Transaction) Len() int {
	return len(t.blocks)
}

// Blocks returns the blocks written so far, in order.
func (t *Transaction) Blocks() []*Block {
	return append([]*Block(nil), t.blocks...)
}

// Flush adds the transaction's blocks to a store.
func (t *Transaction) Flush(ctx context.Context, s Store) error {
	_, err := PutMulti(ctx, s, t.blocks)
	return err
}

// The output buffer is sized exactly before anything is written to it.
func pack(ctx context.Context, root cid.Cid, blocks []*Block) ([]byte, error) {
	roots := []cid.Cid{root}

	headerSize, err := car.HeaderLength(roots)
	if err != nil {
		return nil, errors.Wrap(err, "computing header length")
	}
	size := headerSize
	for _, b := range blocks {
		size += car.BlockLength(b.cid, b.data)
	}

	w := car.NewWriter(make([]byte, size), headerSize)
	w.AddRoot(root)
	for _, b := range blocks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := w.Write(b.cid, b.data); err != nil {
			return nil, errors.Wrapf(err, "writing block %s", b.cid)
		}
	}

	buf, err := w.Close()
	if err != nil {
		return nil, errors.Wrap(err, "closing container")
	}
	return buf, nil
}
