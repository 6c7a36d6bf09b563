package txlog

import (
	"bytes"

	"github.com/ipfs/go-cid"
	"github.com/pkg/errors"
)

// Block is an immutable unit of storage:
// the encoded bytes of a Node together with their CID.
type Block struct {
	cid  cid.Cid
	data []byte
	node Node
}

// Encode encodes n with the codec chosen by CodecFor
// and computes the resulting block's CID.
func Encode(n Node) (*Block, error) {
	if n == nil {
		return nil, errors.New("cannot encode nil node")
	}
	codec := CodecFor(n)
	data, err := codec.encode(n)
	if err != nil {
		return nil, errors.Wrapf(err, "encoding %s", codec)
	}
	c, err := Sum(data, codec)
	if err != nil {
		return nil, err
	}
	return &Block{cid: c, data: data, node: n}, nil
}

// Decode decodes data using the hash function and codec named in c.
// It fails with ErrUnsupportedHash or ErrUnsupportedCodec
// if c names ones this package does not know.
// It does not check that data hashes to c;
// for that, see Block.Verify.
func Decode(c cid.Cid, data []byte) (*Block, error) {
	pre := c.Prefix()
	if _, err := lookupHash(pre.MhType); err != nil {
		return nil, errors.Wrapf(err, "decoding %s", c)
	}
	codec, err := lookupCodec(pre.Codec)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s", c)
	}
	n, err := codec.decode(data)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s", c)
	}
	return &Block{cid: c, data: data, node: n}, nil
}

// Cid returns the block's CID.
func (b *Block) Cid() cid.Cid { return b.cid }

// Bytes returns the block's encoded bytes.
// Callers must not modify the result.
func (b *Block) Bytes() []byte { return b.data }

// Node returns the block's logical value.
func (b *Block) Node() Node { return b.node }

// Verify re-derives the block's CID from its bytes
// and reports ErrCIDMismatch if it differs.
func (b *Block) Verify() error {
	h, err := lookupHash(b.cid.Prefix().MhType)
	if err != nil {
		return err
	}
	mh, err := h(b.data)
	if err != nil {
		return errors.Wrap(err, "computing multihash")
	}
	if !bytes.Equal(mh, b.cid.Hash()) {
		return errors.Wrapf(ErrCIDMismatch, "block %s", b.cid)
	}
	return nil
}
