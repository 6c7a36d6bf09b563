package txlog

import (
	"bytes"
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	"github.com/pkg/errors"
)

// Codec identifies how a block's bytes encode its Node.
// The values are multicodec codes.
type Codec uint64

const (
	// Raw blocks are Bytes nodes, stored verbatim.
	Raw Codec = cid.Raw

	// DagCBOR blocks are any other node, encoded as DAG-CBOR.
	DagCBOR Codec = cid.DagCBOR
)

// HashSHA2_256 is the multihash code of the only supported hash function.
const HashSHA2_256 = multihash.SHA2_256

func (c Codec) String() string {
	switch c {
	case Raw:
		return "raw"
	case DagCBOR:
		return "dag-cbor"
	}
	return fmt.Sprintf("codec(0x%x)", uint64(c))
}

// CodecFor tells which codec encodes n.
// Bytes nodes use Raw; all others use DagCBOR.
func CodecFor(n Node) Codec {
	if _, ok := n.(Bytes); ok {
		return Raw
	}
	return DagCBOR
}

func (c Codec) encode(n Node) ([]byte, error) {
	switch c {
	case Raw:
		b, ok := n.(Bytes)
		if !ok {
			return nil, errors.Errorf("raw codec cannot encode %s", n.Kind())
		}
		return []byte(b), nil

	case DagCBOR:
		return encodeCBOR(n)
	}
	return nil, errors.Wrapf(ErrUnsupportedCodec, "code 0x%x", uint64(c))
}

func (c Codec) decode(data []byte) (Node, error) {
	switch c {
	case Raw:
		return Bytes(bytes.Clone(data)), nil

	case DagCBOR:
		return decodeCBOR(data)
	}
	return nil, errors.Wrapf(ErrUnsupportedCodec, "code 0x%x", uint64(c))
}

func lookupCodec(code uint64) (Codec, error) {
	switch c := Codec(code); c {
	case Raw, DagCBOR:
		return c, nil
	}
	return 0, errors.Wrapf(ErrUnsupportedCodec, "code 0x%x", code)
}

type hasher func([]byte) (multihash.Multihash, error)

func sha256Sum(data []byte) (multihash.Multihash, error) {
	return multihash.Sum(data, HashSHA2_256, -1)
}

func lookupHash(code uint64) (hasher, error) {
	if code == HashSHA2_256 {
		return sha256Sum, nil
	}
	return nil, errors.Wrapf(ErrUnsupportedHash, "code 0x%x", code)
}
