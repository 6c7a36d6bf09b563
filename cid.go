package txlog

import (
	"github.com/ipfs/go-cid"
	"github.com/pkg/errors"
)

// Sum computes the CID of data encoded with the given codec.
// The result is a CIDv1 with a sha2-256 multihash.
// Identical inputs always produce identical CIDs.
func Sum(data []byte, codec Codec) (cid.Cid, error) {
	mh, err := sha256Sum(data)
	if err != nil {
		return cid.Undef, errors.Wrap(err, "computing multihash")
	}
	return cid.NewCidV1(uint64(codec), mh), nil
}

// Less tells whether a sorts before b,
// comparing their binary forms bytewise.
// This is the order in which stores list CIDs.
func Less(a, b cid.Cid) bool {
	return a.KeyString() < b.KeyString()
}
