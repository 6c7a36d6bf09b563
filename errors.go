package txlog

import (
	"github.com/pkg/errors"

	"github.com/bobg/txlog/car"
)

var (
	// ErrUnsupportedHash is the error for a CID whose multihash function is not sha2-256.
	ErrUnsupportedHash = errors.New("unsupported hash function")

	// ErrUnsupportedCodec is the error for a CID whose codec is neither raw nor dag-cbor.
	ErrUnsupportedCodec = errors.New("unsupported codec")

	// ErrNoRoot is the error for committing a Transaction to which nothing was written.
	ErrNoRoot = errors.New("no root")

	// ErrNotFound is the error for a CID that is absent from a container or a store.
	ErrNotFound = car.ErrNotFound

	// ErrMalformed is the error for a container whose framing cannot be parsed.
	ErrMalformed = car.ErrMalformed

	// ErrCIDMismatch is the error for a block whose bytes do not hash to its CID.
	ErrCIDMismatch = errors.New("cid mismatch")
)
