// Package car reads and writes CARv1 containers:
// a header naming one or more root CIDs,
// followed by a sequence of (CID, bytes) sections.
//
// The header is a DAG-CBOR map {"roots": [...], "version": 1}.
// The header and each section are prefixed with their length as an unsigned varint,
// so the format is self-framing without an index.
//
// Writing happens into a buffer the caller has sized exactly in advance
// (using HeaderLength and BlockLength).
// Reading indexes the sections of an in-memory buffer without copying them.
package car

import (
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-varint"
	"github.com/pkg/errors"

	"github.com/bobg/txlog/dagcbor"
)

// Version is the container format version this package reads and writes.
const Version = 1

var (
	// ErrMalformed is the error for a buffer whose framing cannot be parsed.
	ErrMalformed = errors.New("malformed container")

	// ErrCapacity is the error for a write that does not fit in the Writer's buffer.
	ErrCapacity = errors.New("container buffer too small")

	// ErrNoRoots is the error for closing a Writer to which no root was added.
	ErrNoRoots = errors.New("container has no roots")

	// ErrNotFound is the error for a CID with no section in a Reader.
	ErrNotFound = errors.New("not found")
)

func encodeHeader(roots []cid.Cid) ([]byte, error) {
	links := make([]any, 0, len(roots))
	for _, r := range roots {
		links = append(links, dagcbor.LinkTag(r))
	}
	return dagcbor.Marshal(map[string]any{
		"roots":   links,
		"version": uint64(Version),
	})
}

// HeaderLength tells the framed size in bytes of a header declaring the given roots.
func HeaderLength(roots []cid.Cid) (int, error) {
	hdr, err := encodeHeader(roots)
	if err != nil {
		return 0, errors.Wrap(err, "encoding header")
	}
	return varint.UvarintSize(uint64(len(hdr))) + len(hdr), nil
}

// BlockLength tells the framed size in bytes of the section for the given CID and data.
func BlockLength(c cid.Cid, data []byte) int {
	n := c.ByteLen() + len(data)
	return varint.UvarintSize(uint64(n)) + n
}

// AppendSection appends the framed section for c and data to dst.
func AppendSection(dst []byte, c cid.Cid, data []byte) []byte {
	cb := c.Bytes()
	dst = append(dst, varint.ToUvarint(uint64(len(cb)+len(data)))...)
	dst = append(dst, cb...)
	return append(dst, data...)
}

func putSection(dst []byte, c cid.Cid, data []byte) int {
	cb := c.Bytes()
	n := varint.PutUvarint(dst, uint64(len(cb)+len(data)))
	n += copy(dst[n:], cb)
	n += copy(dst[n:], data)
	return n
}

// ReadSection parses the framed section at the start of buf.
// It returns the section's CID and data
// and the number of bytes of buf the section occupies.
// The data aliases buf.
func ReadSection(buf []byte) (cid.Cid, []byte, int, error) {
	size, n, err := varint.FromUvarint(buf)
	if err != nil {
		return cid.Undef, nil, 0, errors.Wrapf(ErrMalformed, "reading section length: %s", err)
	}
	if size > uint64(len(buf)-n) {
		return cid.Undef, nil, 0, errors.Wrapf(ErrMalformed, "section length %d exceeds remaining %d bytes", size, len(buf)-n)
	}
	sec := buf[n : n+int(size)]
	cn, c, err := cid.CidFromBytes(sec)
	if err != nil {
		return cid.Undef, nil, 0, errors.Wrapf(ErrMalformed, "reading section cid: %s", err)
	}
	return c, sec[cn:], n + int(size), nil
}
