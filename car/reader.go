package car

import (
	"github.com/fxamacker/cbor/v2"
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-varint"
	"github.com/pkg/errors"

	"github.com/bobg/txlog/dagcbor"
)

// Reader is a parsed container.
// Section data is not copied:
// callers must not modify the buffer given to NewReader
// for as long as the Reader is in use.
type Reader struct {
	version uint64
	roots   []cid.Cid
	cids    []cid.Cid
	index   map[cid.Cid][]byte
}

// NewReader parses the header of buf and indexes its sections.
// Section payloads are not decoded.
// If a CID appears in more than one section,
// the first one wins.
func NewReader(buf []byte) (*Reader, error) {
	hlen, n, err := varint.FromUvarint(buf)
	if err != nil {
		return nil, errors.Wrapf(ErrMalformed, "reading header length: %s", err)
	}
	if hlen == 0 || hlen > uint64(len(buf)-n) {
		return nil, errors.Wrapf(ErrMalformed, "header length %d out of range (%d bytes remain)", hlen, len(buf)-n)
	}
	hv, err := dagcbor.Unmarshal(buf[n : n+int(hlen)])
	if err != nil {
		return nil, errors.Wrapf(ErrMalformed, "decoding header: %s", err)
	}
	version, roots, err := parseHeader(hv)
	if err != nil {
		return nil, err
	}

	r := &Reader{
		version: version,
		roots:   roots,
		index:   make(map[cid.Cid][]byte),
	}

	for off := n + int(hlen); off < len(buf); {
		c, data, sn, err := ReadSection(buf[off:])
		if err != nil {
			return nil, errors.Wrapf(err, "section at offset %d", off)
		}
		if _, ok := r.index[c]; !ok {
			r.index[c] = data
			r.cids = append(r.cids, c)
		}
		off += sn
	}

	return r, nil
}

func parseHeader(hv any) (uint64, []cid.Cid, error) {
	m, ok := hv.(map[string]any)
	if !ok {
		return 0, nil, errors.Wrapf(ErrMalformed, "header is %T, not a map", hv)
	}
	version, ok := m["version"].(uint64)
	if !ok {
		return 0, nil, errors.Wrap(ErrMalformed, "header lacks a version")
	}
	if version != Version {
		return 0, nil, errors.Wrapf(ErrMalformed, "unsupported version %d", version)
	}
	items, ok := m["roots"].([]any)
	if !ok {
		return 0, nil, errors.Wrap(ErrMalformed, "header lacks a roots list")
	}
	if len(items) == 0 {
		return 0, nil, errors.Wrap(ErrMalformed, ErrNoRoots.Error())
	}
	roots := make([]cid.Cid, 0, len(items))
	for i, item := range items {
		tag, ok := item.(cbor.Tag)
		if !ok {
			return 0, nil, errors.Wrapf(ErrMalformed, "root %d is %T, not a link", i, item)
		}
		c, err := dagcbor.LinkFromTag(tag)
		if err != nil {
			return 0, nil, errors.Wrapf(ErrMalformed, "root %d: %s", i, err)
		}
		roots = append(roots, c)
	}
	return version, roots, nil
}

// Version tells the container's format version.
func (r *Reader) Version() uint64 { return r.version }

// Roots returns the root CIDs declared in the header.
func (r *Reader) Roots() []cid.Cid {
	return append([]cid.Cid(nil), r.roots...)
}

// Cids returns the CIDs of the container's sections in the order they appear.
func (r *Reader) Cids() []cid.Cid {
	return append([]cid.Cid(nil), r.cids...)
}

// Has tells whether the container has a section for c.
func (r *Reader) Has(c cid.Cid) bool {
	_, ok := r.index[c]
	return ok
}

// Get returns the data in the section for c.
func (r *Reader) Get(c cid.Cid) ([]byte, error) {
	data, ok := r.index[c]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "cid %s", c)
	}
	return data, nil
}
