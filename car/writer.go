package car

import (
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-varint"
	"github.com/pkg/errors"
)

// Writer writes a container into a pre-sized buffer.
// Space for the header is reserved at the start of the buffer
// and filled in by Close,
// once all roots are known.
//
// Typical usage:
//
//	hsize, _ := car.HeaderLength(roots)
//	size := hsize
//	for _, b := range blocks {
//	  size += car.BlockLength(b.cid, b.data)
//	}
//	w := car.NewWriter(make([]byte, size), hsize)
//	w.AddRoot(root)
//	for _, b := range blocks {
//	  w.Write(b.cid, b.data)
//	}
//	buf, err := w.Close()
type Writer struct {
	buf        []byte
	headerSize int
	off        int
	roots      []cid.Cid
}

// NewWriter produces a Writer over buf,
// reserving its first headerSize bytes for the header.
// The Writer never grows buf.
func NewWriter(buf []byte, headerSize int) *Writer {
	return &Writer{buf: buf, headerSize: headerSize, off: headerSize}
}

// AddRoot adds a root CID to the header.
func (w *Writer) AddRoot(c cid.Cid) {
	w.roots = append(w.roots, c)
}

// Write appends the section for c and data.
// It fails with ErrCapacity if the section does not fit in the remaining space.
func (w *Writer) Write(c cid.Cid, data []byte) error {
	n := BlockLength(c, data)
	if w.off+n > len(w.buf) {
		return errors.Wrapf(ErrCapacity, "section for %s needs %d bytes, %d remain", c, n, len(w.buf)-w.off)
	}
	w.off += putSection(w.buf[w.off:], c, data)
	return nil
}

// Close writes the header into the reserved space and returns the written portion of the buffer.
// It fails if no root was added,
// or if the header does not exactly fill the reserved space.
func (w *Writer) Close() ([]byte, error) {
	if len(w.roots) == 0 {
		return nil, ErrNoRoots
	}
	hdr, err := encodeHeader(w.roots)
	if err != nil {
		return nil, errors.Wrap(err, "encoding header")
	}
	size := varint.UvarintSize(uint64(len(hdr))) + len(hdr)
	if size != w.headerSize {
		return nil, errors.Errorf("header needs %d bytes but %d were reserved", size, w.headerSize)
	}
	if size > len(w.buf) {
		return nil, errors.Wrapf(ErrCapacity, "header needs %d bytes, buffer has %d", size, len(w.buf))
	}
	n := varint.PutUvarint(w.buf, uint64(len(hdr)))
	copy(w.buf[n:], hdr)
	return w.buf[:w.off], nil
}

// Len tells how many bytes of the buffer are in use, including the reserved header.
func (w *Writer) Len() int {
	return w.off
}
