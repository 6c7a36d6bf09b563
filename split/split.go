// Package split implements reading and writing of hashsplit trees of blocks.
// Input is divided into raw chunk blocks,
// which are linked together by a tree of dag-cbor nodes.
// See github.com/bobg/hashsplit for more information.
package split

import (
	"bytes"
	"context"
	"io"

	"github.com/bobg/hashsplit"
	"github.com/ipfs/go-cid"
	"github.com/pkg/errors"

	"github.com/bobg/txlog"
)

// Writer is an io.WriteCloser that splits its input with a hashsplit.Splitter,
// writing the chunks to a txlog.Writer as separate raw blocks.
// It additionally assembles those chunks into a tree,
// whose nodes are also written to the txlog.Writer.
// The CID of the tree root is available as Writer.Root after a call to Close.
type Writer struct {
	Ctx    context.Context
	Root   cid.Cid // populated by Close
	spl    *hashsplit.Splitter
	tb     *treeBuilder
	fanout uint
}

// NewWriter produces a new Writer writing to w,
// which may be a *txlog.Transaction or the result of txlog.NewStoreWriter.
// The given context object is stored in the Writer and used in subsequent calls to Write and Close.
// This is an antipattern but acceptable when an object must adhere to a context-free stdlib interface
// (https://github.com/golang/go/wiki/CodeReviewComments#contexts).
// Callers may replace the context object during the lifetime of the Writer as needed.
func NewWriter(ctx context.Context, w txlog.Writer, opts ...Option) *Writer {
	tb := &treeBuilder{w: w}
	sw := &Writer{
		Ctx:    ctx,
		tb:     tb,
		fanout: 4,
	}
	spl := hashsplit.NewSplitter(func(chunk []byte, level uint) error {
		c, err := w.Write(sw.Ctx, txlog.Bytes(bytes.Clone(chunk)))
		if err != nil {
			return errors.Wrap(err, "writing split chunk")
		}
		return tb.add(sw.Ctx, c, len(chunk), level/sw.fanout)
	})
	spl.MinSize = 1024
	spl.SplitBits = 14
	sw.spl = spl
	for _, opt := range opts {
		opt(sw)
	}
	return sw
}

// Write implements io.Writer.
func (w *Writer) Write(inp []byte) (int, error) {
	return w.spl.Write(inp)
}

// Close implements io.Closer.
// Empty input leaves Root as cid.Undef.
func (w *Writer) Close() error {
	if w.tb == nil {
		return nil
	}
	if err := w.spl.Close(); err != nil {
		return err
	}
	root, err := w.tb.root(w.Ctx)
	if err != nil {
		return err
	}
	w.Root = root
	w.tb = nil
	return nil
}

// Option is the type of an option that can be passed to NewWriter.
type Option func(*Writer)

// Bits sets the number of trailing zero bits in the rolling checksum that mark a chunk boundary.
func Bits(n uint) Option {
	return func(w *Writer) {
		w.spl.SplitBits = n
	}
}

// MinSize sets the minimum chunk size.
func MinSize(n int) Option {
	return func(w *Writer) {
		w.spl.MinSize = n
	}
}

// Fanout sets the divisor applied to chunk levels when building the tree.
// Larger values produce wider, shallower trees.
func Fanout(n uint) Option {
	return func(w *Writer) {
		if n > 0 {
			w.fanout = n
		}
	}
}

// Write splits the contents of r into a tree of blocks written to w
// and returns the CID of the tree's root.
func Write(ctx context.Context, w txlog.Writer, r io.Reader, opts ...Option) (cid.Cid, error) {
	sw := NewWriter(ctx, w, opts...)
	if _, err := io.Copy(sw, r); err != nil {
		return cid.Undef, errors.Wrap(err, "splitting input")
	}
	if err := sw.Close(); err != nil {
		return cid.Undef, err
	}
	return sw.Root, nil
}

// Read resolves the tree of blocks rooted at root,
// reassembling the content written with Write
// and writing it to w.
// A root that is itself a Bytes node is written out directly.
func Read(ctx context.Context, r txlog.Resolver, root cid.Cid, w io.Writer) error {
	n, err := r.Resolve(ctx, root)
	if err != nil {
		return errors.Wrapf(err, "resolving %s", root)
	}
	return readNode(ctx, r, n, w)
}

func readNode(ctx context.Context, r txlog.Resolver, n txlog.Node, w io.Writer) error {
	switch n := n.(type) {
	case txlog.Bytes:
		_, err := w.Write(n)
		return err

	case txlog.Map:
		if children, ok := n[keyLeaves].(txlog.List); ok {
			return readChildren(ctx, r, children, w)
		}
		if children, ok := n[keyNodes].(txlog.List); ok {
			return readChildren(ctx, r, children, w)
		}
	}
	return errors.Errorf("%s node is not part of a split tree", n.Kind())
}

func readChildren(ctx context.Context, r txlog.Resolver, children txlog.List, w io.Writer) error {
	for i, child := range children {
		link, ok := child.(txlog.Link)
		if !ok {
			return errors.Errorf("child %d is a %s, not a link", i, child.Kind())
		}
		if err := Read(ctx, r, link.Cid, w); err != nil {
			return err
		}
	}
	return nil
}

// Size reports the total content size recorded in the tree node at root.
func Size(ctx context.Context, r txlog.Resolver, root cid.Cid) (int64, error) {
	n, err := r.Resolve(ctx, root)
	if err != nil {
		return 0, errors.Wrapf(err, "resolving %s", root)
	}
	switch n := n.(type) {
	case txlog.Bytes:
		return int64(len(n)), nil
	case txlog.Map:
		if size, ok := n[keySize].(txlog.Int); ok {
			return int64(size), nil
		}
	}
	return 0, errors.Errorf("%s node is not part of a split tree", n.Kind())
}
