package txlog_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	"github.com/pkg/errors"

	"github.com/bobg/txlog"
	"github.com/bobg/txlog/car"
)

func TestDecodeUnsupported(t *testing.T) {
	data := []byte("payload")

	sha512, err := multihash.Sum(data, multihash.SHA2_512, -1)
	if err != nil {
		t.Fatal(err)
	}
	sha256, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name string
		c    cid.Cid
		want error
	}{
		{"hash", cid.NewCidV1(cid.Raw, sha512), txlog.ErrUnsupportedHash},
		{"codec", cid.NewCidV1(cid.DagProtobuf, sha256), txlog.ErrUnsupportedCodec},
		{"json codec", cid.NewCidV1(cid.DagJSON, sha256), txlog.ErrUnsupportedCodec},
		{"both", cid.NewCidV1(cid.DagJSON, sha512), txlog.ErrUnsupportedHash},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := txlog.Decode(c.c, data); !errors.Is(err, c.want) {
				t.Errorf("got %v, want %v", err, c.want)
			}
		})
	}
}

func TestEncodeErrors(t *testing.T) {
	cases := map[string]txlog.Node{
		"nil":           nil,
		"undefined cid": txlog.Link{},
		"nil in map":    txlog.Map{"x": nil},
	}
	for name, n := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := txlog.Encode(n); err == nil {
				t.Error("got no error")
			}
		})
	}
}

func TestVerify(t *testing.T) {
	b, err := txlog.Encode(txlog.Map{"a": txlog.Int(1)})
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Verify(); err != nil {
		t.Fatal(err)
	}

	other, err := txlog.Encode(txlog.Map{"a": txlog.Int(2)})
	if err != nil {
		t.Fatal(err)
	}
	forged, err := txlog.Decode(b.Cid(), other.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if err := forged.Verify(); !errors.Is(err, txlog.ErrCIDMismatch) {
		t.Errorf("got %v, want ErrCIDMismatch", err)
	}
}

func TestLoadVerify(t *testing.T) {
	ctx := context.Background()
	tx := txlog.NewTransaction()
	id, err := tx.Write(ctx, txlog.Bytes("original content"))
	if err != nil {
		t.Fatal(err)
	}
	buf, err := tx.Commit(ctx)
	if err != nil {
		t.Fatal(err)
	}

	i := bytes.Index(buf, []byte("original"))
	if i < 0 {
		t.Fatal("block content not found in container")
	}
	copy(buf[i:], "tampered")

	c, err := txlog.Load(buf)
	if err != nil {
		t.Fatal(err)
	}
	got, err := c.Get(id)
	if err != nil {
		t.Fatalf("unverified load: %s", err)
	}
	if !bytes.Equal(got.(txlog.Bytes), []byte("tampered content")) {
		t.Errorf("got %q", got)
	}

	c, err = txlog.Load(buf, txlog.Verify())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get(id); !errors.Is(err, txlog.ErrCIDMismatch) {
		t.Errorf("got %v, want ErrCIDMismatch", err)
	}
}

func TestLoadRootCount(t *testing.T) {
	a, err := txlog.Encode(txlog.String("a"))
	if err != nil {
		t.Fatal(err)
	}
	b, err := txlog.Encode(txlog.String("b"))
	if err != nil {
		t.Fatal(err)
	}
	roots := []cid.Cid{a.Cid(), b.Cid()}

	hsize, err := car.HeaderLength(roots)
	if err != nil {
		t.Fatal(err)
	}
	size := hsize + car.BlockLength(a.Cid(), a.Bytes()) + car.BlockLength(b.Cid(), b.Bytes())
	w := car.NewWriter(make([]byte, size), hsize)
	for _, r := range roots {
		w.AddRoot(r)
	}
	for _, blk := range []*txlog.Block{a, b} {
		if err := w.Write(blk.Cid(), blk.Bytes()); err != nil {
			t.Fatal(err)
		}
	}
	buf, err := w.Close()
	if err != nil {
		t.Fatal(err)
	}

	if _, err := txlog.Load(buf); !errors.Is(err, txlog.ErrMalformed) {
		t.Errorf("got %v, want ErrMalformed", err)
	}
}

func TestLoadMalformed(t *testing.T) {
	ctx := context.Background()
	tx := txlog.NewTransaction()
	if _, err := tx.Write(ctx, txlog.String("x")); err != nil {
		t.Fatal(err)
	}
	buf, err := tx.Commit(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range []int{0, 1, len(buf) / 2, len(buf) - 1} {
		if _, err := txlog.Load(buf[:n]); !errors.Is(err, txlog.ErrMalformed) {
			t.Errorf("truncated to %d bytes: got %v, want ErrMalformed", n, err)
		}
	}
}
