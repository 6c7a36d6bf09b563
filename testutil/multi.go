package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/pkg/errors"

	"github.com/bobg/txlog"
)

// Multi exercises txlog.PutMulti and txlog.GetMulti against a store,
// including a lookup of a block that is not present.
func Multi(ctx context.Context, t *testing.T, store txlog.Store) {
	var blocks []*txlog.Block
	for i := 0; i < 20; i++ {
		b, err := txlog.Encode(txlog.String(fmt.Sprintf("block %d", i)))
		if err != nil {
			t.Fatal(err)
		}
		blocks = append(blocks, b)
	}

	added, err := txlog.PutMulti(ctx, store, blocks)
	if err != nil {
		t.Fatal(err)
	}
	for _, b := range blocks {
		if !added[b.Cid()] {
			t.Errorf("block %s not reported as added", b.Cid())
		}
	}

	added, err = txlog.PutMulti(ctx, store, blocks[:5])
	if err != nil {
		t.Fatal(err)
	}
	for c, a := range added {
		if a {
			t.Errorf("block %s reported as added a second time", c)
		}
	}

	missing, err := txlog.Sum([]byte("missing"), txlog.Raw)
	if err != nil {
		t.Fatal(err)
	}
	cids := []cid.Cid{missing}
	for _, b := range blocks {
		cids = append(cids, b.Cid())
	}

	got, err := txlog.GetMulti(ctx, store, cids)
	var merr txlog.MultiErr
	if !errors.As(err, &merr) {
		t.Fatalf("got error %v, want a MultiErr", err)
	}
	if len(merr) != 1 || !errors.Is(merr[missing], txlog.ErrNotFound) {
		t.Errorf("got %v, want only %s not found", merr, missing)
	}
	for _, b := range blocks {
		data, ok := got[b.Cid()]
		if !ok {
			t.Errorf("block %s missing from result", b.Cid())
			continue
		}
		if string(data) != string(b.Bytes()) {
			t.Errorf("block %s: got %x, want %x", b.Cid(), data, b.Bytes())
		}
	}

	if _, err := store.Get(ctx, missing); !errors.Is(err, txlog.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}
