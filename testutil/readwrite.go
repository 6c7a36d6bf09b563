// Package testutil holds conformance tests shared by the block store implementations.
package testutil

import (
	"bytes"
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/bobg/txlog"
	"github.com/bobg/txlog/split"
)

// Data produces n bytes of reproducible pseudorandom test data.
func Data(n int) []byte {
	data := make([]byte, n)
	rand.New(rand.NewSource(int64(n))).Read(data)
	return data
}

// ReadWrite permits testing a Store implementation
// by split-writing some data to it,
// then reading it back out to make sure it's the same.
// It then exports the resulting tree as a container,
// imports it into the same store,
// and checks that nothing new was added.
func ReadWrite(ctx context.Context, t *testing.T, store txlog.Store, data []byte) {
	t1 := time.Now()
	ref, err := split.Write(ctx, txlog.NewStoreWriter(store), bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	t.Logf("wrote %d bytes in %s", len(data), time.Since(t1))

	buf := new(bytes.Buffer)
	t2 := time.Now()
	err = split.Read(ctx, txlog.NewStoreResolver(store), ref, buf)
	if err != nil {
		t.Fatal(err)
	}
	got := buf.Bytes()
	t.Logf("read %d bytes in %s", len(got), time.Since(t2))

	if len(got) != len(data) {
		t.Errorf("got length %d, want %d", len(got), len(data))
	} else {
		for i := 0; i < len(got); i++ {
			if got[i] != data[i] {
				t.Fatalf("mismatch at position %d (of %d)", i, len(got))
			}
		}
	}

	car, err := txlog.Export(ctx, store, ref)
	if err != nil {
		t.Fatal(err)
	}
	root, err := txlog.Import(ctx, store, car)
	if err != nil {
		t.Fatal(err)
	}
	if root != ref {
		t.Errorf("got imported root %s, want %s", root, ref)
	}
}
