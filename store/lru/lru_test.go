package lru

import (
	"context"
	"testing"

	"github.com/ipfs/go-cid"

	"github.com/bobg/txlog"
	"github.com/bobg/txlog/store"
	"github.com/bobg/txlog/store/mem"
	"github.com/bobg/txlog/testutil"
)

func TestStore(t *testing.T) {
	s, err := New(mem.New(), 1000)
	if err != nil {
		t.Fatal(err)
	}
	testutil.ReadWrite(context.Background(), t, s, testutil.Data(1<<20))
}

func TestAllRefs(t *testing.T) {
	testutil.AllRefs(context.Background(), t, func() txlog.Store {
		s, err := New(mem.New(), 10)
		if err != nil {
			t.Fatal(err)
		}
		return s
	})
}

func TestEviction(t *testing.T) {
	ctx := context.Background()

	s, err := New(mem.New(), 2)
	if err != nil {
		t.Fatal(err)
	}

	var cids []cid.Cid
	for _, word := range []string{"a", "b", "c"} {
		c, _, err := txlog.PutNode(ctx, s, txlog.String(word))
		if err != nil {
			t.Fatal(err)
		}
		cids = append(cids, c)
	}

	if s.Cached(cids[0]) {
		t.Error("oldest block still cached")
	}
	if !s.Cached(cids[2]) {
		t.Error("newest block not cached")
	}

	// Evicted blocks are still available from the nested store.
	n, err := txlog.GetNode(ctx, s, cids[0])
	if err != nil {
		t.Fatal(err)
	}
	if n != txlog.String("a") {
		t.Errorf("got %v, want a", n)
	}
	if !s.Cached(cids[0]) {
		t.Error("block not cached after Get")
	}
}

func TestConfig(t *testing.T) {
	s, err := store.FromConfig(context.Background(), map[string]interface{}{
		"type":   "lru",
		"size":   float64(5),
		"nested": map[string]interface{}{"type": "mem"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*Store); !ok {
		t.Errorf("got %T, want *Store", s)
	}
}
