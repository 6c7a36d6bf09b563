package store_test

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ipfs/go-cid"
	"github.com/pkg/errors"

	"github.com/bobg/txlog"
	. "github.com/bobg/txlog/store"
	"github.com/bobg/txlog/store/mem"
)

var cidComparer = cmp.Comparer(func(a, b cid.Cid) bool { return a.Equals(b) })

func TestSync(t *testing.T) {
	const text = `abc def ghi jkl mno pqr stu`

	var (
		ctx    = context.Background()
		words  = strings.Fields(text)
		stores = make([]txlog.Store, 0, len(words))
	)
	for i := range words {
		s := mem.New()
		stores = append(stores, s)
		for j, word := range words {
			if i == j {
				continue
			}

			_, _, err := txlog.PutNode(ctx, s, txlog.String(word))
			if err != nil {
				t.Fatal(err)
			}
		}
	}

	err := Sync(ctx, stores)
	if err != nil {
		t.Fatal(err)
	}

	refs := listRefs(ctx, t, stores[0])
	if len(refs) != len(words) {
		t.Fatalf("got %d refs, want %d", len(refs), len(words))
	}

	for i := 1; i < len(stores); i++ {
		refs2 := listRefs(ctx, t, stores[i])
		if diff := cmp.Diff(refs, refs2, cidComparer); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	}

	for _, s := range stores {
		for _, ref := range refs {
			if _, err := txlog.GetNode(ctx, s, ref); err != nil {
				t.Errorf("getting %s: %s", ref, err)
			}
		}
	}
}

func TestSyncOne(t *testing.T) {
	if err := Sync(context.Background(), []txlog.Store{mem.New()}); err != nil {
		t.Fatal(err)
	}
}

func listRefs(ctx context.Context, t *testing.T, s txlog.Store) []cid.Cid {
	var refs []cid.Cid
	err := s.ListRefs(ctx, cid.Undef, func(c cid.Cid) error {
		refs = append(refs, c)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return refs
}

func TestRegistry(t *testing.T) {
	ctx := context.Background()

	s, err := FromConfig(ctx, map[string]interface{}{"type": "mem"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*mem.Store); !ok {
		t.Errorf("got %T, want *mem.Store", s)
	}

	if _, err := Create(ctx, "no such type", nil); err == nil {
		t.Error("got no error creating an unregistered type")
	}
	if _, err := FromConfig(ctx, map[string]interface{}{}); err == nil {
		t.Error("got no error creating from a config with no type")
	}

	var found bool
	for _, typ := range Types() {
		if typ == "mem" {
			found = true
		}
	}
	if !found {
		t.Errorf("mem not among registered types %v", Types())
	}
}

func TestConfigParams(t *testing.T) {
	ctx := context.Background()

	conf := map[string]interface{}{
		"a":    3,
		"b":    json.Number("7"),
		"c":    float64(9),
		"frac": json.Number("1.5"),
		"s":    "str",
		"list": []interface{}{map[string]interface{}{"type": "mem"}, map[string]interface{}{"type": "nope"}},
	}

	for key, want := range map[string]int{"a": 3, "b": 7, "c": 9} {
		got, err := Int(conf, key)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("Int(%s): got %d, want %d", key, got, want)
		}
	}

	_, err := Int(conf, "frac")
	var numErr *strconv.NumError
	if !errors.As(err, &numErr) {
		t.Errorf("got %v, want a wrapped *strconv.NumError", err)
	}
	if _, err := Int(conf, "s"); err == nil {
		t.Error("got no error for a string as an int")
	}
	if _, err := String(conf, "missing"); err == nil || !strings.Contains(err.Error(), `"missing"`) {
		t.Errorf("got %v, want an error naming the missing parameter", err)
	}
	if _, err := List(ctx, conf, "list"); err == nil || !strings.Contains(err.Error(), `item 1 of "list"`) {
		t.Errorf("got %v, want an error naming the bad item", err)
	}
	if stores, err := List(ctx, conf, "absent"); err != nil || len(stores) != 0 {
		t.Errorf("got %v, %v for an absent list", stores, err)
	}
}
