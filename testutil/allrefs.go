package testutil

import (
	"context"
	"sort"
	"testing"
	"testing/quick"

	"github.com/google/go-cmp/cmp"
	"github.com/ipfs/go-cid"

	"github.com/bobg/txlog"
)

// CidComparer lets cmp.Diff compare CIDs by value.
var CidComparer = cmp.Comparer(func(a, b cid.Cid) bool { return a.Equals(b) })

// AllRefs writes a random set of random blocks to an empty store
// and makes sure that the right set of CIDs comes back in a call to ListRefs,
// in the right order.
func AllRefs(ctx context.Context, t *testing.T, storeFactory func() txlog.Store) {
	if err := quick.Check(allRefsHelper(ctx, t, storeFactory), nil); err != nil {
		t.Error(err)
	}
}

func allRefsHelper(ctx context.Context, t *testing.T, storeFactory func() txlog.Store) func([][]byte) bool {
	return func(blobs [][]byte) bool {
		var (
			store = storeFactory()
			want  []cid.Cid
		)
		for _, blob := range blobs {
			c, added, err := txlog.PutNode(ctx, store, txlog.Bytes(blob))
			if err != nil {
				t.Fatal(err)
			}
			if added {
				want = append(want, c)
			}
		}
		var got []cid.Cid
		err := store.ListRefs(ctx, cid.Undef, func(c cid.Cid) error {
			got = append(got, c)
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}

		sort.Slice(want, func(i, j int) bool { return txlog.Less(want[i], want[j]) })
		if diff := cmp.Diff(want, got, CidComparer); diff != "" {
			t.Logf("mismatch (-want +got):\n%s", diff)
			return false
		}

		if len(want) > 1 {
			// Listing from a midpoint excludes the midpoint itself.
			var rest []cid.Cid
			err := store.ListRefs(ctx, want[0], func(c cid.Cid) error {
				rest = append(rest, c)
				return nil
			})
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(want[1:], rest, CidComparer); diff != "" {
				t.Logf("mismatch listing after %s (-want +got):\n%s", want[0], diff)
				return false
			}
		}
		return true
	}
}
