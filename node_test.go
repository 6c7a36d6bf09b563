package txlog_test

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ipfs/go-cid"

	"github.com/bobg/txlog"
)

func TestFrom(t *testing.T) {
	link, err := txlog.Sum([]byte("x"), txlog.Raw)
	if err != nil {
		t.Fatal(err)
	}

	got, err := txlog.From(map[string]any{
		"a": []int{1, 2},
		"b": map[string]string{"c": "d"},
		"e": link,
		"f": []byte("g"),
		"h": nil,
		"i": 1.5,
		"j": uint16(9),
		"k": txlog.String("already a node"),
	})
	if err != nil {
		t.Fatal(err)
	}
	want := txlog.Map{
		"a": txlog.List{txlog.Int(1), txlog.Int(2)},
		"b": txlog.Map{"c": txlog.String("d")},
		"e": txlog.Link{Cid: link},
		"f": txlog.Bytes("g"),
		"h": txlog.Null{},
		"i": txlog.Float(1.5),
		"j": txlog.Int(9),
		"k": txlog.String("already a node"),
	}
	if diff := cmp.Diff(txlog.Node(want), got, cidComparer); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	bad := []any{
		uint64(math.MaxUint64),
		map[int]string{1: "x"},
		struct{}{},
		cid.Undef,
	}
	for _, b := range bad {
		if _, err := txlog.From(b); err == nil {
			t.Errorf("got no error converting %#v", b)
		}
	}
}

func TestLinks(t *testing.T) {
	var cids []cid.Cid
	for _, s := range []string{"a", "b", "c", "d"} {
		c, err := txlog.Sum([]byte(s), txlog.Raw)
		if err != nil {
			t.Fatal(err)
		}
		cids = append(cids, c)
	}

	n := txlog.Map{
		"z": txlog.Link{Cid: cids[3]},
		"a": txlog.List{txlog.Link{Cid: cids[0]}, txlog.Int(1), txlog.Map{"x": txlog.Link{Cid: cids[1]}}},
		"m": txlog.Link{Cid: cids[2]},
	}
	if diff := cmp.Diff(cids, txlog.Links(n), cidComparer); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if got := txlog.Links(txlog.Bytes("no links")); len(got) != 0 {
		t.Errorf("got %d links in bytes node", len(got))
	}
}

func TestKindString(t *testing.T) {
	if got := txlog.KindLink.String(); got != "link" {
		t.Errorf("got %s, want link", got)
	}
	if got := txlog.Kind(99).String(); got != "kind(99)" {
		t.Errorf("got %s, want kind(99)", got)
	}
}
