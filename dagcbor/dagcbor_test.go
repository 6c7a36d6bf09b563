package dagcbor

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	"github.com/pkg/errors"
)

func TestMarshal(t *testing.T) {
	cases := []struct {
		name string
		v    any
		want string
	}{
		{"map", map[string]any{"some": "data"}, "a164736f6d656464617461"},
		{"length first", map[string]any{"bb": int64(1), "a": int64(2), "c": int64(3)}, "a3616102616303626262" + "01"},
		{"float", 1.5, "fb3ff8000000000000"},
		{"empty list", []any{}, "80"},
		{"negative", int64(-10), "29"},
		{"bytes", []byte{1, 2}, "420102"},
		{"null", nil, "f6"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := Marshal(c.v)
			if err != nil {
				t.Fatal(err)
			}
			if h := hex.EncodeToString(got); h != c.want {
				t.Errorf("got %s, want %s", h, c.want)
			}
		})
	}
}

func TestUnmarshal(t *testing.T) {
	data, err := Marshal(map[string]any{
		"a": []any{int64(1), "two", true},
		"b": map[string]any{"c": []byte("d")},
	})
	if err != nil {
		t.Fatal(err)
	}
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]any{
		"a": []any{uint64(1), "two", true},
		"b": map[string]any{"c": []byte("d")},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestUnmarshalStrict(t *testing.T) {
	cases := map[string]string{
		"trailing bytes": "0101",
		"duplicate keys": "a2616101616102",
		"integer key":    "a10102",
		"indefinite":     "9f01ff",
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			data, err := hex.DecodeString(h)
			if err != nil {
				t.Fatal(err)
			}
			if _, err := Unmarshal(data); err == nil {
				t.Error("got no error")
			}
		})
	}
}

func TestLinks(t *testing.T) {
	mh, err := multihash.Sum([]byte("hello"), multihash.SHA2_256, -1)
	if err != nil {
		t.Fatal(err)
	}
	c := cid.NewCidV1(cid.Raw, mh)

	tag := LinkTag(c)
	if tag.Number != TagLink {
		t.Errorf("got tag %d, want %d", tag.Number, TagLink)
	}

	data, err := Marshal(map[string]any{"ref": tag})
	if err != nil {
		t.Fatal(err)
	}
	// Tag 42 is encoded as d8 2a.
	if !bytes.Contains(data, []byte{0xd8, 0x2a}) {
		t.Errorf("encoding %x lacks tag 42", data)
	}

	v, err := Unmarshal(data)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := v.(map[string]any)["ref"].(cbor.Tag)
	if !ok {
		t.Fatalf("ref decoded as %T", v.(map[string]any)["ref"])
	}
	c2, err := LinkFromTag(got)
	if err != nil {
		t.Fatal(err)
	}
	if !c2.Equals(c) {
		t.Errorf("got %s, want %s", c2, c)
	}

	bad := []cbor.Tag{
		{Number: 43, Content: tag.Content},
		{Number: TagLink, Content: "text"},
		{Number: TagLink, Content: c.Bytes()},
		{Number: TagLink, Content: []byte{0, 1, 2}},
	}
	for i, b := range bad {
		if _, err := LinkFromTag(b); !errors.Is(err, ErrBadLink) {
			t.Errorf("case %d: got %v, want ErrBadLink", i, err)
		}
	}
}
