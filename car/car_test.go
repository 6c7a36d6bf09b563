package car

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	"github.com/pkg/errors"

	"github.com/bobg/txlog/dagcbor"
)

type section struct {
	c    cid.Cid
	data []byte
}

func testSections(t *testing.T, n int) []section {
	t.Helper()
	var result []section
	for i := 0; i < n; i++ {
		data := []byte(fmt.Sprintf("block %d", i))
		mh, err := multihash.Sum(data, multihash.SHA2_256, -1)
		if err != nil {
			t.Fatal(err)
		}
		result = append(result, section{c: cid.NewCidV1(cid.Raw, mh), data: data})
	}
	return result
}

func build(t *testing.T, root cid.Cid, secs []section) []byte {
	t.Helper()
	hsize, err := HeaderLength([]cid.Cid{root})
	if err != nil {
		t.Fatal(err)
	}
	size := hsize
	for _, s := range secs {
		size += BlockLength(s.c, s.data)
	}
	w := NewWriter(make([]byte, size), hsize)
	w.AddRoot(root)
	for _, s := range secs {
		if err := w.Write(s.c, s.data); err != nil {
			t.Fatal(err)
		}
	}
	buf, err := w.Close()
	if err != nil {
		t.Fatal(err)
	}
	if len(buf) != size {
		t.Fatalf("got %d bytes, want %d", len(buf), size)
	}
	return buf
}

var cidComparer = cmp.Comparer(func(a, b cid.Cid) bool { return a.Equals(b) })

func TestRoundTrip(t *testing.T) {
	secs := testSections(t, 5)
	root := secs[len(secs)-1].c
	buf := build(t, root, secs)

	r, err := NewReader(buf)
	if err != nil {
		t.Fatal(err)
	}
	if r.Version() != Version {
		t.Errorf("got version %d, want %d", r.Version(), Version)
	}
	if diff := cmp.Diff([]cid.Cid{root}, r.Roots(), cidComparer); diff != "" {
		t.Errorf("roots mismatch (-want +got):\n%s", diff)
	}

	var wantCids []cid.Cid
	for _, s := range secs {
		wantCids = append(wantCids, s.c)
		got, err := r.Get(s.c)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(got, s.data) {
			t.Errorf("got %q for %s, want %q", got, s.c, s.data)
		}
	}
	if diff := cmp.Diff(wantCids, r.Cids(), cidComparer); diff != "" {
		t.Errorf("cids mismatch (-want +got):\n%s", diff)
	}

	other := testSections(t, 6)[5]
	if r.Has(other.c) {
		t.Errorf("reader claims to have %s", other.c)
	}
	if _, err := r.Get(other.c); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestDeterminism(t *testing.T) {
	secs := testSections(t, 3)
	a := build(t, secs[2].c, secs)
	b := build(t, secs[2].c, secs)
	if !bytes.Equal(a, b) {
		t.Error("identical input produced different containers")
	}
}

func TestDuplicateSections(t *testing.T) {
	secs := testSections(t, 2)
	secs = append(secs, secs[0])
	r, err := NewReader(build(t, secs[1].c, secs))
	if err != nil {
		t.Fatal(err)
	}
	if got := len(r.Cids()); got != 2 {
		t.Errorf("got %d cids, want 2", got)
	}
}

func TestCapacity(t *testing.T) {
	secs := testSections(t, 2)
	hsize, err := HeaderLength([]cid.Cid{secs[0].c})
	if err != nil {
		t.Fatal(err)
	}
	w := NewWriter(make([]byte, hsize+BlockLength(secs[0].c, secs[0].data)), hsize)
	if err := w.Write(secs[0].c, secs[0].data); err != nil {
		t.Fatal(err)
	}
	if err := w.Write(secs[1].c, secs[1].data); !errors.Is(err, ErrCapacity) {
		t.Errorf("got %v, want ErrCapacity", err)
	}
}

func TestCloseErrors(t *testing.T) {
	secs := testSections(t, 1)

	w := NewWriter(make([]byte, 100), 10)
	if _, err := w.Close(); !errors.Is(err, ErrNoRoots) {
		t.Errorf("got %v, want ErrNoRoots", err)
	}

	hsize, err := HeaderLength([]cid.Cid{secs[0].c})
	if err != nil {
		t.Fatal(err)
	}
	w = NewWriter(make([]byte, hsize+1), hsize+1)
	w.AddRoot(secs[0].c)
	if _, err := w.Close(); err == nil {
		t.Error("got no error for mis-sized header reservation")
	}
}

func TestSection(t *testing.T) {
	s := testSections(t, 1)[0]
	buf := AppendSection([]byte("prefix"), s.c, s.data)
	buf = buf[len("prefix"):]
	if len(buf) != BlockLength(s.c, s.data) {
		t.Errorf("got %d bytes, want %d", len(buf), BlockLength(s.c, s.data))
	}
	c, data, n, err := ReadSection(buf)
	if err != nil {
		t.Fatal(err)
	}
	if !c.Equals(s.c) || !bytes.Equal(data, s.data) || n != len(buf) {
		t.Errorf("got (%s, %q, %d), want (%s, %q, %d)", c, data, n, s.c, s.data, len(buf))
	}
}

func TestMalformed(t *testing.T) {
	secs := testSections(t, 2)
	good := build(t, secs[1].c, secs)

	badVersion, err := dagcbor.Marshal(map[string]any{
		"roots":   []any{dagcbor.LinkTag(secs[0].c)},
		"version": uint64(2),
	})
	if err != nil {
		t.Fatal(err)
	}
	noRoots, err := dagcbor.Marshal(map[string]any{
		"roots":   []any{},
		"version": uint64(1),
	})
	if err != nil {
		t.Fatal(err)
	}
	notLinks, err := dagcbor.Marshal(map[string]any{
		"roots":   []any{"x"},
		"version": uint64(1),
	})
	if err != nil {
		t.Fatal(err)
	}

	frame := func(b []byte) []byte {
		return append([]byte{byte(len(b))}, b...)
	}

	cases := map[string][]byte{
		"empty":       nil,
		"truncated":   good[:len(good)-1],
		"header only": good[:5],
		"bad version": frame(badVersion),
		"no roots":    frame(noRoots),
		"not links":   frame(notLinks),
		"garbage":     append(append([]byte{}, good...), 0x05, 0x01),
	}
	for name, buf := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := NewReader(buf); !errors.Is(err, ErrMalformed) {
				t.Errorf("got %v, want ErrMalformed", err)
			}
		})
	}
}
