package bt

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"cloud.google.com/go/bigtable"
	"cloud.google.com/go/bigtable/bttest"
	"github.com/google/go-cmp/cmp"
	"github.com/ipfs/go-cid"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/bobg/txlog"
	"github.com/bobg/txlog/testutil"
)

type emulator struct {
	adm    *bigtable.AdminClient
	client *bigtable.Client
	n      int
}

func newEmulator(ctx context.Context, t *testing.T) *emulator {
	srv, err := bttest.NewServer("localhost:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(srv.Close)

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })

	adm, err := bigtable.NewAdminClient(ctx, "proj", "inst", option.WithGRPCConn(conn))
	if err != nil {
		t.Fatal(err)
	}
	client, err := bigtable.NewClient(ctx, "proj", "inst", option.WithGRPCConn(conn))
	if err != nil {
		t.Fatal(err)
	}
	return &emulator{adm: adm, client: client}
}

func (e *emulator) store(ctx context.Context, t *testing.T) *Store {
	e.n++
	name := fmt.Sprintf("blocks%d", e.n)
	if err := e.adm.CreateTable(ctx, name); err != nil {
		t.Fatal(err)
	}
	if err := e.adm.CreateColumnFamily(ctx, name, blockfam); err != nil {
		t.Fatal(err)
	}
	return New(e.client.Open(name))
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	e := newEmulator(ctx, t)
	testutil.ReadWrite(ctx, t, e.store(ctx, t), testutil.Data(1<<18))
}

func TestAllRefs(t *testing.T) {
	ctx := context.Background()
	e := newEmulator(ctx, t)
	testutil.AllRefs(ctx, t, func() txlog.Store {
		return e.store(ctx, t)
	})
}

func TestMulti(t *testing.T) {
	ctx := context.Background()
	e := newEmulator(ctx, t)
	testutil.Multi(ctx, t, e.store(ctx, t))
}

func TestListRefsRange(t *testing.T) {
	ctx := context.Background()
	e := newEmulator(ctx, t)
	s := e.store(ctx, t)

	var want []cid.Cid
	for _, word := range []string{"alpha", "beta", "gamma", "delta"} {
		c, _, err := txlog.PutNode(ctx, s, txlog.String(word))
		if err != nil {
			t.Fatal(err)
		}
		want = append(want, c)
	}
	sort.Slice(want, func(i, j int) bool { return txlog.Less(want[i], want[j]) })

	// Rows outside the block key space are not listed.
	mut := bigtable.NewMutation()
	mut.Set(blockfam, blockcol, bigtable.Now(), []byte("other"))
	for _, key := range []string{"a:zz", "c:00"} {
		if err := s.t.Apply(ctx, key, mut); err != nil {
			t.Fatal(err)
		}
	}

	list := func(start cid.Cid) []cid.Cid {
		var got []cid.Cid
		err := s.ListRefs(ctx, start, func(c cid.Cid) error {
			got = append(got, c)
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
		return got
	}

	if diff := cmp.Diff(want, list(cid.Undef), testutil.CidComparer); diff != "" {
		t.Errorf("full listing mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want[2:], list(want[1]), testutil.CidComparer); diff != "" {
		t.Errorf("listing after %s mismatch (-want +got):\n%s", want[1], diff)
	}
}
