package rpc

import (
	context "context"
	"net"
	"testing"

	"github.com/pkg/errors"
	grpc "google.golang.org/grpc"
	codes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	status "google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/bobg/txlog"
	"github.com/bobg/txlog/store/mem"
	"github.com/bobg/txlog/testutil"
)

func TestRPC(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	newClient := func(t *testing.T) *Client {
		grpcSrv := grpc.NewServer()
		RegisterStoreServer(grpcSrv, NewServer(mem.New()))
		t.Cleanup(grpcSrv.Stop)

		l := bufconn.Listen(1 << 20)
		go grpcSrv.Serve(l)

		options := []grpc.DialOption{
			grpc.WithContextDialer(func(ctx context.Context, addr string) (net.Conn, error) {
				return l.DialContext(ctx)
			}),
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		}

		cc, err := grpc.NewClient("passthrough:///bufnet", options...)
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { cc.Close() })

		return NewClient(cc)
	}

	t.Run("readwrite", func(t *testing.T) {
		testutil.ReadWrite(ctx, t, newClient(t), testutil.Data(1<<20))
	})
	t.Run("allrefs", func(t *testing.T) {
		testutil.AllRefs(ctx, t, func() txlog.Store { return newClient(t) })
	})
	t.Run("multi", func(t *testing.T) {
		testutil.Multi(ctx, t, newClient(t))
	})
	t.Run("notfound", func(t *testing.T) {
		c := newClient(t)
		id, err := txlog.Sum([]byte("absent"), txlog.Raw)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := c.Get(ctx, id); !errors.Is(err, txlog.ErrNotFound) {
			t.Errorf("got %v, want ErrNotFound", err)
		}
	})
	t.Run("badput", func(t *testing.T) {
		c := newClient(t)
		_, err := c.sc.Put(ctx, wrapperspb.Bytes([]byte{0x05, 0x01}))
		if code := status.Code(err); code != codes.InvalidArgument {
			t.Errorf("got code %s, want %s", code, codes.InvalidArgument)
		}
	})
}
