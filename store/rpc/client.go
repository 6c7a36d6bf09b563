// Package rpc exposes a block store over gRPC.
package rpc

import (
	context "context"
	"io"

	"github.com/ipfs/go-cid"
	"github.com/pkg/errors"
	grpc "google.golang.org/grpc"
	codes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	status "google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/bobg/txlog"
	"github.com/bobg/txlog/car"
	"github.com/bobg/txlog/store"
)

var _ txlog.Store = &Client{}

// Client is a txlog.Store backed by a remote Server.
type Client struct {
	sc StoreClient
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{sc: NewStoreClient(cc)}
}

func (c *Client) Get(ctx context.Context, id cid.Cid) ([]byte, error) {
	resp, err := c.sc.Get(ctx, wrapperspb.Bytes(id.Bytes()))
	if code := status.Code(err); code == codes.NotFound {
		return nil, txlog.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return resp.GetValue(), nil
}

func (c *Client) ListRefs(ctx context.Context, start cid.Cid, f func(cid.Cid) error) error {
	lc, err := c.sc.ListRefs(ctx, wrapperspb.Bytes(start.Bytes()))
	if err != nil {
		return err
	}
	for {
		resp, err := lc.Recv()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "receiving response")
		}
		id, err := cid.Cast(resp.GetValue())
		if err != nil {
			return errors.Wrap(err, "parsing cid")
		}
		err = f(id)
		if err != nil {
			return err
		}
	}
}

func (c *Client) Put(ctx context.Context, id cid.Cid, data []byte) (bool, error) {
	resp, err := c.sc.Put(ctx, wrapperspb.Bytes(car.AppendSection(nil, id, data)))
	if err != nil {
		return false, err
	}
	return resp.GetValue(), nil
}

func init() {
	store.Register("rpc", func(_ context.Context, conf map[string]interface{}) (txlog.Store, error) {
		addr, err := store.String(conf, "addr")
		if err != nil {
			return nil, err
		}
		var opts []grpc.DialOption
		if ins, _ := conf["insecure"].(bool); ins {
			opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
		}
		cc, err := grpc.NewClient(addr, opts...)
		if err != nil {
			return nil, errors.Wrapf(err, "connecting to %s", addr)
		}
		return NewClient(cc), nil
	})
}
