package rpc

import (
	context "context"

	"github.com/ipfs/go-cid"
	"github.com/pkg/errors"
	codes "google.golang.org/grpc/codes"
	status "google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/bobg/txlog"
	"github.com/bobg/txlog/car"
)

var _ StoreServer = &Server{}

// Server serves a txlog.Store to remote Clients.
type Server struct {
	UnimplementedStoreServer // "All implementations must embed UnimplementedStoreServer for forward compatibility."

	s txlog.Store
}

func NewServer(s txlog.Store) *Server {
	return &Server{s: s}
}

func (s *Server) Get(ctx context.Context, req *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	id, err := cid.Cast(req.GetValue())
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "parsing cid: %s", err)
	}
	data, err := s.s.Get(ctx, id)
	if errors.Is(err, txlog.ErrNotFound) {
		return nil, status.Errorf(codes.NotFound, "block %s not found", id)
	}
	if err != nil {
		return nil, status.Errorf(codes.Internal, "getting block %s: %s", id, err)
	}
	return wrapperspb.Bytes(data), nil
}

func (s *Server) Put(ctx context.Context, req *wrapperspb.BytesValue) (*wrapperspb.BoolValue, error) {
	buf := req.GetValue()
	id, data, n, err := car.ReadSection(buf)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "reading section: %s", err)
	}
	if n != len(buf) {
		return nil, status.Errorf(codes.InvalidArgument, "%d bytes of trailing data after section", len(buf)-n)
	}
	added, err := s.s.Put(ctx, id, data)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "storing block %s: %s", id, err)
	}
	return wrapperspb.Bool(added), nil
}

func (s *Server) ListRefs(req *wrapperspb.BytesValue, srv Store_ListRefsServer) error {
	start := cid.Undef
	if b := req.GetValue(); len(b) > 0 {
		var err error
		start, err = cid.Cast(b)
		if err != nil {
			return status.Errorf(codes.InvalidArgument, "parsing cid: %s", err)
		}
	}
	return s.s.ListRefs(srv.Context(), start, func(id cid.Cid) error {
		return srv.Send(wrapperspb.Bytes(id.Bytes()))
	})
}
