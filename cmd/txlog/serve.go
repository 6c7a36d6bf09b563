package main

import (
	"context"
	"flag"
	"log"
	"net"

	"github.com/pkg/errors"
	"google.golang.org/grpc"

	"github.com/bobg/txlog/store/rpc"
)

func (c maincmd) serve(ctx context.Context, fs *flag.FlagSet, args []string) error {
	var (
		config = fs.String("config", "", "path to store config file")
		addr   = fs.String("addr", ":7373", "listen address")
	)
	err := fs.Parse(args)
	if err != nil {
		return errors.Wrap(err, "parsing args")
	}

	s, err := storeFromConfig(ctx, *config)
	if err != nil {
		return err
	}

	gs := grpc.NewServer()
	rpc.RegisterStoreServer(gs, rpc.NewServer(s))
	defer gs.GracefulStop()

	lis, err := net.Listen("tcp", *addr)
	if err != nil {
		return errors.Wrapf(err, "listening on %s", *addr)
	}
	defer lis.Close()

	log.Printf("Listening on %s", lis.Addr())

	go func() {
		<-ctx.Done()
		gs.Stop()
	}()

	return gs.Serve(lis)
}
