package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/pkg/errors"

	"github.com/bobg/txlog"
	"github.com/bobg/txlog/split"
)

func (c maincmd) get(ctx context.Context, fs *flag.FlagSet, args []string) error {
	var (
		carfile = fs.String("car", "", "container file")
		cidstr  = fs.String("cid", "", "cid of block to get (default: root)")
		verify  = fs.Bool("verify", false, "verify block hashes")
	)
	err := fs.Parse(args)
	if err != nil {
		return errors.Wrap(err, "parsing args")
	}

	var opts []txlog.LoadOption
	if *verify {
		opts = append(opts, txlog.Verify())
	}
	cont, err := loadCar(*carfile, opts...)
	if err != nil {
		return err
	}
	id, err := parseCid(*cidstr, cont.Root)
	if err != nil {
		return err
	}

	n, err := cont.Get(id)
	if err != nil {
		return errors.Wrapf(err, "getting block %s", id)
	}
	j, err := txlog.MarshalNodeJSON(n)
	if err != nil {
		return errors.Wrap(err, "rendering JSON")
	}
	fmt.Fprintln(stdout, string(j))
	return nil
}

func (c maincmd) cat(ctx context.Context, fs *flag.FlagSet, args []string) error {
	var (
		carfile = fs.String("car", "", "container file")
		cidstr  = fs.String("cid", "", "cid of split tree (default: root)")
	)
	err := fs.Parse(args)
	if err != nil {
		return errors.Wrap(err, "parsing args")
	}

	cont, err := loadCar(*carfile, txlog.Verify())
	if err != nil {
		return err
	}
	id, err := parseCid(*cidstr, cont.Root)
	if err != nil {
		return err
	}
	return split.Read(ctx, cont, id, stdout)
}
