package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/ipfs/go-cid"
	"github.com/pkg/errors"

	"github.com/bobg/txlog"
	"github.com/bobg/txlog/store"
)

func (c maincmd) importCar(ctx context.Context, fs *flag.FlagSet, args []string) error {
	config := fs.String("config", "", "path to store config file")
	err := fs.Parse(args)
	if err != nil {
		return errors.Wrap(err, "parsing args")
	}
	if fs.NArg() != 1 {
		return errors.New("usage: import -config CONF FILE")
	}

	s, err := storeFromConfig(ctx, *config)
	if err != nil {
		return err
	}
	buf, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return errors.Wrapf(err, "reading %s", fs.Arg(0))
	}
	root, err := txlog.Import(ctx, s, buf)
	if err != nil {
		return errors.Wrapf(err, "importing %s", fs.Arg(0))
	}
	fmt.Fprintln(stdout, root)
	return nil
}

func (c maincmd) export(ctx context.Context, fs *flag.FlagSet, args []string) error {
	var (
		config  = fs.String("config", "", "path to store config file")
		rootstr = fs.String("root", "", "cid of root block")
		out     = fs.String("o", "", "output container file (default: stdout)")
	)
	err := fs.Parse(args)
	if err != nil {
		return errors.Wrap(err, "parsing args")
	}

	s, err := storeFromConfig(ctx, *config)
	if err != nil {
		return err
	}
	root, err := parseCid(*rootstr, cid.Undef)
	if err != nil {
		return err
	}
	if !root.Defined() {
		return errors.New("missing -root")
	}
	buf, err := txlog.Export(ctx, s, root)
	if err != nil {
		return errors.Wrapf(err, "exporting %s", root)
	}
	return writeOutput(*out, buf)
}

func (c maincmd) sync(ctx context.Context, fs *flag.FlagSet, args []string) error {
	err := fs.Parse(args)
	if err != nil {
		return errors.Wrap(err, "parsing args")
	}

	var stores []txlog.Store
	for _, arg := range fs.Args() {
		s, err := storeFromConfig(ctx, arg)
		if err != nil {
			return errors.Wrapf(err, "reading %s", arg)
		}
		stores = append(stores, s)
	}
	if len(stores) < 2 {
		return errors.New("usage: sync CONF CONF [CONF ...]")
	}

	return store.Sync(ctx, stores)
}
