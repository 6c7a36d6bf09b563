package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/bobg/txlog"
)

var stdout io.Writer = os.Stdout

func (c maincmd) ls(ctx context.Context, fs *flag.FlagSet, args []string) error {
	carfile := fs.String("car", "", "container file")
	err := fs.Parse(args)
	if err != nil {
		return errors.Wrap(err, "parsing args")
	}

	cont, err := loadCar(*carfile)
	if err != nil {
		return err
	}
	return list(stdout, cont)
}

// list prints one line per block in cont:
// its CID, codec, size, and number of links,
// with the root marked by an asterisk.
func list(w io.Writer, cont *txlog.Container) error {
	for _, id := range cont.Cids() {
		b, err := cont.GetBlock(id)
		if err != nil {
			return errors.Wrapf(err, "reading block %s", id)
		}
		mark := " "
		if id == cont.Root {
			mark = "*"
		}
		_, err = fmt.Fprintf(w, "%s %s %-8s %8d %4d\n", mark, id, txlog.Codec(id.Prefix().Codec), len(b.Bytes()), len(txlog.Links(b.Node())))
		if err != nil {
			return err
		}
	}
	return nil
}
