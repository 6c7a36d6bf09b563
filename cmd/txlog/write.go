package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"io"
	"log"
	"os"

	"github.com/pkg/errors"

	"github.com/bobg/txlog"
	"github.com/bobg/txlog/split"
)

func (c maincmd) write(ctx context.Context, fs *flag.FlagSet, args []string) error {
	var (
		out     = fs.String("o", "", "output container file (default: stdout)")
		raw     = fs.Bool("raw", false, "write each input as a single raw block")
		dosplit = fs.Bool("split", false, "hashsplit each input into a tree of raw blocks")
	)
	err := fs.Parse(args)
	if err != nil {
		return errors.Wrap(err, "parsing args")
	}
	if *raw && *dosplit {
		return errors.New("-raw and -split are mutually exclusive")
	}

	txn := txlog.NewTransaction()

	inputs := fs.Args()
	if len(inputs) == 0 {
		inputs = []string{"-"}
	}
	for _, input := range inputs {
		err := withInput(input, func(r io.Reader) error {
			switch {
			case *dosplit:
				_, err := split.Write(ctx, txn, r)
				return err

			case *raw:
				data, err := io.ReadAll(r)
				if err != nil {
					return err
				}
				_, err = txn.Write(ctx, txlog.Bytes(data))
				return err

			default:
				return writeJSON(ctx, txn, r)
			}
		})
		if err != nil {
			return errors.Wrapf(err, "writing %s", input)
		}
	}

	buf, err := txn.Commit(ctx)
	if err != nil {
		return errors.Wrap(err, "committing")
	}
	root, _ := txn.Root()
	log.Printf("root %s (%d blocks, %d bytes)", root, txn.Len(), len(buf))

	return writeOutput(*out, buf)
}

func withInput(name string, f func(io.Reader) error) error {
	if name == "-" {
		return f(os.Stdin)
	}
	file, err := os.Open(name)
	if err != nil {
		return err
	}
	defer file.Close()
	return f(file)
}

// writeJSON writes each of a sequence of JSON values in r as a separate block.
func writeJSON(ctx context.Context, txn *txlog.Transaction, r io.Reader) error {
	dec := json.NewDecoder(r)
	for {
		var msg json.RawMessage
		err := dec.Decode(&msg)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "reading JSON")
		}
		n, err := txlog.UnmarshalNodeJSON(bytes.TrimSpace(msg))
		if err != nil {
			return err
		}
		c, err := txn.Write(ctx, n)
		if err != nil {
			return err
		}
		log.Printf("wrote %s", c)
	}
}
