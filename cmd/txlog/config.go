package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"

	"github.com/ipfs/go-cid"
	"github.com/pkg/errors"
	"github.com/tidwall/jsonc"

	"github.com/bobg/txlog"
	"github.com/bobg/txlog/store"
)

func storeFromConfig(ctx context.Context, filename string) (txlog.Store, error) {
	if filename == "" {
		return nil, errors.New("missing -config")
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config file %s", filename)
	}

	var conf map[string]interface{}
	dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	dec.UseNumber()
	err = dec.Decode(&conf)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding config file %s", filename)
	}

	s, err := store.FromConfig(ctx, conf)
	return s, errors.Wrapf(err, "creating store from %s", filename)
}

func loadCar(filename string, opts ...txlog.LoadOption) (*txlog.Container, error) {
	if filename == "" {
		return nil, errors.New("missing -car")
	}
	buf, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", filename)
	}
	c, err := txlog.Load(buf, opts...)
	return c, errors.Wrapf(err, "loading %s", filename)
}

// parseCid parses s, defaulting to def when s is empty.
func parseCid(s string, def cid.Cid) (cid.Cid, error) {
	if s == "" {
		return def, nil
	}
	c, err := cid.Decode(s)
	return c, errors.Wrapf(err, "decoding cid %s", s)
}

func writeOutput(filename string, data []byte) error {
	if filename == "" || filename == "-" {
		_, err := os.Stdout.Write(data)
		return errors.Wrap(err, "writing to stdout")
	}
	return errors.Wrapf(os.WriteFile(filename, data, 0644), "writing %s", filename)
}
