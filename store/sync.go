package store

import (
	"context"

	"github.com/ipfs/go-cid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/bobg/txlog"
)

// Sync synchronizes two or more stores.
// It runs ListRefs on all input stores.
// When a CID is found to be in some but not all stores,
// its block is added to the stores where it's missing.
func Sync(ctx context.Context, stores []txlog.Store) error {
	if len(stores) < 2 {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type tuple struct {
		s   txlog.Store
		ch  <-chan cid.Cid
		ref cid.Cid
		ok  bool
	}

	eg, ctx2 := errgroup.WithContext(ctx)

	tuples := make([]*tuple, 0, len(stores))
	for _, s := range stores {
		s := s
		ch := make(chan cid.Cid)
		eg.Go(func() error {
			defer close(ch)
			return s.ListRefs(ctx2, cid.Undef, func(c cid.Cid) error {
				select {
				case <-ctx2.Done():
					return ctx2.Err()
				case ch <- c:
				}
				return nil
			})
		})
		tuples = append(tuples, &tuple{s: s, ch: ch})
	}

	advance := func(tup *tuple) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case c, ok := <-tup.ch:
			tup.ref, tup.ok = c, ok
		}
		return nil
	}

	for _, tup := range tuples {
		if err := advance(tup); err != nil {
			return err
		}
	}

	for {
		var (
			ref    cid.Cid
			havers []*tuple
		)
		for _, tup := range tuples {
			if !tup.ok {
				continue
			}
			switch {
			case len(havers) == 0 || txlog.Less(tup.ref, ref):
				ref = tup.ref
				havers = []*tuple{tup}
			case tup.ref == ref:
				havers = append(havers, tup)
			}
		}
		if len(havers) == 0 {
			// We've reached the end of input on all channels.
			break
		}

		if len(havers) < len(tuples) {
			data, err := havers[0].s.Get(ctx, ref)
			if err != nil {
				return errors.Wrapf(err, "getting block %s", ref)
			}
			for _, tup := range tuples {
				if tup.ok && tup.ref == ref {
					continue
				}
				if _, err := tup.s.Put(ctx, ref, data); err != nil {
					return errors.Wrapf(err, "storing block %s", ref)
				}
			}
		}

		for _, tup := range havers {
			if err := advance(tup); err != nil {
				return err
			}
		}
	}

	return eg.Wait()
}
