// Package replica implements a block store that writes through to several nested stores.
package replica

import (
	"context"
	"reflect"
	"sync"

	"github.com/ipfs/go-cid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/bobg/txlog"
	"github.com/bobg/txlog/store"
)

var _ txlog.Store = (*Store)(nil)

// Store is a block store that delegates reads and writes to two sets of nested stores.
// One set is synchronous:
// writes to all of these must succeed before a call to Put returns,
// and an error from any will cause Put to fail.
// The other set is asynchronous:
// a call to Put queues writes on these stores but does not wait for them to finish.
// However, if any asynchronous write encounters an error,
// the whole Store is put into an error state and further operations will fail.
type Store struct {
	sync   []txlog.Store
	async  []asyncChans
	cancel context.CancelFunc

	mu  sync.Mutex // protects err
	err error      // the error from an async goroutine, if any
}

type block struct {
	c    cid.Cid
	data []byte
}

type asyncChans struct {
	blocks chan<- block
	errs   <-chan error
}

// New produces a new Store.
// The set of synchronous stores must be non-empty.
// The set of asynchronous stores may be empty.
// If there are any asynchronous stores,
// goroutines are launched for them,
// and canceling the given context object causes those to exit,
// placing the Store in an error state.
//
// Normally, writes to asynchronous stores do not block calls to Put,
// but the queue for each nested store has a fixed length given by n,
// which must be 1 or greater.
// If any async store falls too far behind,
// Put will block until all requests can be queued.
func New(ctx context.Context, sync []txlog.Store, async []txlog.Store, n int) *Store {
	result := &Store{sync: sync}

	if len(async) > 0 {
		ctx, result.cancel = context.WithCancel(ctx)

		selectCases := make([]reflect.SelectCase, 1+len(async))

		for i, a := range async {
			var (
				blocks = make(chan block, n)
				errs   = make(chan error, 1)
			)

			result.async = append(result.async, asyncChans{blocks: blocks, errs: errs})

			selectCases[i].Dir = reflect.SelectRecv
			selectCases[i].Chan = reflect.ValueOf(errs)

			a := a
			go runAsync(ctx, a, blocks, errs)
		}

		selectCases[len(async)].Dir = reflect.SelectRecv
		selectCases[len(async)].Chan = reflect.ValueOf(ctx.Done())

		go func() {
			chosen, errval, ok := reflect.Select(selectCases)
			result.cancel()

			result.mu.Lock()
			defer result.mu.Unlock()
			if ok && chosen < len(async) {
				result.err = errval.Interface().(error)
			} else {
				result.err = ctx.Err()
			}
		}()
	}

	return result
}

// Runs as a goroutine until ctx is canceled or an error occurs (which it writes to errs).
func runAsync(ctx context.Context, s txlog.Store, blocks <-chan block, errs chan<- error) {
	defer close(errs)

	for {
		select {
		case <-ctx.Done():
			errs <- ctx.Err()
			return

		case b := <-blocks:
			_, err := s.Put(ctx, b.c, b.data)
			if err != nil {
				errs <- errors.Wrapf(err, "storing block %s", b.c)
				return
			}
		}
	}
}

// Put implements txlog.Store.Put.
// The block is stored in all synchronous nested stores.
// An error from any of them causes Put to return an error.
//
// Some nested stores may already have the block and others may not.
// The value of added is true if any synchronous store added it.
//
// A request to write the block is queued for any asynchronous nested stores.
// Normally this does not block the call to Put,
// but if any async store falls too far behind,
// Put must wait for space to open in its request queue before proceeding.
// The size of this queue is given by the int passed to New.
func (s *Store) Put(ctx context.Context, c cid.Cid, data []byte) (bool, error) {
	if err := s.checkErr(); err != nil {
		return false, errors.Wrap(err, "in async-store goroutine")
	}

	var (
		mu    sync.Mutex
		added bool
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, st := range s.sync {
		st := st
		g.Go(func() error {
			a, err := st.Put(gctx, c, data)
			if err != nil {
				return err
			}
			mu.Lock()
			added = added || a
			mu.Unlock()
			return nil
		})
	}

	for _, a := range s.async {
		select {
		case <-ctx.Done():
			return false, ctx.Err()

		case a.blocks <- block{c: c, data: data}:
		}
	}

	if err := g.Wait(); err != nil {
		return false, err
	}
	return added, nil
}

// Get implements txlog.Getter.
// It delegates the request to all of the synchronous stores in s.
// returning the result from the first one to respond without error
// and canceling the request to the others.
// If all synchronous stores respond with an error,
// one of those errors is returned.
func (s *Store) Get(ctx context.Context, c cid.Cid) ([]byte, error) {
	if err := s.checkErr(); err != nil {
		return nil, errors.Wrap(err, "in async-store goroutine")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		data []byte
		err  error
	}

	ch := make(chan result, len(s.sync))
	for _, st := range s.sync {
		st := st
		go func() {
			data, err := st.Get(ctx, c)
			ch <- result{data: data, err: err}
		}()
	}

	var err error
	for range s.sync {
		r := <-ch
		if r.err == nil {
			return r.data, nil
		}
		if err == nil || !errors.Is(r.err, txlog.ErrNotFound) {
			err = r.err
		}
	}
	return nil, err
}

// ListRefs implements txlog.Getter.
// It delegates the request to all of the synchronous stores in s
// and synthesizes the result from the union of their CIDs.
func (s *Store) ListRefs(ctx context.Context, start cid.Cid, f func(cid.Cid) error) error {
	if err := s.checkErr(); err != nil {
		return errors.Wrap(err, "in async-store goroutine")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	chans := make([]chan cid.Cid, len(s.sync))
	for i, st := range s.sync {
		var (
			ch = make(chan cid.Cid, 1)
			st = st
		)
		chans[i] = ch
		g.Go(func() error {
			defer close(ch)
			return st.ListRefs(gctx, start, func(c cid.Cid) error {
				select {
				case <-gctx.Done():
					return gctx.Err()
				case ch <- c:
					return nil
				}
			})
		})
	}

	// A closed channel yields cid.Undef.
	next := make([]cid.Cid, len(chans))
	for i, ch := range chans {
		next[i] = <-ch
	}

	for {
		var best cid.Cid
		for _, c := range next {
			if !c.Defined() {
				continue
			}
			if !best.Defined() || txlog.Less(c, best) {
				best = c
			}
		}
		if !best.Defined() {
			break
		}
		if err := f(best); err != nil {
			return err
		}
		for i, c := range next {
			if c == best {
				next[i] = <-chans[i]
			}
		}
	}

	return g.Wait()
}

func (s *Store) checkErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func init() {
	store.Register("replica", func(ctx context.Context, conf map[string]interface{}) (txlog.Store, error) {
		syncStores, err := store.List(ctx, conf, "sync")
		if err != nil {
			return nil, errors.Wrap(err, "creating nested sync stores")
		}
		if len(syncStores) == 0 {
			return nil, errors.New(`missing "sync" parameter`)
		}
		asyncStores, err := store.List(ctx, conf, "async")
		if err != nil {
			return nil, errors.Wrap(err, "creating nested async stores")
		}

		queueLen := 10
		if _, ok := conf["queuelen"]; ok {
			queueLen, err = store.Int(conf, "queuelen")
			if err != nil {
				return nil, err
			}
		}

		return New(ctx, syncStores, asyncStores, queueLen), nil
	})
}
