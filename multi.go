package txlog

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ipfs/go-cid"
	"golang.org/x/sync/errgroup"
)

// MultiGetter is a Getter that can get many blocks in one call.
type MultiGetter interface {
	GetMulti(context.Context, []cid.Cid) (map[cid.Cid][]byte, error)
}

// MultiPutter is a Store that can put many blocks in one call.
type MultiPutter interface {
	PutMulti(context.Context, []*Block) (map[cid.Cid]bool, error)
}

// multiConcurrency bounds the goroutines used by the GetMulti and PutMulti fallbacks.
const multiConcurrency = 16

// GetMulti gets multiple blocks with a single call.
// By default this is implemented as a bunch of concurrent individual Get calls.
// However, if g implements MultiGetter, its GetMulti method is used instead.
// The return value is a mapping of input CIDs to the bytes that were found in g.
// The returned error may be a MultiErr,
// mapping input CIDs to errors encountered retrieving those specific blocks.
// This function may return a successful partial result even in case of error.
// In particular, when the error return is a MultiErr,
// every input CID appears in either the result map or the MultiErr map.
func GetMulti(ctx context.Context, g Getter, cids []cid.Cid) (map[cid.Cid][]byte, error) {
	if m, ok := g.(MultiGetter); ok {
		return m.GetMulti(ctx, cids)
	}

	var (
		mu     sync.Mutex
		res    = make(map[cid.Cid][]byte)
		errmap MultiErr
		eg     errgroup.Group
	)
	eg.SetLimit(multiConcurrency)

	for _, c := range cids {
		c := c
		eg.Go(func() error {
			data, err := g.Get(ctx, c)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				if errmap == nil {
					errmap = make(MultiErr)
				}
				errmap[c] = err
				return nil
			}
			res[c] = data
			return nil
		})
	}
	_ = eg.Wait()

	if errmap != nil {
		return res, errmap
	}
	return res, nil
}

// MultiErr is a type of error returned by GetMulti and PutMulti.
// It maps individual CIDs to errors encountered trying to Get or Put them.
type MultiErr map[cid.Cid]error

// Error implements the error interface.
func (e MultiErr) Error() string {
	var strs []string
	for c, err := range e {
		strs = append(strs, fmt.Sprintf("%s: %s", c, err))
	}
	return "error(s): " + strings.Join(strs, "; ")
}

// PutMulti stores multiple blocks with a single call.
// By default this is implemented as a bunch of concurrent individual Put calls.
// However, if s implements MultiPutter, its PutMulti method is used instead.
// The return value is a mapping of input blocks' CIDs to a boolean indicating whether each was a new addition to s.
// The returned error may be a MultiErr,
// mapping input blocks' CIDs to errors encountered writing those specific blocks.
// This function may return a successful partial result even in case of error.
func PutMulti(ctx context.Context, s Store, blocks []*Block) (map[cid.Cid]bool, error) {
	if m, ok := s.(MultiPutter); ok {
		return m.PutMulti(ctx, blocks)
	}

	var (
		mu     sync.Mutex
		res    = make(map[cid.Cid]bool)
		errmap MultiErr
		eg     errgroup.Group
	)
	eg.SetLimit(multiConcurrency)

	for _, b := range blocks {
		b := b
		eg.Go(func() error {
			added, err := s.Put(ctx, b.cid, b.data)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				if errmap == nil {
					errmap = make(MultiErr)
				}
				errmap[b.cid] = err
				return nil
			}
			res[b.cid] = res[b.cid] || added
			return nil
		})
	}
	_ = eg.Wait()

	if errmap != nil {
		return res, errmap
	}
	return res, nil
}
