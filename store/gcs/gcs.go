// Package gcs implements a block store on Google Cloud Storage.
package gcs

import (
	"context"
	"encoding/hex"
	"io"
	"net/http"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/ipfs/go-cid"
	"github.com/pkg/errors"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/bobg/txlog"
	"github.com/bobg/txlog/store"
)

var _ txlog.Store = &Store{}

// Store is a Google Cloud Storage-based implementation of a block store.
// Each block is an object named "b:" followed by the hex encoding of its CID's bytes.
type Store struct {
	bucket *storage.BucketHandle
}

// New produces a new Store.
func New(bucket *storage.BucketHandle) *Store {
	return &Store{bucket: bucket}
}

// Get gets the block with the given CID.
func (s *Store) Get(ctx context.Context, c cid.Cid) ([]byte, error) {
	name := blockObjName(c)
	r, err := s.bucket.Object(name).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, txlog.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading info of object %s", name)
	}
	defer r.Close()

	b := make([]byte, r.Attrs.Size)
	_, err = io.ReadFull(r, b)
	return b, errors.Wrapf(err, "reading contents of object %s", name)
}

// Put adds a block to the store if it wasn't already present.
func (s *Store) Put(ctx context.Context, c cid.Cid, data []byte) (bool, error) {
	var (
		name = blockObjName(c)
		obj  = s.bucket.Object(name).If(storage.Conditions{DoesNotExist: true})
		w    = obj.NewWriter(ctx)
	)

	if _, err := w.Write(data); err != nil {
		w.Close()
		if isPreconditionFailed(err) {
			return false, nil
		}
		return false, errors.Wrapf(err, "writing object %s", name)
	}
	err := w.Close()
	if isPreconditionFailed(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "writing object %s", name)
	}
	return true, nil
}

func isPreconditionFailed(err error) bool {
	var e *googleapi.Error
	return errors.As(err, &e) && e.Code == http.StatusPreconditionFailed
}

// ListRefs produces all CIDs in the store, in the order defined by txlog.Less.
func (s *Store) ListRefs(ctx context.Context, start cid.Cid, f func(cid.Cid) error) error {
	if !start.Defined() {
		return s.listRefs(ctx, "", f)
	}

	// Google Cloud Storage iterators can filter by object-name prefix.
	// So we take (the hex encoding of) start and repeatedly compute prefixes for the objects we want.
	// If start is e67a, for example, the sequence of generated prefixes is:
	//   e67b e67c e67d e67e e67f
	//   e68 e69 e6a e6b e6c e6d e6e e6f
	//   e7 e8 e9 ea eb ec ed ee ef
	//   f
	return eachHexPrefix(hex.EncodeToString(start.Bytes()), false, func(prefix string) error {
		return s.listRefs(ctx, prefix, f)
	})
}

func (s *Store) listRefs(ctx context.Context, prefix string, f func(cid.Cid) error) error {
	iter := s.bucket.Objects(ctx, &storage.Query{Prefix: blockPrefix + prefix})
	for {
		obj, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return err
		}
		c, err := cidFromBlockObjName(obj.Name)
		if err != nil {
			return err
		}
		err = f(c)
		if err != nil {
			return err
		}
	}
}

func eachHexPrefix(prefix string, incl bool, f func(string) error) error {
	prefix = strings.ToLower(prefix)
	for len(prefix) > 0 {
		end := hexval(prefix[len(prefix)-1:][0])
		if !incl {
			end++
		}
		prefix = prefix[:len(prefix)-1]
		for c := end; c < 16; c++ {
			err := f(prefix + string(hexdigit(c)))
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func hexval(b byte) int {
	switch {
	case '0' <= b && b <= '9':
		return int(b - '0')
	case 'a' <= b && b <= 'f':
		return int(10 + b - 'a')
	case 'A' <= b && b <= 'F':
		return int(10 + b - 'A')
	}
	return 0
}

func hexdigit(n int) byte {
	if n < 10 {
		return byte(n + '0')
	}
	return byte(n - 10 + 'a')
}

const blockPrefix = "b:"

func blockObjName(c cid.Cid) string {
	return blockPrefix + hex.EncodeToString(c.Bytes())
}

func cidFromBlockObjName(name string) (cid.Cid, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(name, blockPrefix))
	if err != nil {
		return cid.Undef, errors.Wrapf(err, "decoding object name %s", name)
	}
	c, err := cid.Cast(b)
	return c, errors.Wrapf(err, "parsing cid in object name %s", name)
}

func init() {
	store.Register("gcs", func(ctx context.Context, conf map[string]interface{}) (txlog.Store, error) {
		var options []option.ClientOption
		creds, err := store.String(conf, "creds")
		if err != nil {
			return nil, err
		}
		bucketName, err := store.String(conf, "bucket")
		if err != nil {
			return nil, err
		}
		options = append(options, option.WithCredentialsFile(creds))
		c, err := storage.NewClient(ctx, options...)
		if err != nil {
			return nil, errors.Wrap(err, "creating cloud storage client")
		}
		return New(c.Bucket(bucketName)), nil
	})
}
