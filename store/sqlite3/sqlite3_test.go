package sqlite3

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/bobg/txlog"
	"github.com/bobg/txlog/testutil"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	testutil.ReadWrite(ctx, t, newTestStore(ctx, t), testutil.Data(1<<20))
}

func TestAllRefs(t *testing.T) {
	ctx := context.Background()
	testutil.AllRefs(ctx, t, func() txlog.Store {
		return newTestStore(ctx, t)
	})
}

func TestMulti(t *testing.T) {
	ctx := context.Background()
	testutil.Multi(ctx, t, newTestStore(ctx, t))
}

func newTestStore(ctx context.Context, t *testing.T) *Store {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "txlogtest.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	s, err := New(ctx, db)
	if err != nil {
		t.Fatal(err)
	}
	return s
}
