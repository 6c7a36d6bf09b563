package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/bobg/txlog"
	"github.com/bobg/txlog/testutil"
)

func TestStore(t *testing.T) {
	testutil.ReadWrite(context.Background(), t, New(t.TempDir()), testutil.Data(1<<20))
}

func TestAllRefs(t *testing.T) {
	testutil.AllRefs(context.Background(), t, func() txlog.Store {
		dir, err := os.MkdirTemp(t.TempDir(), "filestore")
		if err != nil {
			t.Fatal(err)
		}
		return New(dir)
	})
}

func TestMulti(t *testing.T) {
	testutil.Multi(context.Background(), t, New(t.TempDir()))
}

func TestNoTempFiles(t *testing.T) {
	var (
		ctx = context.Background()
		dir = t.TempDir()
		s   = New(dir)
	)
	for i := 0; i < 2; i++ {
		if _, _, err := txlog.PutNode(ctx, s, txlog.String("x")); err != nil {
			t.Fatal(err)
		}
	}

	var files int
	err := filepath.Walk(filepath.Join(dir, "blocks"), func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			files++
			if filepath.Base(path)[0] == '.' {
				t.Errorf("leftover temp file %s", path)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if files != 1 {
		t.Errorf("got %d files, want 1", files)
	}
}
