package mem

import (
	"context"
	"testing"

	"github.com/bobg/txlog"
	"github.com/bobg/txlog/testutil"
)

func TestStore(t *testing.T) {
	testutil.ReadWrite(context.Background(), t, New(), testutil.Data(1<<20))
}

func TestAllRefs(t *testing.T) {
	testutil.AllRefs(context.Background(), t, func() txlog.Store { return New() })
}

func TestMulti(t *testing.T) {
	testutil.Multi(context.Background(), t, New())
}
