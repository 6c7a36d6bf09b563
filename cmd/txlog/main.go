// Command txlog builds, inspects, and moves content-addressed transaction containers.
//
// Usage:
//
//	txlog write [-o OUT] [-raw | -split] [FILE ...]
//	txlog get -car FILE [-cid CID] [-verify]
//	txlog ls -car FILE
//	txlog cat -car FILE [-cid CID]
//	txlog import -config CONF FILE
//	txlog export -config CONF -root CID [-o OUT]
//	txlog sync CONF CONF [CONF ...]
//	txlog serve -config CONF [-addr ADDR]
//
// Config files are JSON (comments allowed) describing a block store,
// e.g. {"type": "sqlite3", "conn": "blocks.db"}.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/bobg/subcmd"

	_ "github.com/bobg/txlog/store/bt"
	_ "github.com/bobg/txlog/store/compress"
	_ "github.com/bobg/txlog/store/file"
	_ "github.com/bobg/txlog/store/gcs"
	_ "github.com/bobg/txlog/store/logging"
	_ "github.com/bobg/txlog/store/lru"
	_ "github.com/bobg/txlog/store/mem"
	_ "github.com/bobg/txlog/store/pg"
	_ "github.com/bobg/txlog/store/replica"
	_ "github.com/bobg/txlog/store/rpc"
	_ "github.com/bobg/txlog/store/sqlite3"
)

type maincmd struct{}

func main() {
	flag.Parse()

	ctx := context.Background()
	err := subcmd.Run(ctx, maincmd{}, flag.Args())
	if err != nil {
		log.Fatal(err)
	}
}

func (c maincmd) Subcmds() map[string]subcmd.Subcmd {
	return map[string]subcmd.Subcmd{
		"cat":    c.cat,
		"export": c.export,
		"get":    c.get,
		"import": c.importCar,
		"ls":     c.ls,
		"serve":  c.serve,
		"sync":   c.sync,
		"write":  c.write,
	}
}
