// Command migrate runs goose commands against the configured MySQL database.
//
//	migrate up | down | status | redo | version | up-to VERSION | down-to VERSION
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/Abduallh5Mohamed/FreeLance-25-sub000/internal/config"
	"github.com/Abduallh5Mohamed/FreeLance-25-sub000/internal/database"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s COMMAND [ARGS]\n", os.Args[0])
		fmt.Fprintln(flag.CommandLine.Output(), "commands: up, down, status, redo, version, up-to VERSION, down-to VERSION")
	}
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.StoreDriver != config.DriverMySQL {
		log.Fatalf("STORE_DRIVER is %q; migrations only apply to mysql", cfg.StoreDriver)
	}

	ctx := context.Background()
	db, err := database.Open(ctx, cfg.DSN, database.Options{MaxOpenConns: 1, MaxIdleConns: 1})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.RunMigrations(ctx, db, flag.Arg(0), flag.Args()[1:]...); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
}
