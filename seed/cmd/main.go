package main

import (
	"context"
	"fmt"
	"os"

	"github.com/authgate/authgate/seed"
	"github.com/authgate/authgate/server"
	"github.com/authgate/authgate/store"
)

func main() {
	cfg := server.LoadConfig()
	dsn := cfg.DatabaseDSN()
	if dsn == "" {
		fmt.Fprintln(os.Stderr, "seed: no database DSN configured")
		os.Exit(1)
	}
	db, err := store.Open(dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed: open database: %v\n", err)
		os.Exit(1)
	}
	if err := seed.Run(context.Background(), db); err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("seed completed successfully")
}
