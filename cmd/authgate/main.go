package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/authgate/authgate/migrate"
	"github.com/authgate/authgate/seed"
	"github.com/authgate/authgate/server"
	"github.com/authgate/authgate/store"
)

var seedOnStart bool

func init() {
	flag.BoolVar(&seedOnStart, "seed", false, "seed baseline roles, permissions, and test users before serving")
}

func main() {
	flag.Parse()

	cfg := server.LoadConfig()

	// Optionally run DB migrations before the server starts. Configure via
	// environment variables (see migrate.RunFromEnv docs):
	// MIGRATE_ON_START=1 MIGRATE_DRIVER=postgres MIGRATE_DSN=postgres://...
	if err := migrate.RunFromEnv(); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	dsn := cfg.DatabaseDSN()
	if dsn == "" {
		log.Fatal("no database DSN configured; set AUTHGATE_DATABASE__DSN or DB_DSN")
	}
	db, err := store.Open(dsn)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}

	if seedOnStart || isTruthy(os.Getenv("SEED_ON_START")) {
		if err := seed.Run(context.Background(), db); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
		log.Println("baseline data seeded")
	}

	srv, err := server.NewServer(db, cfg)
	if err != nil {
		log.Fatalf("build server: %v", err)
	}

	engine := server.NewGinEngine(srv)
	log.Printf("authgate listening on %s (env=%s)", cfg.Listen, cfg.Env)
	if err := engine.Run(cfg.Listen); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

func isTruthy(v string) bool {
	switch v {
	case "1", "true", "TRUE", "True", "yes", "y":
		return true
	}
	return false
}
