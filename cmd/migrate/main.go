package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/salinmt/salin/internal/logger"
	"github.com/salinmt/salin/internal/store/postgres"
)

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "Postgres connection string (or set DATABASE_URL)")
		timeout     = flag.Duration("timeout", 2*time.Minute, "How long to wait for the migration to finish")
	)
	flag.Parse()

	log := logger.New()

	if *databaseURL == "" {
		log.Fatal().Msg("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, err := postgres.New(ctx, *databaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Postgres")
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}
	log.Info().Msg("Schema is up to date")
}
