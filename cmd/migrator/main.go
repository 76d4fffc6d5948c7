package main

import (
	"flag"
	"gcoin-shop/internal/repository/postgres"
	"github.com/joho/godotenv"
	"log/slog"
	"os"
)

func main() {
	down := flag.Bool("down", false, "roll back all migrations")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	_ = godotenv.Load(".env.local")

	conn := os.Getenv("POSTGRES_CONN")
	if conn == "" {
		log.Error("POSTGRES_CONN is not set")
		os.Exit(1)
	}

	if err := postgres.Migrate(conn, *down); err != nil {
		log.Error("migration run failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("migration run finished", slog.Bool("down", *down))
}
