package main

import (
	"errors"
	"flag"
	"log"
	"os"
	"strconv"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/joho/godotenv"

	"github.com/noah-isme/toko-billing/internal/db"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}
	flag.Usage = func() {
		log.Printf("usage: migrate [up|down|version|force N]")
	}
	flag.Parse()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}
	m, err := db.NewMigrator(dbURL)
	if err != nil {
		log.Fatalf("open migrator: %v", err)
	}
	defer m.Close()

	cmd := flag.Arg(0)
	switch cmd {
	case "", "up":
		err = m.Up()
	case "down":
		err = m.Steps(-1)
	case "force":
		v, convErr := strconv.Atoi(flag.Arg(1))
		if convErr != nil {
			log.Fatalf("force needs a version: %v", convErr)
		}
		err = m.Force(v)
	case "version":
		v, dirty, verr := m.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			log.Println("no migrations applied")
			return
		}
		if verr != nil {
			log.Fatalf("read version: %v", verr)
		}
		log.Printf("version=%d dirty=%t", v, dirty)
		return
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatalf("migrate %s: %v", cmd, err)
	}
	log.Printf("migrate %s: done", valueOr(cmd, "up"))
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
