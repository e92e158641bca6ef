// Command migrate manages the CasaFunko database schema from the command
// line. The server applies pending migrations on boot; this tool exists
// for rolling back and for migrating a database ahead of a deploy.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/casafunko/api/internal/database"
)

func main() {
	direction := flag.String("direction", "up", "migration direction, up or down")
	dbURL := flag.String("db", "", "Postgres connection URL (defaults to DATABASE_URL)")
	steps := flag.Int("steps", 1, "number of migrations to roll back (down only)")
	flag.Parse()

	if *dbURL == "" {
		*dbURL = os.Getenv("DATABASE_URL")
	}
	if *dbURL == "" {
		log.Fatal("no database URL: pass -db or set DATABASE_URL")
	}

	switch *direction {
	case "up":
		if err := database.Migrate(*dbURL); err != nil {
			log.Fatalf("migrating up: %v", err)
		}
		fmt.Println("schema is up to date")
	case "down":
		if *steps < 1 {
			*steps = 1
		}
		for i := 0; i < *steps; i++ {
			if err := database.MigrateDown(*dbURL); err != nil {
				log.Fatalf("rolling back (step %d of %d): %v", i+1, *steps, err)
			}
		}
		fmt.Printf("rolled back %d migration(s)\n", *steps)
	default:
		log.Fatalf("unknown direction %q: use up or down", *direction)
	}
}
