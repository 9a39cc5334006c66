// Command migrate прогоняет goose-миграции схемы NomNom.
package main

import (
	"log"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/fdg312/nomnom/internal/config"
	"github.com/fdg312/nomnom/internal/dbmigrate"
)

var allowedCommands = map[string]bool{
	"up":     true,
	"down":   true,
	"status": true,
}

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: go run ./cmd/migrate [up|down|status]")
	}

	command := os.Args[1]
	if !allowedCommands[command] {
		log.Fatalf("unsupported command %q (allowed: up, down, status)", command)
	}

	cfg := config.Load()
	dbURL, source, warning, err := dbmigrate.SelectDatabaseURL(cfg, false)
	if err != nil {
		log.Fatal(err)
	}

	if warning != "" {
		log.Printf("WARN migrate: %s", warning)
	}
	log.Printf("migrate: command=%s using=%s dir=%s", command, source, dbmigrate.DefaultMigrationsDir)

	if err := dbmigrate.Run(command, dbURL, dbmigrate.DefaultMigrationsDir); err != nil {
		log.Fatal(err)
	}

	log.Printf("migrate: %s completed", command)
}
