package main

import (
	"flag"

	log "github.com/sirupsen/logrus"

	"devscope/pkg/config"
)

func main() {
	down := flag.Bool("down", false, "roll back the last migration instead of migrating up")
	flag.Parse()

	log.SetFormatter(&log.JSONFormatter{})
	cfg := config.LoadAppConfig()

	if err := config.InitDB(cfg.Database); err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}

	run := config.ExecuteMigrations
	if *down {
		run = config.RollbackMigration
	}
	if err := run(cfg.MigrationsDir); err != nil {
		log.WithError(err).Fatal("Migration failed")
	}
}
