package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/radieske/spin-wheel-settlement/internal/shared/config"
	"github.com/radieske/spin-wheel-settlement/internal/shared/db"
	"github.com/radieske/spin-wheel-settlement/internal/shared/logger"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: migrate [-dsn DSN] up|down|version")
	flag.PrintDefaults()
}

func main() {
	cfg := config.Load()
	dsn := flag.String("dsn", cfg.PostgresDSN, "postgres DSN")
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}

	log, err := logger.New("migrate", cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	pg, err := db.ConnectPostgres(*dsn)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	switch cmd := flag.Arg(0); cmd {
	case "up":
		if err := db.RunMigrations(pg); err != nil {
			log.Fatal("migrate up", zap.Error(err))
		}
		log.Info("migrations applied")
	case "down":
		if err := db.RollbackMigration(pg); err != nil {
			log.Fatal("migrate down", zap.Error(err))
		}
		log.Info("last migration rolled back")
	case "version":
		v, dirty, err := db.MigrationVersion(pg)
		if err != nil {
			log.Fatal("migrate version", zap.Error(err))
		}
		log.Info("schema version", zap.Uint("version", v), zap.Bool("dirty", dirty))
	default:
		log.Error("unknown command", zap.String("command", cmd))
		usage()
		os.Exit(2)
	}
}
