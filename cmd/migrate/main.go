package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"ms-booking/internal/config"
	"ms-booking/internal/database"
	"ms-booking/internal/database/migrations"
	"ms-booking/internal/database/seed"
	"ms-booking/internal/logger"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: migrate [-days N] up|down|seed\n")
	flag.PrintDefaults()
}

func main() {
	days := flag.Int("days", 14, "number of days of schedules to seed, starting today")
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg := config.Load()

	log, err := logger.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	if cfg.Database.Endpoint == "" {
		log.Fatal("CONFIG", "POSTGRES_DSN not set")
	}

	ctx := context.Background()
	bunDB, err := database.Connect(ctx, cfg.Database, database.DefaultConnectOptions(), log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}

	runner := migrations.NewRunner(bunDB, migrations.MigrateOptions{MigrationsDir: cfg.Database.MigrationsDir}, log)
	// Closing the runner also closes bunDB.
	defer runner.Close()

	switch flag.Arg(0) {
	case "up":
		err = runner.RunMigrations()
	case "down":
		err = runner.MigrateDown()
	case "seed":
		err = seed.Data(ctx, bunDB, *days, time.Now(), cfg.Booking.Location(), log)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("%s failed: %v", flag.Arg(0), err))
	}
	log.Info("DATABASE", fmt.Sprintf("%s completed", flag.Arg(0)))
}
