package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-order-fulfillment/internal/config"
	"github.com/ariefcatur/go-order-fulfillment/internal/postgres"
)

func main() {
	drop := flag.Bool("drop", false, "Drop all tables before migration")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN, 2)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	if *drop {
		log.Println("dropping all tables...")
		if err := postgres.Drop(ctx, db); err != nil {
			log.Fatalf("drop: %v", err)
		}
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	log.Println("migration completed")
}
