package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// Tables in drop order (children first).
var Tables = []string{"order_logs", "orders", "inventories", "product_category", "products", "categories"}

// Migrate creates any missing table and index. It is safe to run repeatedly.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	// No arguments, so pgx sends the script over the simple protocol and the
	// statements run as one implicit transaction.
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	log.Printf("schema applied (%d tables)", len(Tables))
	return nil
}

// Drop removes every table of the schema.
func Drop(ctx context.Context, pool *pgxpool.Pool) error {
	for _, t := range Tables {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+t+" CASCADE"); err != nil {
			return fmt.Errorf("drop %s: %w", t, err)
		}
		log.Printf("dropped table %s", t)
	}
	return nil
}
