//go:build ignore

package main

import (
	"context"
	"fmt"
	"os"

	"stockroom/internal/config"
	"stockroom/internal/database"
	"stockroom/internal/events"
	"stockroom/internal/repository"
	"stockroom/internal/service"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to load configuration: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.WarnLevel)

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	var dbName string
	err = pool.QueryRow(ctx, "SELECT current_database()").Scan(&dbName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "QueryRow failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Successfully connected to database: %s\n", dbName)

	fmt.Println("\nRow counts:")
	for _, table := range []string{"products", "stock_movements", "profiles", "auth_users"} {
		var count int64
		err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+pgx.Identifier{table}.Sanitize()).Scan(&count)
		if err != nil {
			fmt.Printf("  - %-16s missing (%v)\n", table, err)
			continue
		}
		fmt.Printf("  - %-16s %d\n", table, count)
	}

	stock := service.NewStockService(
		repository.NewProductRepository(pool, logger),
		repository.NewMovementRepository(pool, logger),
		events.NewBus(logger),
		logger,
	)
	drift, err := stock.Drift(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ledger check failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nProducts whose qty differs from the ledger: %d\n", len(drift))
	for _, d := range drift {
		fmt.Printf("  - %s %q qty=%d ledger=%d\n", d.ProductID, d.Name, d.Qty, d.LedgerSum)
	}
}
