package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/contatogonetwork/urban-space-broccoli/internal/store"
)

// dbCheckCmd represents the db-check command
var dbCheckCmd = &cobra.Command{
	Use:   "db-check",
	Short: "Check database connectivity and the price history schema",
	Long: `Connect to DATABASE_URL through database/sql, report the server version
and verify that the tables the price service reads exist.`,
	Args: cobra.NoArgs,
	RunE: runDBCheck,
}

func init() {
	rootCmd.AddCommand(dbCheckCmd)
}

func runDBCheck(cmd *cobra.Command, args []string) error {
	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to reach database: %w", err)
	}

	var version string
	if err := db.QueryRowContext(ctx, "SHOW server_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to query server version: %w", err)
	}
	fmt.Printf("Connected: PostgreSQL %s\n", version)

	missing := 0
	for _, table := range store.RequiredTables {
		var exists bool
		if err := db.QueryRowContext(ctx, "SELECT to_regclass($1) IS NOT NULL", table).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check table %s: %w", table, err)
		}
		status := "ok"
		if !exists {
			status = "MISSING"
			missing++
		}
		fmt.Printf("  %-16s %s\n", table, status)
	}

	if missing > 0 {
		return fmt.Errorf("%d required table(s) missing", missing)
	}

	var observations int64
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM price_history").Scan(&observations); err != nil {
		return fmt.Errorf("failed to count price history: %w", err)
	}
	fmt.Printf("Price observations: %d\n", observations)
	return nil
}
