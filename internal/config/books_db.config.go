package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ConnectDB opens the books database pool with exponential-backoff
// retries so the service survives the database starting after it.
func ConnectDB() (*pgxpool.Pool, error) {
	dbURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_HOST"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_NAME"),
	)

	poolCfg, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse db config: %w", err)
	}
	poolCfg.MaxConns = 40
	poolCfg.MinConns = 5
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	const maxRetries = 5
	delay := 2 * time.Second

	for i := 1; i <= maxRetries; i++ {
		log.Printf("[DB] Attempt %d/%d: connecting to books database...", i, maxRetries)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		pool, connErr := pgxpool.NewWithConfig(ctx, poolCfg)
		if connErr == nil {
			if pingErr := pool.Ping(ctx); pingErr == nil {
				cancel()
				log.Println("[DB] ✅ Connected successfully!")
				return pool, nil
			} else {
				connErr = fmt.Errorf("ping failed: %w", pingErr)
				pool.Close()
			}
		}
		cancel()
		err = connErr

		log.Printf("[DB] ❌ Connection failed: %v", err)
		if i < maxRetries {
			log.Printf("[DB] Retrying in %s...", delay)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return nil, fmt.Errorf("failed to connect to DB after %d attempts: %w", maxRetries, err)
}
