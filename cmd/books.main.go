package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"bookkeeping-service/internal/config"
	"bookkeeping-service/internal/server"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env (optional)
	if err := godotenv.Load(); err != nil {
		log.Println("Bookkeeping: No .env file found, relying on system env vars")
	}

	cfg := config.Load()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("🌍 Bookkeeping server starting on %s", cfg.HTTPAddr)
		// This blocks until the server exits
		server.NewBookkeepingServer(cfg)
		errCh <- nil
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Println("🛑 Bookkeeping service shutting down gracefully...")
	case err := <-errCh:
		if err != nil {
			log.Fatalf("Bookkeeping service failed: %v", err)
		}
	}
}
