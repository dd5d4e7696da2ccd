// cmd/api/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"pustaka/internal/api"
	"pustaka/internal/db"
	"pustaka/internal/telemetry"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using system environment")
	}

	ctx := context.Background()

	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "" {
		shutdown, err := telemetry.Setup(ctx, "pustaka")
		if err != nil {
			log.Fatalf("failed to set up telemetry: %v", err)
		}
		defer shutdown(context.Background())
	}

	conn, err := db.Open(ctx)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer conn.Close()

	if err := db.Migrate(ctx, conn); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	router, err := api.New(conn, getEnvInt("RATE_LIMIT_PER_SECOND", 50))
	if err != nil {
		log.Fatalf("failed to build router: %v", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("pustaka listening on port %s", port)
	log.Fatal(server.ListenAndServe())
}

func getEnvInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
