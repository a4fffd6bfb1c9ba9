package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/anil-gorti/wone-india-race-registry-builder/internal/api"
	"github.com/anil-gorti/wone-india-race-registry-builder/internal/db"
	"github.com/anil-gorti/wone-india-race-registry-builder/internal/ingest"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is required")
	}

	pool, err := db.Connect(ctx, dsn)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	registry, err := ingest.LoadRegistry("config/platforms.yaml")
	if err != nil {
		log.Fatalf("load registry: %v", err)
	}

	store := db.NewStore(pool)
	fetcher := ingest.NewRateLimitedFetcher(ingest.FetchConfig{})
	pipeline := ingest.NewPipeline(registry, fetcher, ingestYears())
	pipeline.Store = store

	server := api.NewServer(store, pipeline)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("[server] listening on :%s", port)
	if err := server.Start(":" + port); err != nil {
		log.Fatalf("server: %v", err)
	}
}

// ingestYears reads INGEST_YEARS ("2017-2025") or defaults to the last
// three seasons plus the next one.
func ingestYears() []int {
	raw := strings.TrimSpace(os.Getenv("INGEST_YEARS"))
	if raw != "" {
		if parts := strings.SplitN(raw, "-", 2); len(parts) == 2 {
			start, err1 := strconv.Atoi(parts[0])
			end, err2 := strconv.Atoi(parts[1])
			if err1 == nil && err2 == nil && start <= end {
				var years []int
				for y := start; y <= end; y++ {
					years = append(years, y)
				}
				return years
			}
		}
		log.Printf("[server] invalid INGEST_YEARS %q, using default", raw)
	}

	current := time.Now().Year()
	return []int{current - 2, current - 1, current, current + 1}
}
