// cmd/historian/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/calebheinzman/tabletop-arcade/internal/cache"
	"github.com/calebheinzman/tabletop-arcade/internal/database"
	"github.com/calebheinzman/tabletop-arcade/internal/historian"
)

func main() {
	if err := database.ConnectDB(); err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	if err := cache.ConnectRedis(); err != nil {
		log.Fatalf("redis connection failed: %v", err)
	}

	cfg := historian.Config{
		Queue:      os.Getenv("FEED_QUEUE_NAME"),
		Inactivity: 10 * time.Minute,
	}
	svc := historian.New(cache.Rdb, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	svc.Run(ctx)
}
