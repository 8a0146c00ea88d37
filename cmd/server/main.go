// cmd/server/main.go
package main

import (
	"log"
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/calebheinzman/tabletop-arcade/internal/cache"
	"github.com/calebheinzman/tabletop-arcade/internal/database"
	"github.com/calebheinzman/tabletop-arcade/internal/handlers"
	"github.com/calebheinzman/tabletop-arcade/internal/middleware"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	if err := database.ConnectDB(); err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	if err := cache.ConnectRedis(); err != nil {
		log.Fatalf("redis connection failed: %v", err)
	}

	mux := http.NewServeMux()

	ss := handlers.NewSessionServer(logger)

	// session REST surface (create, join, start, reset, state)
	mux.Handle("/session/", middleware.LogMiddleware(logger)(ss))

	// session websocket
	mux.Handle("/session/ws/", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.SessionWSHandler(logger, ss),
	)))

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
