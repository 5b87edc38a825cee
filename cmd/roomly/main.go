package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/roomly/roomly/internal/database"
	"github.com/roomly/roomly/internal/logging"
	"github.com/roomly/roomly/internal/push"
	"github.com/roomly/roomly/internal/server"
)

func main() {
	logger := logging.Setup(os.Getenv("ROOMLY_LOG_LEVEL"))

	port := os.Getenv("ROOMLY_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("ROOMLY_DB_PATH")
	if dbPath == "" {
		dbPath = "roomly.db"
	}

	secret := os.Getenv("ROOMLY_AUTH_SECRET")
	if secret == "" {
		logger.Error("ROOMLY_AUTH_SECRET is required")
		os.Exit(1)
	}

	db, err := database.Open(dbPath)
	if err != nil {
		logger.Error("open database", "path", dbPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var loc *time.Location
	if tz := os.Getenv("ROOMLY_TIMEZONE"); tz != "" {
		loc, err = time.LoadLocation(tz)
		if err != nil {
			logger.Error("invalid timezone", "tz", tz, "error", err)
			os.Exit(1)
		}
	}

	srv := server.New(db, server.Config{
		AuthSecret: []byte(secret),
		Push: push.Config{
			VAPIDPublicKey:  os.Getenv("ROOMLY_VAPID_PUBLIC_KEY"),
			VAPIDPrivateKey: os.Getenv("ROOMLY_VAPID_PRIVATE_KEY"),
		},
		StreakLocation: loc,
	}, logger)

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Periodic rate limiter cleanup so stale windows do not accumulate
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
			case <-cleanupCtx.Done():
				return
			}
		}
	}()

	go func() {
		fmt.Printf("Roomly running at http://localhost:%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
