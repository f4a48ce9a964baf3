package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/laneboard/laneboard/internal/auth"
	"github.com/laneboard/laneboard/internal/config"
	"github.com/laneboard/laneboard/internal/db"
	"github.com/laneboard/laneboard/internal/logging"
	"github.com/laneboard/laneboard/internal/server"
)

var migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")

func main() {
	flag.Parse()
	_ = godotenv.Load()

	cfg := config.Load()
	log := logging.Init(cfg.Env, cfg.LogFile)
	// migrate-only needs the DSN but no token verification source.
	if !*migrateOnlyFlag {
		if err := cfg.Validate(); err != nil {
			log.WithError(err).Fatal("invalid configuration")
		}
	}

	dbConn, err := db.ConnectAndMigrate(cfg.DatabaseDSN)
	if err != nil {
		log.WithError(err).Fatal("database connection failed")
	}
	if *migrateOnlyFlag {
		log.Info("migrations completed; exiting as requested")
		return
	}

	verifier := auth.NewVerifier(cfg)
	handler := server.New(dbConn, verifier, cfg.CORSOrigins)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithFields(map[string]any{"env": cfg.Env, "addr": srv.Addr}).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("error during shutdown")
	}
	log.Info("server stopped")
}
