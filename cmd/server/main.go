package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pesarelay/config"
	"pesarelay/internal/database"
	"pesarelay/internal/router"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("no .env file found, using system environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("configuration invalid")
	}
	if cfg.Server.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	engine := router.Setup(cfg, db)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server shutdown failed")
	}
	log.Info().Msg("server stopped")
}
