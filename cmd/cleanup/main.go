package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"dinesight/internal/database"
	"dinesight/internal/repository"
)

// Removes expired sessions and refresh tokens. Meant to run from cron.
func main() {
	_ = godotenv.Load()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal().Msg("DATABASE_URL is required")
	}

	db, err := database.Connect(databaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	now := time.Now()

	sessions, err := repository.NewSessionRepository(db).DeleteExpired(ctx, now)
	if err != nil {
		log.Fatal().Err(err).Msg("session cleanup failed")
	}

	tokens, err := repository.NewRefreshTokenRepository(db).DeleteExpired(ctx, now)
	if err != nil {
		log.Fatal().Err(err).Msg("refresh token cleanup failed")
	}

	log.Info().
		Int64("sessions", sessions).
		Int64("refresh_tokens", tokens).
		Msg("auth cleanup completed")
}
