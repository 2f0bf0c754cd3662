package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"dinesight/internal/database"
	"dinesight/internal/domain"
	"dinesight/internal/pkg/password"
	"dinesight/internal/pkg/validator"
	"dinesight/internal/repository"
)

type seedInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

// Seeds the initial admin account. Safe to run repeatedly.
func main() {
	_ = godotenv.Load()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal().Msg("DATABASE_URL is required")
	}
	email := os.Getenv("SEED_ADMIN_EMAIL")
	pass := os.Getenv("SEED_ADMIN_PASSWORD")
	if errs := validator.Validate(seedInput{Email: email, Password: pass}); errs != nil {
		log.Fatal().Interface("errors", errs).Msg("SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD must be a valid email and a password of 6+ chars")
	}

	db, err := database.Connect(databaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect failed")
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	users := repository.NewUserRepository(db)

	exists, err := users.ExistsByEmail(ctx, email)
	if err != nil {
		log.Fatal().Err(err).Msg("lookup failed")
	}
	if exists {
		log.Info().Str("email", email).Msg("admin already present, nothing to do")
		return
	}

	admin := &domain.User{
		Email:        email,
		PasswordHash: password.Hash(pass),
		FirstName:    "Admin",
		LastName:     "User",
		Role:         domain.RoleAdmin,
		Status:       domain.StatusActive,
	}
	if err := users.Create(ctx, admin); err != nil {
		log.Fatal().Err(err).Msg("admin creation failed")
	}

	log.Info().Str("email", email).Str("id", admin.ID).Msg("admin created")
}
