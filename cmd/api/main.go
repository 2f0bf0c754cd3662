package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"dinesight/internal/cache"
	"dinesight/internal/config"
	"dinesight/internal/database"
	"dinesight/internal/middleware"
	"dinesight/internal/modules/auth"
	jwtsvc "dinesight/internal/pkg/jwt"
	"dinesight/internal/pkg/response"
	"dinesight/internal/repository"
	"dinesight/internal/session"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if !cfg.IsProd() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}

	cacheStore := newCacheStore(cfg)

	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	tokenRepo := repository.NewRefreshTokenRepository(db)

	sessionStore := session.NewStore(sessionRepo, tokenRepo, userRepo, cacheStore, cfg.SessionTTL)
	j := jwtsvc.New(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	authService := auth.NewService(userRepo, sessionStore, j, cfg.RefreshTokenTTL)
	authHandler := auth.NewHandler(authService)

	if cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log.Logger))
	r.Use(middleware.CORS())

	r.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	loginLimiter := middleware.RateLimit(cacheStore, int64(cfg.LoginRateLimit), cfg.LoginRateWindow)

	v1 := r.Group("/api/v1")
	{
		// public, with rate limiting on the credential endpoints
		public := v1.Group("")
		public.Use(loginLimiter)
		authHandler.RegisterPublicRoutes(public)

		// protected
		protected := v1.Group("")
		protected.Use(middleware.RequireAuth(j))
		authHandler.RegisterProtectedRoutes(protected)

		// admin
		admin := v1.Group("/admin")
		admin.Use(middleware.RequireAuth(j), middleware.AdminOnly())
		{
			admin.GET("/users/:id", adminGetUser(userRepo))
		}
	}

	log.Info().Str("addr", cfg.HTTPAddr).Str("env", cfg.AppEnv).Msg("starting api server")
	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

// newCacheStore prefers redis and falls back to the in-process store when no
// address is configured. Prod requires redis, enforced by config validation.
func newCacheStore(cfg *config.Config) cache.Store {
	if cfg.RedisAddr == "" {
		log.Warn().Msg("REDIS_ADDR not set, using in-memory cache")
		return cache.NewMemoryStore()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store, err := cache.NewRedisStore(ctx, cache.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, "dinesight")
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	return store
}

func adminGetUser(users *repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := users.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			response.Error(c, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
			return
		}
		user.PasswordHash = ""
		response.Success(c, http.StatusOK, gin.H{"user": user})
	}
}
