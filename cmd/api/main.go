package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/salinmt/salin/internal/aiparse"
	"github.com/salinmt/salin/internal/api/handlers"
	"github.com/salinmt/salin/internal/api/middleware"
	"github.com/salinmt/salin/internal/auth"
	"github.com/salinmt/salin/internal/cache"
	"github.com/salinmt/salin/internal/logger"
	"github.com/salinmt/salin/internal/mail"
	"github.com/salinmt/salin/internal/store/postgres"
)

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func main() {
	var (
		port          = flag.String("port", envOr("PORT", "8080"), "HTTP server port")
		databaseURL   = flag.String("database-url", os.Getenv("DATABASE_URL"), "Postgres connection string (or set DATABASE_URL)")
		redisURL      = flag.String("redis-url", os.Getenv("REDIS_URL"), "Redis connection string, optional (or set REDIS_URL)")
		jwtSecret     = flag.String("jwt-secret", os.Getenv("JWT_SECRET"), "JWT signing secret (or set JWT_SECRET)")
		geminiKey     = flag.String("gemini-api-key", os.Getenv("GEMINI_API_KEY"), "Gemini API key for transaction parsing, optional")
		resendKey     = flag.String("resend-api-key", os.Getenv("RESEND_API_KEY"), "Resend API key for outgoing mail, optional")
		fromEmail     = flag.String("from-email", os.Getenv("FROM_EMAIL"), "Sender address for outgoing mail")
		feedbackEmail = flag.String("feedback-email", os.Getenv("FEEDBACK_EMAIL"), "Inbox that receives user feedback")
		clientURL     = flag.String("client-url", envOr("CLIENT_URL", "http://localhost:3000"), "Base URL of the web client, used in emails and OAuth")
		googleID      = flag.String("google-client-id", os.Getenv("GOOGLE_CLIENT_ID"), "Google OAuth client ID, optional")
		googleSecret  = flag.String("google-client-secret", os.Getenv("GOOGLE_CLIENT_SECRET"), "Google OAuth client secret, optional")
	)
	flag.Parse()

	log := logger.New()
	ctx := context.Background()

	if *databaseURL == "" {
		log.Fatal().Msg("DATABASE_URL is required")
	}
	if *jwtSecret == "" {
		log.Fatal().Msg("JWT_SECRET is required")
	}

	db, err := postgres.New(ctx, *databaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Postgres")
	}
	defer db.Close()

	var c *cache.Cache
	if *redisURL != "" {
		c, err = cache.New(ctx, *redisURL)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable - responses will not be cached")
			c = nil
		} else {
			defer c.Close()
		}
	} else {
		log.Warn().Msg("No REDIS_URL configured - responses will not be cached")
	}

	var parser handlers.TransactionParser
	if *geminiKey != "" {
		p, err := aiparse.New(ctx, *geminiKey)
		if err != nil {
			log.Warn().Err(err).Msg("Gemini unavailable - AI parsing disabled")
		} else {
			parser = p
		}
	} else {
		log.Warn().Msg("No GEMINI_API_KEY configured - AI parsing disabled")
	}

	var mailer handlers.Mailer
	if s := mail.NewSender(*resendKey, *fromEmail); s != nil {
		mailer = s
	} else {
		log.Warn().Msg("No RESEND_API_KEY configured - password reset and feedback email disabled")
	}

	google := auth.NewGoogleOAuth(*googleID, *googleSecret, *clientURL+"/auth/callback")
	if google == nil {
		log.Warn().Msg("No Google OAuth credentials configured - Google sign-in disabled")
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		Store:         db,
		Ping:          db.Ping,
		Cache:         c,
		Tokens:        auth.NewTokens(*jwtSecret),
		Google:        google,
		Parser:        parser,
		Mailer:        mailer,
		ClientURL:     *clientURL,
		FeedbackEmail: *feedbackEmail,
		Log:           log,
	})

	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(router),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", *port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
