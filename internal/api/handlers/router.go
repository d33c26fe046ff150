package handlers

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/salinmt/salin/internal/api/middleware"
	"github.com/salinmt/salin/internal/auth"
	"github.com/salinmt/salin/internal/cache"
	"github.com/salinmt/salin/internal/store"
)

// RouterConfig carries everything the routes need. Optional services
// (Parser, Mailer, Google) may be nil; their routes then answer 503.
type RouterConfig struct {
	Store         store.Store
	Ping          func(ctx context.Context) error
	Cache         *cache.Cache
	Tokens        *auth.Tokens
	Google        *auth.GoogleOAuth
	Parser        TransactionParser
	Mailer        Mailer
	ClientURL     string
	FeedbackEmail string
	Log           zerolog.Logger
}

// NewRouter assembles the route table. Everything except /health and the
// /auth routes sits behind the JWT middleware.
func NewRouter(cfg RouterConfig) http.Handler {
	authHandler := NewAuthHandler(cfg.Store, cfg.Store, cfg.Tokens, cfg.Google, cfg.Mailer, cfg.ClientURL, cfg.Log)
	accounts := NewAccountsHandler(cfg.Store, cfg.Cache, cfg.Log)
	categories := NewCategoriesHandler(cfg.Store, cfg.Cache, cfg.Log)
	transactions := NewTransactionsHandler(cfg.Store, cfg.Cache, cfg.Log)
	budgets := NewBudgetsHandler(cfg.Store, cfg.Store, cfg.Cache, cfg.Log)
	dashboard := NewDashboardHandler(cfg.Store, cfg.Cache, cfg.Log)
	parse := NewParseHandler(cfg.Parser, cfg.Store, cfg.Log)
	user := NewUserHandler(cfg.Store, cfg.Log)
	feedback := NewFeedbackHandler(cfg.Store, cfg.Mailer, cfg.FeedbackEmail, cfg.Log)

	requireAuth := middleware.Auth(cfg.Tokens)
	protected := func(h http.HandlerFunc) http.Handler { return requireAuth(h) }

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if cfg.Ping != nil {
			if err := cfg.Ping(r.Context()); err != nil {
				cfg.Log.Error().Err(err).Msg("health check failed")
				middleware.WriteError(w, http.StatusServiceUnavailable, "database unreachable")
				return
			}
		}
		middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("POST /auth/register", authHandler.Register)
	mux.HandleFunc("POST /auth/login", authHandler.Login)
	mux.HandleFunc("POST /auth/forgot-password", authHandler.ForgotPassword)
	mux.HandleFunc("POST /auth/reset-password", authHandler.ResetPassword)
	mux.HandleFunc("GET /auth/google", authHandler.GoogleRedirect)
	mux.HandleFunc("POST /auth/oauth/callback", authHandler.GoogleCallback)

	mux.Handle("GET /accounts", protected(accounts.List))
	mux.Handle("POST /accounts", protected(accounts.Create))
	mux.Handle("GET /accounts/{id}", protected(accounts.Get))
	mux.Handle("PUT /accounts/{id}", protected(accounts.Update))
	mux.Handle("DELETE /accounts/{id}", protected(accounts.Delete))

	mux.Handle("GET /categories", protected(categories.List))
	mux.Handle("POST /categories", protected(categories.Create))
	mux.Handle("GET /categories/type/{type}", protected(categories.ListByType))
	mux.Handle("PUT /categories/{id}", protected(categories.Update))
	mux.Handle("DELETE /categories/{id}", protected(categories.Delete))

	mux.Handle("GET /transactions", protected(transactions.List))
	mux.Handle("POST /transactions", protected(transactions.Create))
	mux.Handle("GET /transactions/{id}", protected(transactions.Get))
	mux.Handle("PUT /transactions/{id}", protected(transactions.Update))
	mux.Handle("DELETE /transactions/{id}", protected(transactions.Delete))

	mux.Handle("POST /budget", protected(budgets.Create))
	mux.Handle("GET /budget", protected(budgets.List))
	mux.Handle("GET /budget/current", protected(budgets.Current))
	mux.Handle("PUT /budget/{id}", protected(budgets.Update))
	mux.Handle("DELETE /budget/{id}", protected(budgets.Delete))

	mux.Handle("GET /dashboard", protected(dashboard.Get))
	mux.Handle("POST /parse", protected(parse.Parse))

	mux.Handle("GET /user", protected(user.Get))
	mux.Handle("PUT /user", protected(user.Update))

	mux.Handle("POST /feedback", protected(feedback.Submit))

	return mux
}
