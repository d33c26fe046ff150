package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/salinmt/salin/internal/api/middleware"
	"github.com/salinmt/salin/internal/cache"
	"github.com/salinmt/salin/internal/domain"
	"github.com/salinmt/salin/internal/store"
)

const (
	dashboardCacheKey = "dashboard"
	dashboardCacheTTL = time.Minute
	recentLimit       = 5
)

// DashboardHandler aggregates the home-screen numbers in one response.
type DashboardHandler struct {
	store store.Store
	cache *cache.Cache
	log   zerolog.Logger
}

func NewDashboardHandler(s store.Store, c *cache.Cache, log zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{store: s, cache: c, log: log}
}

type dashboardBudget struct {
	ID     *uuid.UUID      `json:"id"`
	Amount decimal.Decimal `json:"amount"`
	Spent  decimal.Decimal `json:"spent"`
}

type dashboardResponse struct {
	TotalBalance       decimal.Decimal      `json:"total_balance"`
	RecentTransactions []domain.Transaction `json:"recent_transactions"`
	Budget             dashboardBudget      `json:"budget"`
}

// Get assembles the dashboard: total balance across non-archived accounts,
// the five most recent transactions and this month's budget with spending.
// The reads run concurrently and the result is cached per user; every write
// handler invalidates the user's cache, so a hit is never stale.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)

	var resp dashboardResponse
	if h.cache.Get(r.Context(), userID.String(), dashboardCacheKey, &resp) {
		middleware.WriteJSON(w, http.StatusOK, resp)
		return
	}

	today := domain.Today()
	year, month := today.Time().Year(), int(today.Time().Month())
	start, end := domain.MonthWindow(year, month, today)

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		total, err := h.store.SumBalances(ctx, userID)
		if err != nil {
			return err
		}
		resp.TotalBalance = total
		return nil
	})
	g.Go(func() error {
		recent, err := h.store.ListRecentTransactions(ctx, userID, recentLimit)
		if err != nil {
			return err
		}
		resp.RecentTransactions = recent
		return nil
	})
	g.Go(func() error {
		budget, err := h.store.FindBudgetForMonth(ctx, userID, month, year)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		resp.Budget.ID = &budget.ID
		resp.Budget.Amount = budget.Amount
		return nil
	})
	g.Go(func() error {
		spent, err := h.store.SumExpenses(ctx, userID, start, end)
		if err != nil {
			return err
		}
		resp.Budget.Spent = spent
		return nil
	})
	if err := g.Wait(); err != nil {
		respondError(h.log, w, err, "Dashboard")
		return
	}
	if resp.RecentTransactions == nil {
		resp.RecentTransactions = []domain.Transaction{}
	}

	h.cache.Set(r.Context(), userID.String(), dashboardCacheKey, resp, dashboardCacheTTL)
	middleware.WriteJSON(w, http.StatusOK, resp)
}
