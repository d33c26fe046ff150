package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/salinmt/salin/internal/api/middleware"
	"github.com/salinmt/salin/internal/cache"
	"github.com/salinmt/salin/internal/domain"
	"github.com/salinmt/salin/internal/store"
)

// BudgetsHandler serves the /budget routes.
type BudgetsHandler struct {
	budgets      store.BudgetRepository
	transactions store.TransactionRepository
	cache        *cache.Cache
	log          zerolog.Logger
}

func NewBudgetsHandler(budgets store.BudgetRepository, transactions store.TransactionRepository, c *cache.Cache, log zerolog.Logger) *BudgetsHandler {
	return &BudgetsHandler{budgets: budgets, transactions: transactions, cache: c, log: log}
}

// Create sets the budget for a month. One budget per user, month and year.
func (h *BudgetsHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)

	var cmd domain.CreateBudgetCommand
	if err := decodeJSON(r, &cmd); err != nil {
		respondError(h.log, w, err, "Budget")
		return
	}
	if cmd.Year == 0 {
		cmd.Year = time.Now().Year()
	}
	if err := cmd.Validate(); err != nil {
		respondError(h.log, w, err, "Budget")
		return
	}

	budget := &domain.Budget{
		ID:     uuid.New(),
		UserID: userID,
		Amount: cmd.Amount,
		Month:  cmd.Month,
		Year:   cmd.Year,
	}
	if err := h.budgets.InsertBudget(r.Context(), budget); err != nil {
		respondError(h.log, w, err, "Budget")
		return
	}
	h.cache.Invalidate(r.Context(), userID.String())

	middleware.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "Budget created successfully",
		"budget":  budget,
	})
}

// List returns all of the user's budgets.
func (h *BudgetsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)

	budgets, err := h.budgets.ListBudgets(r.Context(), userID)
	if err != nil {
		respondError(h.log, w, err, "Budget")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, budgets)
}

// currentBudget is the Current response. ID is nil when no budget is set for
// the month; amount and spent are still reported so the client can render.
type currentBudget struct {
	ID     *uuid.UUID      `json:"id"`
	Amount decimal.Decimal `json:"amount"`
	Spent  decimal.Decimal `json:"spent"`
	Month  int             `json:"month"`
	Year   int             `json:"year"`
}

// Current returns this month's budget together with what has been spent so
// far. A missing budget is reported as amount zero, not as an error.
func (h *BudgetsHandler) Current(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)

	var out currentBudget
	if h.cache.Get(r.Context(), userID.String(), "budget_current", &out) {
		middleware.WriteJSON(w, http.StatusOK, out)
		return
	}

	today := domain.Today()
	year, month := today.Time().Year(), int(today.Time().Month())
	out = currentBudget{Month: month, Year: year}

	budget, err := h.budgets.FindBudgetForMonth(r.Context(), userID, month, year)
	switch {
	case err == nil:
		out.ID = &budget.ID
		out.Amount = budget.Amount
	case errors.Is(err, store.ErrNotFound):
		// no budget this month
	default:
		respondError(h.log, w, err, "Budget")
		return
	}

	start, end := domain.MonthWindow(year, month, today)
	spent, err := h.transactions.SumExpenses(r.Context(), userID, start, end)
	if err != nil {
		respondError(h.log, w, err, "Budget")
		return
	}
	out.Spent = spent

	h.cache.Set(r.Context(), userID.String(), "budget_current", out, time.Minute)
	middleware.WriteJSON(w, http.StatusOK, out)
}

// Update edits a budget.
func (h *BudgetsHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)
	id, err := pathID(r)
	if err != nil {
		respondError(h.log, w, err, "Budget")
		return
	}

	var cmd domain.UpdateBudgetCommand
	if err := decodeJSON(r, &cmd); err != nil {
		respondError(h.log, w, err, "Budget")
		return
	}
	if err := cmd.Validate(); err != nil {
		respondError(h.log, w, err, "Budget")
		return
	}

	budget, err := h.budgets.UpdateBudget(r.Context(), userID, id, cmd)
	if err != nil {
		respondError(h.log, w, err, "Budget")
		return
	}
	h.cache.Invalidate(r.Context(), userID.String())

	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Budget updated successfully",
		"budget":  budget,
	})
}

// Delete removes a budget.
func (h *BudgetsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)
	id, err := pathID(r)
	if err != nil {
		respondError(h.log, w, err, "Budget")
		return
	}

	if err := h.budgets.DeleteBudget(r.Context(), userID, id); err != nil {
		respondError(h.log, w, err, "Budget")
		return
	}
	h.cache.Invalidate(r.Context(), userID.String())

	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Budget deleted successfully",
	})
}
