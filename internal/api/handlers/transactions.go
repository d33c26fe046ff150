package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/salinmt/salin/internal/api/middleware"
	"github.com/salinmt/salin/internal/cache"
	"github.com/salinmt/salin/internal/domain"
	"github.com/salinmt/salin/internal/store"
)

// TransactionsHandler serves the /transactions routes. Every mutation goes
// through the store, which applies the matching balance deltas atomically.
type TransactionsHandler struct {
	transactions store.TransactionRepository
	cache        *cache.Cache
	log          zerolog.Logger
}

func NewTransactionsHandler(transactions store.TransactionRepository, c *cache.Cache, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{transactions: transactions, cache: c, log: log}
}

// parseFilter reads the supported query parameters into a store filter.
func parseFilter(q url.Values) (store.TransactionFilter, error) {
	var f store.TransactionFilter

	if s := q.Get("startDate"); s != "" {
		d, err := domain.ParseDate(s)
		if err != nil {
			return f, fmt.Errorf("%w: startDate must be YYYY-MM-DD", domain.ErrInvalid)
		}
		f.StartDate = &d
	}
	if s := q.Get("endDate"); s != "" {
		d, err := domain.ParseDate(s)
		if err != nil {
			return f, fmt.Errorf("%w: endDate must be YYYY-MM-DD", domain.ErrInvalid)
		}
		f.EndDate = &d
	}
	if s := q.Get("type"); s != "" {
		t := domain.TransactionType(s)
		if !t.Valid() {
			return f, fmt.Errorf("%w: type must be income or expense", domain.ErrInvalid)
		}
		f.Type = t
	}
	if s := q.Get("categoryId"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return f, fmt.Errorf("%w: categoryId must be a valid UUID", domain.ErrInvalid)
		}
		f.CategoryID = &id
	}
	if s := q.Get("accountId"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return f, fmt.Errorf("%w: accountId must be a valid UUID", domain.ErrInvalid)
		}
		f.AccountID = &id
	}
	f.Search = strings.TrimSpace(q.Get("search"))
	return f, nil
}

// List returns the user's transactions, newest first, narrowed by the
// optional query filters.
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)

	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		respondError(h.log, w, err, "Transaction")
		return
	}
	transactions, err := h.transactions.QueryTransactions(r.Context(), userID, filter)
	if err != nil {
		respondError(h.log, w, err, "Transaction")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, transactions)
}

// Get returns a single transaction.
func (h *TransactionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)
	id, err := pathID(r)
	if err != nil {
		respondError(h.log, w, err, "Transaction")
		return
	}
	transaction, err := h.transactions.FindTransaction(r.Context(), userID, id)
	if err != nil {
		respondError(h.log, w, err, "Transaction")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, transaction)
}

// Create records a transaction and moves the account balance in the same
// database transaction.
func (h *TransactionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)

	var cmd domain.CreateTransactionCommand
	if err := decodeJSON(r, &cmd); err != nil {
		respondError(h.log, w, err, "Transaction")
		return
	}
	if err := cmd.Validate(); err != nil {
		respondError(h.log, w, err, "Transaction")
		return
	}

	transaction := &domain.Transaction{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       cmd.Title,
		Amount:      cmd.Amount,
		Type:        cmd.Type,
		Date:        cmd.Date,
		Description: cmd.Description,
		AccountID:   cmd.AccountID,
		CategoryID:  cmd.CategoryID,
	}
	if err := h.transactions.InsertTransaction(r.Context(), transaction); err != nil {
		respondError(h.log, w, err, "Transaction")
		return
	}
	h.cache.Invalidate(r.Context(), userID.String())

	middleware.WriteJSON(w, http.StatusCreated, map[string]any{
		"message":     "Transaction created successfully",
		"transaction": transaction,
	})
}

// Update edits a transaction; omitted fields keep their values. The store
// reconciles the balance effect of whatever actually changed.
func (h *TransactionsHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)
	id, err := pathID(r)
	if err != nil {
		respondError(h.log, w, err, "Transaction")
		return
	}

	var cmd domain.UpdateTransactionCommand
	if err := decodeJSON(r, &cmd); err != nil {
		respondError(h.log, w, err, "Transaction")
		return
	}
	if err := cmd.Validate(); err != nil {
		respondError(h.log, w, err, "Transaction")
		return
	}

	transaction, err := h.transactions.UpdateTransaction(r.Context(), userID, id, cmd)
	if err != nil {
		respondError(h.log, w, err, "Transaction")
		return
	}
	h.cache.Invalidate(r.Context(), userID.String())

	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"message":     "Transaction updated successfully",
		"transaction": transaction,
	})
}

// Delete removes a transaction and reverts its balance effect.
func (h *TransactionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)
	id, err := pathID(r)
	if err != nil {
		respondError(h.log, w, err, "Transaction")
		return
	}

	if err := h.transactions.DeleteTransaction(r.Context(), userID, id); err != nil {
		respondError(h.log, w, err, "Transaction")
		return
	}
	h.cache.Invalidate(r.Context(), userID.String())

	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Transaction deleted successfully",
	})
}
