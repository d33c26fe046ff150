package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/salinmt/salin/internal/api/middleware"
	"github.com/salinmt/salin/internal/cache"
	"github.com/salinmt/salin/internal/domain"
	"github.com/salinmt/salin/internal/store"
)

// AccountsHandler serves the /accounts routes.
type AccountsHandler struct {
	accounts store.AccountRepository
	cache    *cache.Cache
	log      zerolog.Logger
}

func NewAccountsHandler(accounts store.AccountRepository, c *cache.Cache, log zerolog.Logger) *AccountsHandler {
	return &AccountsHandler{accounts: accounts, cache: c, log: log}
}

// List returns the user's accounts, archived ones only on request.
func (h *AccountsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)
	includeArchived := r.URL.Query().Get("include_archived") == "true"

	accounts, err := h.accounts.ListAccounts(r.Context(), userID, includeArchived)
	if err != nil {
		respondError(h.log, w, err, "Account")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, accounts)
}

// Get returns a single account.
func (h *AccountsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)
	id, err := pathID(r)
	if err != nil {
		respondError(h.log, w, err, "Account")
		return
	}
	account, err := h.accounts.FindAccount(r.Context(), userID, id)
	if err != nil {
		respondError(h.log, w, err, "Account")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, account)
}

// Create opens a new account with the given opening balance.
func (h *AccountsHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)

	var cmd domain.CreateAccountCommand
	if err := decodeJSON(r, &cmd); err != nil {
		respondError(h.log, w, err, "Account")
		return
	}
	if err := cmd.Validate(); err != nil {
		respondError(h.log, w, err, "Account")
		return
	}

	account := &domain.Account{
		ID:            uuid.New(),
		UserID:        userID,
		Name:          cmd.Name,
		Type:          cmd.Type,
		Balance:       cmd.Balance,
		AllowNegative: domain.AllowNegative(cmd.Type),
	}
	if err := h.accounts.InsertAccount(r.Context(), account); err != nil {
		respondError(h.log, w, err, "Account")
		return
	}
	h.cache.Invalidate(r.Context(), userID.String())

	middleware.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "Account created successfully",
		"account": account,
	})
}

// Update renames or retypes an account. Balances are never set here.
func (h *AccountsHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)
	id, err := pathID(r)
	if err != nil {
		respondError(h.log, w, err, "Account")
		return
	}

	var cmd domain.UpdateAccountCommand
	if err := decodeJSON(r, &cmd); err != nil {
		respondError(h.log, w, err, "Account")
		return
	}
	if err := cmd.Validate(); err != nil {
		respondError(h.log, w, err, "Account")
		return
	}

	account, err := h.accounts.UpdateAccount(r.Context(), userID, id, cmd)
	if err != nil {
		respondError(h.log, w, err, "Account")
		return
	}
	h.cache.Invalidate(r.Context(), userID.String())

	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Account updated successfully",
		"account": account,
	})
}

// Delete archives accounts that still carry history or balance and hard
// deletes the rest.
func (h *AccountsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)
	id, err := pathID(r)
	if err != nil {
		respondError(h.log, w, err, "Account")
		return
	}

	removal, err := h.accounts.RemoveAccount(r.Context(), userID, id)
	if err != nil {
		respondError(h.log, w, err, "Account")
		return
	}
	h.cache.Invalidate(r.Context(), userID.String())

	message := "Account deleted successfully"
	if removal.Action == store.RemovalArchived {
		message = "Account archived successfully"
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"message": message,
		"action":  removal.Action,
		"reason":  removal.Reason,
	})
}
