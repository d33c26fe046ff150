package handlers

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/salinmt/salin/internal/api/middleware"
	"github.com/salinmt/salin/internal/cache"
	"github.com/salinmt/salin/internal/domain"
	"github.com/salinmt/salin/internal/store"
)

// CategoriesHandler serves the /categories routes.
type CategoriesHandler struct {
	categories store.CategoryRepository
	cache      *cache.Cache
	log        zerolog.Logger
}

func NewCategoriesHandler(categories store.CategoryRepository, c *cache.Cache, log zerolog.Logger) *CategoriesHandler {
	return &CategoriesHandler{categories: categories, cache: c, log: log}
}

// List returns the user's categories.
func (h *CategoriesHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)
	includeArchived := r.URL.Query().Get("include_archived") == "true"

	categories, err := h.categories.ListCategories(r.Context(), userID, "", includeArchived)
	if err != nil {
		respondError(h.log, w, err, "Category")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, categories)
}

// ListByType returns only income or only expense categories.
func (h *CategoriesHandler) ListByType(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)
	typ := domain.TransactionType(r.PathValue("type"))
	if !typ.Valid() {
		respondError(h.log, w, fmt.Errorf("%w: type must be income or expense", domain.ErrInvalid), "Category")
		return
	}

	categories, err := h.categories.ListCategories(r.Context(), userID, typ, false)
	if err != nil {
		respondError(h.log, w, err, "Category")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, categories)
}

// Create adds a category.
func (h *CategoriesHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)

	var cmd domain.CreateCategoryCommand
	if err := decodeJSON(r, &cmd); err != nil {
		respondError(h.log, w, err, "Category")
		return
	}
	if err := cmd.Validate(); err != nil {
		respondError(h.log, w, err, "Category")
		return
	}

	category := &domain.Category{
		ID:       uuid.New(),
		UserID:   userID,
		Name:     cmd.Name,
		Type:     cmd.Type,
		Keywords: cmd.Keywords,
	}
	if err := h.categories.InsertCategory(r.Context(), category); err != nil {
		respondError(h.log, w, err, "Category")
		return
	}
	h.cache.Invalidate(r.Context(), userID.String())

	middleware.WriteJSON(w, http.StatusCreated, map[string]any{
		"message":  "Category created successfully",
		"category": category,
	})
}

// Update edits a category.
func (h *CategoriesHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)
	id, err := pathID(r)
	if err != nil {
		respondError(h.log, w, err, "Category")
		return
	}

	var cmd domain.UpdateCategoryCommand
	if err := decodeJSON(r, &cmd); err != nil {
		respondError(h.log, w, err, "Category")
		return
	}
	if err := cmd.Validate(); err != nil {
		respondError(h.log, w, err, "Category")
		return
	}

	category, err := h.categories.UpdateCategory(r.Context(), userID, id, cmd)
	if err != nil {
		respondError(h.log, w, err, "Category")
		return
	}
	h.cache.Invalidate(r.Context(), userID.String())

	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"message":  "Category updated successfully",
		"category": category,
	})
}

// Delete archives categories that are still referenced by transactions and
// hard deletes unused ones.
func (h *CategoriesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)
	id, err := pathID(r)
	if err != nil {
		respondError(h.log, w, err, "Category")
		return
	}

	removal, err := h.categories.RemoveCategory(r.Context(), userID, id)
	if err != nil {
		respondError(h.log, w, err, "Category")
		return
	}
	h.cache.Invalidate(r.Context(), userID.String())

	message := "Category deleted successfully"
	if removal.Action == store.RemovalArchived {
		message = "Category archived successfully"
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"message": message,
		"action":  removal.Action,
		"reason":  removal.Reason,
	})
}
