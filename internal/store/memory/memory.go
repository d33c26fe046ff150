// Package memory is an in-memory store.Store used by handler tests. It
// mirrors the Postgres implementation's semantics, including ledger
// reconciliation and the archive-vs-delete lifecycle guard.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/salinmt/salin/internal/domain"
	"github.com/salinmt/salin/internal/ledger"
	"github.com/salinmt/salin/internal/store"
)

type resetToken struct {
	userID    uuid.UUID
	expiresAt time.Time
}

// Store keeps everything in maps guarded by one mutex.
type Store struct {
	mu           sync.Mutex
	users        map[uuid.UUID]domain.User
	accounts     map[uuid.UUID]domain.Account
	categories   map[uuid.UUID]domain.Category
	transactions map[uuid.UUID]domain.Transaction
	budgets      map[uuid.UUID]domain.Budget
	resetTokens  map[uuid.UUID]resetToken
	seq          int // orders transactions with identical timestamps
}

// New returns an empty store.
func New() *Store {
	return &Store{
		users:        make(map[uuid.UUID]domain.User),
		accounts:     make(map[uuid.UUID]domain.Account),
		categories:   make(map[uuid.UUID]domain.Category),
		transactions: make(map[uuid.UUID]domain.Transaction),
		budgets:      make(map[uuid.UUID]domain.Budget),
		resetTokens:  make(map[uuid.UUID]resetToken),
	}
}

var _ store.Store = (*Store)(nil)

// applyDeltas mirrors the Postgres overdraw guard: it checks every delta
// before applying any, so a rejected mutation leaves no partial state.
func (s *Store) applyDeltas(userID uuid.UUID, deltas []ledger.Delta) error {
	for _, d := range deltas {
		a, ok := s.accounts[d.AccountID]
		if !ok || a.UserID != userID {
			return fmt.Errorf("account %s: %w", d.AccountID, store.ErrNotFound)
		}
		if ledger.WouldOverdraw(a.Balance, d.Amount, a.AllowNegative) {
			return store.ErrInsufficientBalance
		}
	}
	for _, d := range deltas {
		a := s.accounts[d.AccountID]
		a.Balance = a.Balance.Add(d.Amount)
		s.accounts[d.AccountID] = a
	}
	return nil
}

// --- accounts ---

func (s *Store) InsertAccount(_ context.Context, account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account.CreatedAt = time.Now()
	s.accounts[account.ID] = *account
	return nil
}

func (s *Store) ListAccounts(_ context.Context, userID uuid.UUID, includeArchived bool) ([]domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Account, 0)
	for _, a := range s.accounts {
		if a.UserID == userID && (includeArchived || !a.IsArchived) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) FindAccount(_ context.Context, userID, id uuid.UUID) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok || a.UserID != userID {
		return nil, store.ErrNotFound
	}
	return &a, nil
}

func (s *Store) UpdateAccount(_ context.Context, userID, id uuid.UUID, cmd domain.UpdateAccountCommand) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok || a.UserID != userID {
		return nil, store.ErrNotFound
	}
	if cmd.Name != nil {
		a.Name = *cmd.Name
	}
	if cmd.Type != nil {
		a.Type = *cmd.Type
		a.AllowNegative = domain.AllowNegative(a.Type)
	}
	s.accounts[id] = a
	return &a, nil
}

func (s *Store) RemoveAccount(_ context.Context, userID, id uuid.UUID) (*store.Removal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok || a.UserID != userID {
		return nil, store.ErrNotFound
	}
	hasTransactions := false
	for _, t := range s.transactions {
		if t.AccountID == id {
			hasTransactions = true
			break
		}
	}
	switch {
	case !a.Balance.IsZero():
		a.IsArchived = true
		s.accounts[id] = a
		return &store.Removal{Action: store.RemovalArchived, Reason: store.ReasonNonZeroBalance}, nil
	case hasTransactions:
		a.IsArchived = true
		s.accounts[id] = a
		return &store.Removal{Action: store.RemovalArchived, Reason: store.ReasonAccountHasHistory}, nil
	default:
		delete(s.accounts, id)
		return &store.Removal{Action: store.RemovalDeleted}, nil
	}
}

func (s *Store) SumBalances(_ context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, a := range s.accounts {
		if a.UserID == userID && !a.IsArchived {
			total = total.Add(a.Balance)
		}
	}
	return total, nil
}

// --- categories ---

func (s *Store) InsertCategory(_ context.Context, category *domain.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	category.CreatedAt = time.Now()
	s.categories[category.ID] = *category
	return nil
}

func (s *Store) ListCategories(_ context.Context, userID uuid.UUID, typeFilter domain.TransactionType, includeArchived bool) ([]domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Category, 0)
	for _, c := range s.categories {
		if c.UserID != userID {
			continue
		}
		if typeFilter != "" && c.Type != typeFilter {
			continue
		}
		if !includeArchived && c.IsArchived {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) FindCategory(_ context.Context, userID, id uuid.UUID) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok || c.UserID != userID {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

func (s *Store) UpdateCategory(_ context.Context, userID, id uuid.UUID, cmd domain.UpdateCategoryCommand) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok || c.UserID != userID {
		return nil, store.ErrNotFound
	}
	if cmd.Name != nil {
		c.Name = *cmd.Name
	}
	if cmd.Type != nil {
		c.Type = *cmd.Type
	}
	if cmd.Keywords != nil {
		c.Keywords = cmd.Keywords
	}
	s.categories[id] = c
	return &c, nil
}

func (s *Store) RemoveCategory(_ context.Context, userID, id uuid.UUID) (*store.Removal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok || c.UserID != userID {
		return nil, store.ErrNotFound
	}
	for _, t := range s.transactions {
		if t.CategoryID == id {
			c.IsArchived = true
			s.categories[id] = c
			return &store.Removal{Action: store.RemovalArchived, Reason: store.ReasonCategoryHasHistory}, nil
		}
	}
	delete(s.categories, id)
	return &store.Removal{Action: store.RemovalDeleted}, nil
}

func (s *Store) SeedDefaultCategories(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, seed := range []struct {
		name string
		typ  domain.TransactionType
	}{{"Groceries", domain.Expense}, {"Salary", domain.Income}} {
		id := uuid.New()
		s.categories[id] = domain.Category{
			ID: id, UserID: userID, Name: seed.name, Type: seed.typ, CreatedAt: time.Now(),
		}
	}
	return nil
}

// --- transactions ---

func (s *Store) InsertTransaction(_ context.Context, transaction *domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[transaction.CategoryID]
	if !ok || c.UserID != transaction.UserID {
		return fmt.Errorf("category: %w", store.ErrNotFound)
	}
	entry := ledger.EntryOf(*transaction)
	if err := s.applyDeltas(transaction.UserID, ledger.Reconcile(nil, &entry)); err != nil {
		return err
	}
	s.seq++
	transaction.CreatedAt = time.Now().Add(time.Duration(s.seq)) // strictly increasing
	s.transactions[transaction.ID] = *transaction
	return nil
}

func (s *Store) QueryTransactions(_ context.Context, userID uuid.UUID, filter store.TransactionFilter) ([]domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Transaction, 0)
	for _, t := range s.transactions {
		if t.UserID != userID {
			continue
		}
		if filter.StartDate != nil && t.Date.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && t.Date.After(*filter.EndDate) {
			continue
		}
		if filter.Type != "" && t.Type != filter.Type {
			continue
		}
		if filter.CategoryID != nil && t.CategoryID != *filter.CategoryID {
			continue
		}
		if filter.AccountID != nil && t.AccountID != *filter.AccountID {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(filter.Search)) {
			continue
		}
		s.decorate(&t)
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) decorate(t *domain.Transaction) {
	if a, ok := s.accounts[t.AccountID]; ok {
		t.AccountName = a.Name
	}
	if c, ok := s.categories[t.CategoryID]; ok {
		t.CategoryName = c.Name
	}
}

func (s *Store) FindTransaction(_ context.Context, userID, id uuid.UUID) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok || t.UserID != userID {
		return nil, store.ErrNotFound
	}
	return &t, nil
}

func (s *Store) UpdateTransaction(_ context.Context, userID, id uuid.UUID, cmd domain.UpdateTransactionCommand) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.transactions[id]
	if !ok || old.UserID != userID {
		return nil, store.ErrNotFound
	}
	next := cmd.Apply(old)
	if cmd.CategoryID != nil {
		c, ok := s.categories[next.CategoryID]
		if !ok || c.UserID != userID {
			return nil, fmt.Errorf("category: %w", store.ErrNotFound)
		}
	}
	before := ledger.EntryOf(old)
	after := ledger.EntryOf(next)
	if err := s.applyDeltas(userID, ledger.Reconcile(&before, &after)); err != nil {
		return nil, err
	}
	s.transactions[id] = next
	return &next, nil
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.transactions[id]
	if !ok || old.UserID != userID {
		return store.ErrNotFound
	}
	before := ledger.EntryOf(old)
	if err := s.applyDeltas(userID, ledger.Reconcile(&before, nil)); err != nil {
		return err
	}
	delete(s.transactions, id)
	return nil
}

func (s *Store) ListRecentTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Transaction, error) {
	all, err := s.QueryTransactions(ctx, userID, store.TransactionFilter{})
	if err != nil {
		return nil, err
	}
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *Store) SumExpenses(_ context.Context, userID uuid.UUID, start, end domain.Date) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, t := range s.transactions {
		if t.UserID != userID || t.Type != domain.Expense {
			continue
		}
		if t.Date.Before(start) || t.Date.After(end) {
			continue
		}
		total = total.Add(t.Amount)
	}
	return total, nil
}

// --- budgets ---

func (s *Store) InsertBudget(_ context.Context, budget *domain.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.budgets {
		if b.UserID == budget.UserID && b.Month == budget.Month && b.Year == budget.Year {
			return store.ErrDuplicate
		}
	}
	budget.CreatedAt = time.Now()
	s.budgets[budget.ID] = *budget
	return nil
}

func (s *Store) ListBudgets(_ context.Context, userID uuid.UUID) ([]domain.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Budget, 0)
	for _, b := range s.budgets {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		return out[i].Month > out[j].Month
	})
	return out, nil
}

func (s *Store) FindBudgetForMonth(_ context.Context, userID uuid.UUID, month, year int) (*domain.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.budgets {
		if b.UserID == userID && b.Month == month && b.Year == year {
			return &b, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) UpdateBudget(_ context.Context, userID, id uuid.UUID, cmd domain.UpdateBudgetCommand) (*domain.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok || b.UserID != userID {
		return nil, store.ErrNotFound
	}
	if cmd.Amount != nil {
		b.Amount = *cmd.Amount
	}
	if cmd.Month != nil {
		b.Month = *cmd.Month
	}
	if cmd.Year != nil {
		b.Year = *cmd.Year
	}
	s.budgets[id] = b
	return &b, nil
}

func (s *Store) DeleteBudget(_ context.Context, userID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok || b.UserID != userID {
		return store.ErrNotFound
	}
	delete(s.budgets, id)
	return nil
}

// --- users ---

func (s *Store) InsertUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return store.ErrDuplicate
		}
	}
	user.CreatedAt = time.Now()
	s.users[user.ID] = *user
	return nil
}

func (s *Store) FindUser(_ context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) FindOrCreateUserByEmail(ctx context.Context, email, username string) (*domain.User, bool, error) {
	if u, err := s.FindUserByEmail(ctx, email); err == nil {
		return u, false, nil
	}
	u := &domain.User{ID: uuid.New(), Email: strings.ToLower(email), Username: username}
	if err := s.InsertUser(ctx, u); err != nil {
		return nil, false, err
	}
	return u, true, nil
}

func (s *Store) UpdateUsername(_ context.Context, id uuid.UUID, username string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	u.Username = username
	s.users[id] = u
	return &u, nil
}

func (s *Store) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.PasswordHash = passwordHash
	s.users[id] = u
	return nil
}

func (s *Store) InsertResetToken(_ context.Context, token, userID uuid.UUID, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetTokens[token] = resetToken{userID: userID, expiresAt: expiresAt}
	return nil
}

func (s *Store) ConsumeResetToken(_ context.Context, token uuid.UUID) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rt, ok := s.resetTokens[token]
	if !ok {
		return uuid.Nil, store.ErrNotFound
	}
	delete(s.resetTokens, token)
	if time.Now().After(rt.expiresAt) {
		return uuid.Nil, store.ErrNotFound
	}
	return rt.userID, nil
}
