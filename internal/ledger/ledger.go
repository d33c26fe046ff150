// Package ledger computes the balance adjustments that keep an account's
// cached balance equal to the signed sum of the transactions referencing it.
// It is pure arithmetic; the store applies the resulting deltas atomically.
package ledger

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/salinmt/salin/internal/domain"
)

// Entry is the balance-relevant slice of a transaction.
type Entry struct {
	AccountID uuid.UUID
	Amount    decimal.Decimal
	Type      domain.TransactionType
}

// EntryOf extracts the balance-relevant fields from a transaction.
func EntryOf(t domain.Transaction) Entry {
	return Entry{AccountID: t.AccountID, Amount: t.Amount, Type: t.Type}
}

// Delta is a signed increment to apply to one account's balance.
type Delta struct {
	AccountID uuid.UUID
	Amount    decimal.Decimal
}

// Effect returns the signed impact of a transaction on its account balance:
// +amount for income, -amount for expense.
func Effect(t domain.TransactionType, amount decimal.Decimal) decimal.Decimal {
	if t == domain.Income {
		return amount
	}
	return amount.Neg()
}

// Reconcile computes the per-account increments that move balances from the
// state implied by before to the state implied by after. A nil before is a
// create, a nil after is a delete. When both touch the same account the two
// adjustments collapse into a single delta, so there is never an
// intermediate inconsistent state. Deltas that net to zero are dropped: an
// edit that changes none of account, amount or type returns no deltas.
// The result is ordered by account id so callers lock rows in a stable
// order.
func Reconcile(before, after *Entry) []Delta {
	adjust := make(map[uuid.UUID]decimal.Decimal, 2)
	if before != nil {
		adjust[before.AccountID] = Effect(before.Type, before.Amount).Neg()
	}
	if after != nil {
		adjust[after.AccountID] = adjust[after.AccountID].Add(Effect(after.Type, after.Amount))
	}

	deltas := make([]Delta, 0, len(adjust))
	for id, amount := range adjust {
		if amount.IsZero() {
			continue
		}
		deltas = append(deltas, Delta{AccountID: id, Amount: amount})
	}
	sort.Slice(deltas, func(i, j int) bool {
		return deltas[i].AccountID.String() < deltas[j].AccountID.String()
	})
	return deltas
}

// WouldOverdraw reports whether applying delta to the given balance drives it
// negative on an account that does not allow negative balances.
func WouldOverdraw(balance, delta decimal.Decimal, allowNegative bool) bool {
	if allowNegative {
		return false
	}
	return balance.Add(delta).IsNegative()
}
