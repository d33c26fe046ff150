package ledger

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salinmt/salin/internal/domain"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestEffect(t *testing.T) {
	assert.True(t, Effect(domain.Income, dec("100")).Equal(dec("100")))
	assert.True(t, Effect(domain.Expense, dec("100")).Equal(dec("-100")))
}

func TestReconcile_Create(t *testing.T) {
	acc := uuid.New()

	deltas := Reconcile(nil, &Entry{AccountID: acc, Amount: dec("200"), Type: domain.Expense})
	require.Len(t, deltas, 1)
	assert.Equal(t, acc, deltas[0].AccountID)
	assert.True(t, deltas[0].Amount.Equal(dec("-200")))

	deltas = Reconcile(nil, &Entry{AccountID: acc, Amount: dec("50"), Type: domain.Income})
	require.Len(t, deltas, 1)
	assert.True(t, deltas[0].Amount.Equal(dec("50")))
}

func TestReconcile_DeleteRevertsCreateExactly(t *testing.T) {
	acc := uuid.New()
	entry := Entry{AccountID: acc, Amount: dec("100.00"), Type: domain.Expense}

	created := Reconcile(nil, &entry)
	deleted := Reconcile(&entry, nil)
	require.Len(t, created, 1)
	require.Len(t, deleted, 1)

	// The delete delta is the exact inverse of the create delta: applying
	// both restores the starting balance with no drift.
	net := created[0].Amount.Add(deleted[0].Amount)
	assert.True(t, net.IsZero(), "expected zero net effect, got %s", net)
}

func TestReconcile_IdenticalUpdateIsNoop(t *testing.T) {
	entry := Entry{AccountID: uuid.New(), Amount: dec("75.50"), Type: domain.Income}
	assert.Empty(t, Reconcile(&entry, &entry))
}

func TestReconcile_AmountChangeSameAccount(t *testing.T) {
	acc := uuid.New()
	before := Entry{AccountID: acc, Amount: dec("200"), Type: domain.Expense}
	after := Entry{AccountID: acc, Amount: dec("50"), Type: domain.Expense}

	deltas := Reconcile(&before, &after)
	require.Len(t, deltas, 1, "same-account adjustments must collapse into one delta")
	assert.Equal(t, acc, deltas[0].AccountID)
	// Revert -200, apply -50: net +150.
	assert.True(t, deltas[0].Amount.Equal(dec("150")))
}

func TestReconcile_TypeFlipMovesTwiceTheAmount(t *testing.T) {
	acc := uuid.New()
	before := Entry{AccountID: acc, Amount: dec("40"), Type: domain.Expense}
	after := Entry{AccountID: acc, Amount: dec("40"), Type: domain.Income}

	deltas := Reconcile(&before, &after)
	require.Len(t, deltas, 1)
	assert.True(t, deltas[0].Amount.Equal(dec("80")), "expense→income must move 2×amount")
}

func TestReconcile_MoveBetweenAccounts(t *testing.T) {
	oldAcc := uuid.New()
	newAcc := uuid.New()
	before := Entry{AccountID: oldAcc, Amount: dec("120"), Type: domain.Expense}
	after := Entry{AccountID: newAcc, Amount: dec("120"), Type: domain.Expense}

	deltas := Reconcile(&before, &after)
	require.Len(t, deltas, 2)

	byAccount := map[uuid.UUID]decimal.Decimal{}
	for _, d := range deltas {
		byAccount[d.AccountID] = d.Amount
	}
	assert.True(t, byAccount[oldAcc].Equal(dec("120")), "old account gets the full effect back")
	assert.True(t, byAccount[newAcc].Equal(dec("-120")), "new account takes the full effect")
}

func TestReconcile_StableOrder(t *testing.T) {
	before := Entry{AccountID: uuid.New(), Amount: dec("10"), Type: domain.Expense}
	after := Entry{AccountID: uuid.New(), Amount: dec("10"), Type: domain.Expense}

	deltas := Reconcile(&before, &after)
	require.Len(t, deltas, 2)
	assert.Less(t, deltas[0].AccountID.String(), deltas[1].AccountID.String())
}

// Replays arbitrary create/update/delete sequences and checks the invariant:
// each account's balance equals the signed sum of the transactions that
// currently reference it.
func TestReconcile_SequenceInvariant(t *testing.T) {
	accA := uuid.New()
	accB := uuid.New()
	balances := map[uuid.UUID]decimal.Decimal{accA: dec("500"), accB: dec("0")}
	apply := func(deltas []Delta) {
		for _, d := range deltas {
			balances[d.AccountID] = balances[d.AccountID].Add(d.Amount)
		}
	}

	t1 := Entry{AccountID: accA, Amount: dec("200"), Type: domain.Expense}
	t2 := Entry{AccountID: accA, Amount: dec("300"), Type: domain.Income}
	apply(Reconcile(nil, &t1))
	apply(Reconcile(nil, &t2))

	// Edit t1: amount and account change at once.
	t1b := Entry{AccountID: accB, Amount: dec("80"), Type: domain.Expense}
	apply(Reconcile(&t1, &t1b))

	// Edit t2: type flip.
	t2b := Entry{AccountID: accA, Amount: dec("300"), Type: domain.Expense}
	apply(Reconcile(&t2, &t2b))

	// Delete t1b.
	apply(Reconcile(&t1b, nil))

	// Live set is only t2b: expense 300 on A.
	assert.True(t, balances[accA].Equal(dec("200")), "A: 500 - 300, got %s", balances[accA])
	assert.True(t, balances[accB].Equal(dec("0")), "B back to zero, got %s", balances[accB])
}

func TestWouldOverdraw(t *testing.T) {
	assert.True(t, WouldOverdraw(dec("500"), dec("-600"), false))
	assert.False(t, WouldOverdraw(dec("500"), dec("-500"), false), "exact zero is allowed")
	assert.False(t, WouldOverdraw(dec("500"), dec("-600"), true), "credit cards may go negative")
	assert.False(t, WouldOverdraw(dec("500"), dec("200"), false))
}
