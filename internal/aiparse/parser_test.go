package aiparse

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salinmt/salin/internal/domain"
)

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain array", `[{"a":1}]`, `[{"a":1}]`},
		{"json fence", "```json\n[{\"a\":1}]\n```", `[{"a":1}]`},
		{"bare fence", "```\n[1,2]\n```", `[1,2]`},
		{"chatty preamble", "Here you go:\n[0]\nHope that helps!", `[0]`},
		{"whitespace", "  \n[ ]\n ", `[ ]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanModelJSON(tt.in))
		})
	}
}

func TestDecodeDrafts(t *testing.T) {
	today := domain.Today()
	categories := []string{"Groceries", "Salary"}

	raw := `[
		{"title": "Weekly shop", "amount": 54.20, "type": "expense", "date": "2026-08-30", "category": "groceries"},
		{"title": "August pay", "amount": 3000, "type": "income", "date": "2026-08-28", "category": "Salary"},
		{"title": "Mystery", "amount": 10, "type": "expense", "date": "2026-08-29", "category": "Yachts"},
		{"title": "Bad date", "amount": 5, "type": "expense", "date": "soonish", "category": null}
	]`

	drafts, err := decodeDrafts(raw, categories, today)
	require.NoError(t, err)
	require.Len(t, drafts, 4)

	// Category matching is case-insensitive and returns the canonical name.
	require.NotNil(t, drafts[0].Category)
	assert.Equal(t, "Groceries", *drafts[0].Category)
	require.NotNil(t, drafts[1].Category)
	assert.Equal(t, "Salary", *drafts[1].Category)

	// A category outside the user's list becomes nil, not an error.
	assert.Nil(t, drafts[2].Category)

	// Unparseable dates fall back to today.
	assert.Equal(t, today.String(), drafts[3].Date.String())
}

func TestDecodeDrafts_DropsInvalidEntries(t *testing.T) {
	raw := `[
		{"title": "", "amount": 10, "type": "expense", "date": "2026-08-30"},
		{"title": "Zero", "amount": 0, "type": "expense", "date": "2026-08-30"},
		{"title": "Negative", "amount": -5, "type": "expense", "date": "2026-08-30"},
		{"title": "Weird type", "amount": 5, "type": "transfer", "date": "2026-08-30"},
		{"title": "Good", "amount": 5, "type": "expense", "date": "2026-08-30"}
	]`

	drafts, err := decodeDrafts(raw, nil, domain.Today())
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, "Good", drafts[0].Title)
	assert.True(t, drafts[0].Amount.Equal(decimal.NewFromInt(5)))
}

func TestDecodeDrafts_RejectsNonArray(t *testing.T) {
	_, err := decodeDrafts(`{"title": "not an array"}`, nil, domain.Today())
	assert.Error(t, err)
}
