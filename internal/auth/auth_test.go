package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", hash)

	assert.True(t, CheckPassword(hash, "hunter2"))
	assert.False(t, CheckPassword(hash, "hunter3"))
}

func TestCheckPassword_EmptyHashNeverMatches(t *testing.T) {
	assert.False(t, CheckPassword("", ""))
	assert.False(t, CheckPassword("", "anything"))
}

func TestTokens_IssueAndVerify(t *testing.T) {
	tokens := NewTokens("test-secret")
	userID := uuid.New()

	signed, err := tokens.Issue(userID, "user@example.com")
	require.NoError(t, err)

	got, err := tokens.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestTokens_RejectsWrongSecret(t *testing.T) {
	signed, err := NewTokens("secret-a").Issue(uuid.New(), "user@example.com")
	require.NoError(t, err)

	_, err = NewTokens("secret-b").Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokens_RejectsGarbage(t *testing.T) {
	_, err := NewTokens("secret").Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokens_RejectsExpired(t *testing.T) {
	tokens := NewTokens("secret")
	issued := time.Now()
	tokens.now = func() time.Time { return issued }

	signed, err := tokens.Issue(uuid.New(), "user@example.com")
	require.NoError(t, err)

	tokens.now = func() time.Time { return issued.Add(TokenTTL + time.Minute) }
	_, err = tokens.Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
