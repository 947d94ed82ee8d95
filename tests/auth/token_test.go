package auth_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/vestera-as/attachment-api/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer_IssueAndValidate(t *testing.T) {
	issuer := auth.NewTokenIssuer("test-secret", 15*time.Minute)
	require.True(t, issuer.Enabled())

	id := uuid.New()
	token, expiresAt, err := issuer.Issue(id)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))

	err = issuer.Validate(token, id)
	assert.NoError(t, err)
}

func TestTokenIssuer_DisabledWithoutSecret(t *testing.T) {
	issuer := auth.NewTokenIssuer("", 15*time.Minute)
	assert.False(t, issuer.Enabled())

	_, _, err := issuer.Issue(uuid.New())
	assert.Error(t, err)
}

func TestTokenIssuer_ExpiredToken(t *testing.T) {
	issuer := auth.NewTokenIssuer("test-secret", -1*time.Minute)

	id := uuid.New()
	token, _, err := issuer.Issue(id)
	require.NoError(t, err)

	err = issuer.Validate(token, id)
	assert.ErrorIs(t, err, auth.ErrExpiredToken)
}

func TestTokenIssuer_AttachmentMismatch(t *testing.T) {
	issuer := auth.NewTokenIssuer("test-secret", 15*time.Minute)

	token, _, err := issuer.Issue(uuid.New())
	require.NoError(t, err)

	err = issuer.Validate(token, uuid.New())
	assert.ErrorIs(t, err, auth.ErrTokenMismatch)
}

func TestTokenIssuer_WrongSecret(t *testing.T) {
	issuer := auth.NewTokenIssuer("secret-one", 15*time.Minute)
	other := auth.NewTokenIssuer("secret-two", 15*time.Minute)

	id := uuid.New()
	token, _, err := issuer.Issue(id)
	require.NoError(t, err)

	err = other.Validate(token, id)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenIssuer_GarbageToken(t *testing.T) {
	issuer := auth.NewTokenIssuer("test-secret", 15*time.Minute)

	err := issuer.Validate("not-a-jwt", uuid.New())
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
