package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	h := NewHandler(nil, nil, "test-secret")

	token, err := h.generateJWT("user-123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := h.validateAndGetUserID(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", userID)
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	issuer := NewHandler(nil, nil, "secret-a")
	verifier := NewHandler(nil, nil, "secret-b")

	token, err := issuer.generateJWT("user-123")
	require.NoError(t, err)

	_, err = verifier.validateAndGetUserID(token)
	assert.Error(t, err)
}

func TestJWTRejectsGarbage(t *testing.T) {
	h := NewHandler(nil, nil, "test-secret")

	_, err := h.validateAndGetUserID("not.a.token")
	assert.Error(t, err)
}
