package service

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildAndParseToken(t *testing.T) {
	auth := NewAuth()

	token, err := auth.BuildJWTString(42)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := auth.ParseClaims(&http.Cookie{Name: "token", Value: token})
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
}

func TestParseClaimsRejectsGarbage(t *testing.T) {
	auth := NewAuth()

	_, err := auth.ParseClaims(&http.Cookie{Name: "token", Value: "not-a-token"})
	assert.Error(t, err)
}
