package identity

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromClaims(t *testing.T) {
	id := FromClaims(jwt.MapClaims{"sub": "u1", "email": "a@b.c", "role": "authenticated"})
	require.NotNil(t, id)
	assert.Equal(t, "u1", id.UserID)
	assert.Equal(t, "a@b.c", id.Email)
	assert.False(t, id.IsAdmin())
}

func TestFromClaimsAppMetadataRole(t *testing.T) {
	id := FromClaims(jwt.MapClaims{
		"sub":          "u1",
		"role":         "authenticated",
		"app_metadata": map[string]interface{}{"role": "admin"},
	})
	require.NotNil(t, id)
	assert.True(t, id.IsAdmin())
}

func TestFromClaimsMissingSubject(t *testing.T) {
	assert.Nil(t, FromClaims(jwt.MapClaims{"email": "a@b.c"}))
	assert.Nil(t, FromClaims(&jwt.RegisteredClaims{Subject: "u1"}))
}

func TestNilIdentityIsNotAdmin(t *testing.T) {
	var id *Identity
	assert.False(t, id.IsAdmin())
}
