package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpublisher/openpublisher/internal/domain/manuscript"
)

var editor = manuscript.Actor{
	ID:        "9b2e4f5c-0000-4000-8000-000000000001",
	FirstName: "Grace",
	LastName:  "Hopper",
	Email:     "grace@example.org",
	Roles:     []string{"Editor", "superuser"},
}

func TestJWTService_RoundTrip(t *testing.T) {
	s := NewJWTService("secret", "accounts")

	token, err := s.Generate(editor, time.Hour)
	require.NoError(t, err)

	claims, err := s.Verify(token)
	require.NoError(t, err)

	actor := claims.Actor()
	assert.Equal(t, editor.ID, actor.ID)
	assert.Equal(t, "Grace Hopper", actor.FullName())
	assert.Equal(t, []string{"editor"}, actor.Roles)
}

func TestJWTService_Verify_Rejects(t *testing.T) {
	s := NewJWTService("secret", "accounts")

	expired, err := s.Generate(editor, -time.Minute)
	require.NoError(t, err)

	otherIssuer, err := NewJWTService("secret", "elsewhere").Generate(editor, time.Hour)
	require.NoError(t, err)

	wrongKey, err := NewJWTService("other-secret", "accounts").Generate(editor, time.Hour)
	require.NoError(t, err)

	noSubject, err := s.Generate(manuscript.Actor{FirstName: "Anon"}, time.Hour)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &ActorClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: editor.ID, Issuer: "accounts"},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]string{
		"expired":      expired,
		"other issuer": otherIssuer,
		"wrong key":    wrongKey,
		"no subject":   noSubject,
		"unsigned":     none,
		"garbage":      "not.a.token",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := s.Verify(token)
			assert.Error(t, err)
		})
	}
}
