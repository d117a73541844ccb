package jwt_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mergepost/mergepost/pkg/jwt"
)

type testClaims struct {
	jwt.StandardClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

func TestNewRequiresKey(t *testing.T) {
	t.Parallel()

	_, err := jwt.New("")
	assert.ErrorIs(t, err, jwt.ErrMissingSigningKey)
}

func TestGenerateParseRoundTrip(t *testing.T) {
	t.Parallel()

	svc, err := jwt.New("test-signing-key-0123456789abcdef")
	require.NoError(t, err)

	in := testClaims{
		StandardClaims: jwt.StandardClaims{
			Subject:   "user-1",
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
			IssuedAt:  time.Now().Unix(),
		},
		Email: "admin@example.com",
		Role:  "admin",
	}
	token, err := svc.Generate(in)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	var out testClaims
	require.NoError(t, svc.Parse(token, &out))
	assert.Equal(t, in.Subject, out.Subject)
	assert.Equal(t, in.Email, out.Email)
	assert.Equal(t, in.Role, out.Role)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	t.Parallel()

	svc, err := jwt.New("test-signing-key-0123456789abcdef")
	require.NoError(t, err)

	token, err := svc.Generate(testClaims{
		StandardClaims: jwt.StandardClaims{
			Subject:   "user-1",
			ExpiresAt: time.Now().Add(-time.Minute).Unix(),
		},
	})
	require.NoError(t, err)

	var out testClaims
	assert.ErrorIs(t, svc.Parse(token, &out), jwt.ErrExpiredToken)
}

func TestParseRejectsForeignSignature(t *testing.T) {
	t.Parallel()

	signer, err := jwt.New("key-one-0123456789abcdef01234567")
	require.NoError(t, err)
	verifier, err := jwt.New("key-two-0123456789abcdef01234567")
	require.NoError(t, err)

	token, err := signer.Generate(testClaims{Email: "a@example.com"})
	require.NoError(t, err)

	var out testClaims
	assert.ErrorIs(t, verifier.Parse(token, &out), jwt.ErrInvalidSignature)
}

func TestParseRejectsMalformedTokens(t *testing.T) {
	t.Parallel()

	svc, err := jwt.New("test-signing-key-0123456789abcdef")
	require.NoError(t, err)

	var out testClaims
	assert.ErrorIs(t, svc.Parse("not-a-token", &out), jwt.ErrInvalidToken)
	assert.ErrorIs(t, svc.Parse("a.b", &out), jwt.ErrInvalidToken)
	assert.Error(t, svc.Parse("a.b.c", &out))
}

func TestGenerateNilClaims(t *testing.T) {
	t.Parallel()

	svc, err := jwt.New("test-signing-key-0123456789abcdef")
	require.NoError(t, err)

	_, err = svc.Generate(nil)
	assert.ErrorIs(t, err, jwt.ErrMissingClaims)
}
