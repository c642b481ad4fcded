package auth

import (
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/golang-jwt/jwt/v5"

	"fintrack/internal/core"
)

var issuedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newIssuer(t *testing.T, secret string) *TokenIssuer {
	t.Helper()
	i, err := NewTokenIssuer(secret, time.Hour)
	assert.NoError(t, err)
	i.now = func() time.Time { return issuedAt }
	return i
}

func TestNewTokenIssuerRejectsBadConfig(t *testing.T) {
	_, err := NewTokenIssuer("", time.Hour)
	assert.Error(t, err)
	_, err = NewTokenIssuer("secret", 0)
	assert.Error(t, err)
}

func TestIssueAndVerify(t *testing.T) {
	i := newIssuer(t, "secret")
	token, expires, err := i.Issue(core.User{ID: "user-1", Email: "alice@example.com"})
	assert.NoError(t, err)
	assert.Equal(t, issuedAt.Add(time.Hour), expires)

	claims, err := i.Verify(token)
	assert.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
}

func TestVerifyFailures(t *testing.T) {
	i := newIssuer(t, "secret")
	token, _, err := i.Issue(core.User{ID: "user-1", Email: "alice@example.com"})
	assert.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "user-1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	assert.NoError(t, err)

	noSubject, _, err := i.Issue(core.User{Email: "ghost@example.com"})
	assert.NoError(t, err)

	later := newIssuer(t, "secret")
	later.now = func() time.Time { return issuedAt.Add(2 * time.Hour) }

	tests := []struct {
		name   string
		issuer *TokenIssuer
		token  string
		want   string
	}{
		{"garbage", i, "not-a-token", msgInvalidToken},
		{"wrong secret", newIssuer(t, "other"), token, msgInvalidToken},
		{"unsigned", i, none, msgInvalidToken},
		{"missing user id", i, noSubject, msgInvalidToken},
		{"expired", later, token, msgTokenExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.issuer.Verify(tt.token)
			assert.Equal(t, core.KindAuthentication, core.KindOf(err))
			assert.EqualError(t, err, tt.want)
		})
	}
}
