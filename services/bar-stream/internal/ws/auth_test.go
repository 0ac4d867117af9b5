package ws

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/muhammadchandra19/exchange/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, method jwt.SigningMethod, secret string, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestTokenValidator_Validate(t *testing.T) {
	validator := NewTokenValidator("secret")

	testCases := []struct {
		name     string
		token    func(t *testing.T) string
		assertFn func(t *testing.T, subject string, err error)
	}{
		{
			name: "valid",
			token: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodHS256, "secret", jwt.RegisteredClaims{Subject: "user-1"})
			},
			assertFn: func(t *testing.T, subject string, err error) {
				require.NoError(t, err)
				assert.Equal(t, "user-1", subject)
			},
		},
		{
			name:  "empty",
			token: func(t *testing.T) string { return "" },
			assertFn: func(t *testing.T, subject string, err error) {
				assert.True(t, errors.ErrorCodeEquals(err, string(errors.GeneralUnauthorizedError)))
			},
		},
		{
			name: "wrong secret",
			token: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodHS256, "other", jwt.RegisteredClaims{Subject: "user-1"})
			},
			assertFn: func(t *testing.T, subject string, err error) {
				assert.True(t, errors.ErrorCodeEquals(err, string(errors.GeneralUnauthorizedError)))
			},
		},
		{
			name: "other algorithm",
			token: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodHS512, "secret", jwt.RegisteredClaims{Subject: "user-1"})
			},
			assertFn: func(t *testing.T, subject string, err error) {
				assert.Error(t, err)
			},
		},
		{
			name: "expired",
			token: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodHS256, "secret", jwt.RegisteredClaims{
					Subject:   "user-1",
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
				})
			},
			assertFn: func(t *testing.T, subject string, err error) {
				assert.Error(t, err)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			subject, err := validator.Validate(tc.token(t))
			tc.assertFn(t, subject, err)
		})
	}
}
