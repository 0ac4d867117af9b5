package ws

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/muhammadchandra19/exchange/pkg/errors"
)

// TokenValidator checks HS256 bearer tokens.
type TokenValidator struct {
	secret []byte
	parser *jwt.Parser
}

// NewTokenValidator creates a validator for tokens signed with secret.
func NewTokenValidator(secret string) *TokenValidator {
	return &TokenValidator{
		secret: []byte(secret),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}
}

// Validate returns the token subject, or an unauthorized error.
func (v *TokenValidator) Validate(token string) (string, error) {
	if token == "" {
		return "", errors.NewErrorDetails("token is required", string(errors.GeneralUnauthorizedError), "token")
	}

	claims := &jwt.RegisteredClaims{}
	if _, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}); err != nil {
		return "", errors.NewErrorDetails(err.Error(), string(errors.GeneralUnauthorizedError), "token")
	}

	return claims.Subject, nil
}
