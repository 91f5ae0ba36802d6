package tasks

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// tokenIssuer is stamped into every callback token.
	tokenIssuer = "famcal-notifier"
	// tokenSubject scopes callback tokens to escalation alerts.
	tokenSubject = "unassigned-alert"
	// tokenGrace keeps a token valid for retries after its task fires.
	tokenGrace = time.Hour
)

// ErrInvalidToken is returned for callbacks that fail verification.
var ErrInvalidToken = errors.New("invalid callback token")

// SignCallbackToken issues the bearer token a fired task presents to the callback.
func SignCallbackToken(secret string, issuedAt, fireAt time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   tokenSubject,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(fireAt.Add(tokenGrace)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign callback token: %w", err)
	}

	return signed, nil
}

// VerifyCallbackToken checks signature, issuer, subject and expiry at now.
func VerifyCallbackToken(secret, token string, now time.Time) error {
	_, err := jwt.ParseWithClaims(token, new(jwt.RegisteredClaims),
		func(_ *jwt.Token) (any, error) {
			return []byte(secret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithSubject(tokenSubject),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	return nil
}
