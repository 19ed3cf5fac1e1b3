// Package auth resolves connection credentials to the account identity the
// race engine sees as its caller.
package auth

import (
	"context"
	"errors"
)

// ErrInvalidToken indicates the token is definitively invalid.
var ErrInvalidToken = errors.New("auth: invalid token")

// Identity is an authenticated caller.
type Identity struct {
	Account string `json:"account"`
}

// Validator resolves tokens to identities.
type Validator interface {
	// Validate checks a token and returns the caller identity.
	// Returns:
	//   - (*Identity, nil) if the token is valid
	//   - (nil, ErrInvalidToken) if the token is definitively invalid
	//   - (nil, nil) if auth is disabled (NoopValidator only)
	Validate(ctx context.Context, token string) (*Identity, error)
}

// StaticValidator resolves tokens against a fixed token -> account table,
// typically loaded from the server configuration.
type StaticValidator struct {
	accounts map[string]string
}

// NewStaticValidator creates a validator over a token -> account table.
func NewStaticValidator(accounts map[string]string) *StaticValidator {
	copied := make(map[string]string, len(accounts))
	for token, account := range accounts {
		copied[token] = account
	}
	return &StaticValidator{accounts: copied}
}

func (v *StaticValidator) Validate(ctx context.Context, token string) (*Identity, error) {
	account, ok := v.accounts[token]
	if !ok || token == "" {
		return nil, ErrInvalidToken
	}
	return &Identity{Account: account}, nil
}

// NoopValidator allows all connections without validation (dev mode). The
// connection's self-declared name becomes its account.
type NoopValidator struct{}

// NewNoopValidator creates a validator that allows all connections.
func NewNoopValidator() *NoopValidator {
	return &NoopValidator{}
}

func (v *NoopValidator) Validate(ctx context.Context, token string) (*Identity, error) {
	return nil, nil
}
