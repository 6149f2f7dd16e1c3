package token

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Kind is carried in the token_use claim so one kind of token cannot stand in
// for another.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
	KindReset   Kind = "reset"
)

func (k Kind) valid() bool {
	switch k {
	case KindAccess, KindRefresh, KindReset:
		return true
	}
	return false
}

// Claims is the full claim set of every token this service signs.
type Claims struct {
	Use Kind `json:"token_use"`
	jwt.RegisteredClaims
}

var _ jwt.ClaimsValidator = (*Claims)(nil)

// Validate is called by the jwt parser after the registered claims checks.
func (c *Claims) Validate() error {
	if c.Subject == "" {
		return errors.New("missing sub")
	}
	if !c.Use.valid() {
		return errors.Errorf("unknown token_use %q", c.Use)
	}
	if c.Use == KindReset && c.ID != "" {
		return errors.New("reset token must not carry jti")
	}
	if c.Use != KindReset && c.ID == "" {
		return errors.New("missing jti")
	}
	return nil
}
