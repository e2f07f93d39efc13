package auth

import (
	"context"
	"time"
)

// Gate checks bearer tokens against the signer and the denylist.
type Gate struct {
	Tokens   *Tokens
	Denylist Denylist
}

func NewGate(tokens *Tokens, denylist Denylist) *Gate {
	return &Gate{Tokens: tokens, Denylist: denylist}
}

// Verify returns the claims of a valid, unrevoked token of type typ.
func (g *Gate) Verify(ctx context.Context, raw string, typ TokenType) (*Claims, error) {
	claims, err := g.Tokens.Parse(raw, typ)
	if err != nil {
		return nil, err
	}
	revoked, err := g.Denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// Revoke denylists the token for the rest of its lifetime.
func (g *Gate) Revoke(ctx context.Context, claims *Claims) error {
	return g.Denylist.Revoke(ctx, claims.ID, claims.Remaining(time.Now()))
}
