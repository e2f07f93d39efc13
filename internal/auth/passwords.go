package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// Passwords hashes and verifies user passwords with bcrypt.
type Passwords struct {
	Cost int
}

func NewPasswords() Passwords {
	return Passwords{Cost: bcrypt.DefaultCost}
}

func (p Passwords) Hash(plain string) (string, error) {
	cost := p.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (p Passwords) Verify(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
