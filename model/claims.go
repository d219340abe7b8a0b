package model

import "github.com/golang-jwt/jwt/v5"

// LedgerScope is the scope a bearer token must carry to use the ledger API.
const LedgerScope = "ledger"

// AppClaims are the claims carried by API bearer tokens.
type AppClaims struct {
	Scope string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}
