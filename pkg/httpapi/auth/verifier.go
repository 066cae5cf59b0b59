package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken     = errors.New("auth: invalid token")
	ErrExpiredToken     = errors.New("auth: token expired")
	ErrMissingPublicKey = errors.New("auth: no JWT public key configured")
)

// Verifier checks RS256 access tokens against a single public key. There is
// deliberately no corresponding signer: CoreVault verifies tokens minted by
// an upstream identity provider, it does not issue them.
type Verifier struct {
	publicKey *rsa.PublicKey
	issuer    string
}

// NewVerifier loads a PEM-encoded RSA public key from disk.
func NewVerifier(publicKeyPath, issuer string) (*Verifier, error) {
	if publicKeyPath == "" {
		return nil, ErrMissingPublicKey
	}
	pemBytes, err := os.ReadFile(publicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("auth: reading JWT public key: %w", err)
	}
	key, err := jwt.ParseRSAPublicKeyFromPEM(pemBytes)
	if err != nil {
		return nil, fmt.Errorf("auth: parsing JWT public key: %w", err)
	}
	return &Verifier{publicKey: key, issuer: issuer}, nil
}

// Verify parses and validates tokenString, rejecting anything not signed
// with RS256 by the configured key.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	var opts []jwt.ParserOption
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("auth: unexpected signing method %v", t.Header["alg"])
		}
		return v.publicKey, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
