package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func writeTestKeyPair(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	pubBytes, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes})

	path := filepath.Join(t.TempDir(), "pub.pem")
	require.NoError(t, os.WriteFile(path, pubPEM, 0o600))
	return priv, path
}

func signTestToken(t *testing.T, priv *rsa.PrivateKey, claims *Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(priv)
	require.NoError(t, err)
	return tok
}

func TestVerifyAcceptsValidToken(t *testing.T) {
	priv, path := writeTestKeyPair(t)
	verifier, err := NewVerifier(path, "corevault")
	require.NoError(t, err)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "corevault",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID:   "user-1",
		TenantID: "tenant-1",
		Role:     "employee",
	}
	tokenString := signTestToken(t, priv, claims)

	got, err := verifier.Verify(tokenString)
	require.NoError(t, err)
	require.Equal(t, "user-1", got.UserID)
	require.Equal(t, "tenant-1", got.TenantID)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	priv, path := writeTestKeyPair(t)
	verifier, err := NewVerifier(path, "corevault")
	require.NoError(t, err)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "corevault",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
		UserID: "user-1",
	}
	tokenString := signTestToken(t, priv, claims)

	_, err = verifier.Verify(tokenString)
	require.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	_, path := writeTestKeyPair(t)
	otherPriv, _ := writeTestKeyPair(t)
	verifier, err := NewVerifier(path, "corevault")
	require.NoError(t, err)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "corevault",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID: "user-1",
	}
	tokenString := signTestToken(t, otherPriv, claims)

	_, err = verifier.Verify(tokenString)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestToActorMapsCompanyWideDepartment(t *testing.T) {
	claims := &Claims{UserID: "u1", TenantID: "t1", Role: "manager"}
	actor := claims.ToActor()
	require.Nil(t, actor.DepartmentID)
	require.Equal(t, "t1", actor.TenantID)
}
