package token

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Signer holds the key material for one token class
type Signer interface {
	Sign(claims jwt.Claims) (string, error)
	Keyfunc(token *jwt.Token) (any, error) // passed to jwt.ParseWithClaims
	Method() jwt.SigningMethod
}

// secretSigner signs with HS256 over a shared secret. Access and refresh
// tokens each get their own so one class never verifies as the other.
type secretSigner struct {
	secret []byte
}

func newSecretSigner(secret string) *secretSigner {
	return &secretSigner{secret: []byte(secret)}
}

func (s *secretSigner) Sign(claims jwt.Claims) (string, error) {
	signed, err := jwt.NewWithClaims(s.Method(), claims).SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "[secretSigner.Sign]")
	}
	return signed, nil
}

func (s *secretSigner) Keyfunc(token *jwt.Token) (any, error) {
	if token.Method != s.Method() {
		return nil, errors.Errorf("[secretSigner.Keyfunc] unexpected alg %v", token.Header["alg"])
	}
	return s.secret, nil
}

func (s *secretSigner) Method() jwt.SigningMethod {
	return jwt.SigningMethodHS256
}
