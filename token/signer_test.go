package token

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestSecretSigner_Keyfunc(t *testing.T) {
	s := newSecretSigner("secret")

	key, err := s.Keyfunc(jwt.New(jwt.SigningMethodHS256))
	require.NoError(t, err)
	require.Equal(t, []byte("secret"), key)

	for _, method := range []jwt.SigningMethod{jwt.SigningMethodHS512, jwt.SigningMethodRS256, jwt.SigningMethodNone} {
		_, err := s.Keyfunc(jwt.New(method))
		require.Error(t, err, method.Alg())
	}
}

func TestSecretSigner_SecretsDoNotCross(t *testing.T) {
	access, refresh := newSecretSigner("access"), newSecretSigner("refresh")

	raw, err := access.Sign(jwt.RegisteredClaims{Subject: "user-1"})
	require.NoError(t, err)

	_, err = jwt.Parse(raw, refresh.Keyfunc)
	require.Error(t, err)

	parsed, err := jwt.Parse(raw, access.Keyfunc)
	require.NoError(t, err)
	require.True(t, parsed.Valid)
}
