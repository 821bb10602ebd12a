package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGenerateVerifyRoundTrip(t *testing.T) {
	opts := DefaultOptions([]byte("secret"))

	token, hash, exp, err := Generate(opts, "u1001", []string{"chat"})
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.True(t, exp.After(time.Now()))

	claims, err := Verify(opts, token, hash)
	require.NoError(t, err)
	require.Equal(t, "u1001", claims.UserID())
}

func TestVerifyWrongSecret(t *testing.T) {
	token, _, _, err := Generate(DefaultOptions([]byte("secret")), "u1001", nil)
	require.NoError(t, err)

	_, err = Verify(DefaultOptions([]byte("other")), token, "")
	require.Error(t, err)
}

func TestVerifyExpired(t *testing.T) {
	opts := DefaultOptions([]byte("secret"))

	token, _, _, err := Generate(Options{Secret: opts.Secret, Alg: "HS256", TTL: time.Millisecond}, "u1001", nil)
	require.NoError(t, err)
	time.Sleep(1100 * time.Millisecond)

	_, err = Verify(opts, token, "")
	require.Error(t, err)
}

func TestVerifyHashMismatch(t *testing.T) {
	opts := DefaultOptions([]byte("secret"))
	token, _, _, err := Generate(opts, "u1001", nil)
	require.NoError(t, err)

	_, err = Verify(opts, token, "sha256:deadbeef")
	require.Error(t, err)

	// empty expected hash skips the check
	_, err = Verify(opts, token, "")
	require.NoError(t, err)
}

func TestUnsupportedAlg(t *testing.T) {
	_, _, _, err := Generate(Options{Secret: []byte("s"), Alg: "RS256"}, "u1001", nil)
	require.Error(t, err)
}

func TestHashTokenStable(t *testing.T) {
	require.Equal(t, HashToken("abc"), HashToken("abc"))
	require.NotEqual(t, HashToken("abc"), HashToken("abd"))
	require.True(t, len(HashToken("abc")) > len("sha256:"))
}
