package httpc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveIdentityPrecedence(t *testing.T) {
	t.Setenv(identityEnvVar, "Env User env@example.com")

	identity, err := ResolveIdentity("Explicit User explicit@example.com", func() string {
		return "Func User fn@example.com"
	})
	require.NoError(t, err)
	require.Equal(t, "Explicit User explicit@example.com", identity)

	identity, err = ResolveIdentity("", func() string {
		return "Func User fn@example.com"
	})
	require.NoError(t, err)
	require.Equal(t, "Func User fn@example.com", identity)

	identity, err = ResolveIdentity("", nil)
	require.NoError(t, err)
	require.Equal(t, "Env User env@example.com", identity)
}

func TestResolveIdentityUnset(t *testing.T) {
	t.Setenv(identityEnvVar, "")

	_, err := ResolveIdentity("", nil)
	require.ErrorIs(t, err, ErrIdentityNotSet)

	// A resolver func that yields nothing falls through to the env var.
	_, err = ResolveIdentity("", func() string { return "  " })
	require.ErrorIs(t, err, ErrIdentityNotSet)
}
