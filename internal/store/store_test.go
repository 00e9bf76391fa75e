package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/edgarlens/edgarlens/internal/config"
)

func TestBuildLibsqlDSN(t *testing.T) {
	t.Run("URLUsesRawValue", func(t *testing.T) {
		cfg := config.StoreConfig{
			URL:       "libsql://example.turso.io",
			AuthToken: "token123",
		}

		dsn, err := buildLibsqlDSN(cfg)
		require.NoError(t, err)
		require.Equal(t, "libsql://example.turso.io?authToken=token123", dsn)
	})

	t.Run("Memory", func(t *testing.T) {
		dsn, err := buildLibsqlDSN(config.StoreConfig{Path: ":memory:"})
		require.NoError(t, err)
		require.Equal(t, "file::memory:?cache=shared", dsn)
	})

	t.Run("EmptyFails", func(t *testing.T) {
		_, err := buildLibsqlDSN(config.StoreConfig{})
		require.Error(t, err)
	})
}

func TestRateLimitQueryValidate(t *testing.T) {
	require.NoError(t, RateLimitQuery{All: true}.Validate())
	require.NoError(t, RateLimitQuery{Group: "get"}.Validate())
	require.NoError(t, RateLimitQuery{Prefix: "str"}.Validate())
	require.Error(t, RateLimitQuery{}.Validate())
}
