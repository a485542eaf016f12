package vault

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	v := NewMemory()

	_, ok, err := v.Get(ctx, "database-password")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, v.Set(ctx, "database-password", "hunter2"))

	value, ok, err := v.Get(ctx, "database-password")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "hunter2", value)

	require.NoError(t, v.Delete(ctx, "database-password"))
	require.NoError(t, v.Delete(ctx, "database-password"))

	_, ok, err = v.Get(ctx, "database-password")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestNewKeyringDefaultsService(t *testing.T) {
	t.Parallel()

	require.Equal(t, defaultService, NewKeyring("").Service)
	require.Equal(t, "custom", NewKeyring("custom").Service)
}
