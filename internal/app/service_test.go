package app

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/goafee/AuthenticatorPro/internal/config"
	"github.com/goafee/AuthenticatorPro/internal/database"
	"github.com/goafee/AuthenticatorPro/internal/vault"
	"github.com/stretchr/testify/require"
)

// spyVault counts reads so tests can assert the no-op contract.
type spyVault struct {
	*vault.Memory
	gets int
}

func (s *spyVault) Get(ctx context.Context, key string) (string, bool, error) {
	s.gets++
	return s.Memory.Get(ctx, key)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestManager(t *testing.T) *database.Manager {
	t.Helper()
	manager, err := database.NewManager(database.Options{
		BaseDir: t.TempDir(),
		Logger:  discardLogger(),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, manager.Close())
	})
	return manager
}

func newTestFlags(t *testing.T) *config.Store {
	t.Helper()
	flags, err := config.NewStore(t.TempDir())
	require.NoError(t, err)
	return flags
}

func TestRunLegacyMigrationNoOpWhenFlagClear(t *testing.T) {
	t.Parallel()

	manager := newTestManager(t)
	flags := newTestFlags(t)
	secrets := &spyVault{Memory: vault.NewMemory()}
	service := NewLifecycleService(manager, flags, secrets, discardLogger())

	require.NoError(t, service.RunLegacyMigration(context.Background()))
	require.Zero(t, secrets.gets)
	require.False(t, manager.IsOpen())
}

func TestRunLegacyMigrationLeavesFlagWhenSecretAbsent(t *testing.T) {
	t.Parallel()

	manager := newTestManager(t)
	flags := newTestFlags(t)
	require.NoError(t, flags.SetBool(config.KeyLegacyEncryption, true))
	secrets := &spyVault{Memory: vault.NewMemory()}
	service := NewLifecycleService(manager, flags, secrets, discardLogger())

	require.NoError(t, service.RunLegacyMigration(context.Background()))
	require.Equal(t, 1, secrets.gets)
	require.True(t, flags.GetBool(config.KeyLegacyEncryption, false))
	require.False(t, manager.IsOpen())
}

func TestRunLegacyMigrationStripsEncryption(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	manager := newTestManager(t)

	// Seed an encrypted store the way an earlier release left it.
	handle, err := manager.Open(ctx, "legacy-pw")
	require.NoError(t, err)
	require.NoError(t, handle.Entries.Create(ctx, &database.Entry{
		Issuer: "GitHub", Secret: "JBSWY3DPEHPK3PXP", Algorithm: "SHA1", Digits: 6, Period: 30,
	}))
	require.NoError(t, manager.Close())

	flags := newTestFlags(t)
	require.NoError(t, flags.SetBool(config.KeyLegacyEncryption, true))
	secrets := vault.NewMemory()
	require.NoError(t, secrets.Set(ctx, legacyVaultKey, "legacy-pw"))

	service := NewLifecycleService(manager, flags, secrets, discardLogger())
	require.NoError(t, service.RunLegacyMigration(ctx))

	require.False(t, flags.GetBool(config.KeyLegacyEncryption, true))
	require.True(t, manager.IsOpen())

	current, err := manager.Current()
	require.NoError(t, err)
	require.False(t, current.Encrypted())

	entries, err := current.Entries.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// The file itself must now open with an absent secret.
	require.NoError(t, manager.Close())
	_, err = manager.Open(ctx, "")
	require.NoError(t, err)
}

func TestRunLegacyMigrationFailureKeepsFlag(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	manager := newTestManager(t)

	_, err := manager.Open(ctx, "actual-pw")
	require.NoError(t, err)
	require.NoError(t, manager.Close())

	flags := newTestFlags(t)
	require.NoError(t, flags.SetBool(config.KeyLegacyEncryption, true))
	secrets := vault.NewMemory()
	require.NoError(t, secrets.Set(ctx, legacyVaultKey, "stale-pw"))

	service := NewLifecycleService(manager, flags, secrets, discardLogger())
	err = service.RunLegacyMigration(ctx)
	require.Error(t, err)
	require.True(t, flags.GetBool(config.KeyLegacyEncryption, false))
}

func TestLifecyclePassThrough(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	manager := newTestManager(t)
	service := NewLifecycleService(manager, newTestFlags(t), vault.NewMemory(), discardLogger())

	require.False(t, service.IsOpen())
	_, err := service.Current()
	require.ErrorIs(t, err, database.ErrNotOpen)

	_, err = service.Open(ctx, "pw")
	require.NoError(t, err)
	require.True(t, service.IsOpen())

	require.NoError(t, service.ChangeSecret(ctx, "pw", "pw2"))
	handle, err := service.Current()
	require.NoError(t, err)
	secret, err := handle.Secret()
	require.NoError(t, err)
	require.Equal(t, "pw2", secret)

	require.NoError(t, service.Close())
	require.NoError(t, service.Close())
}
