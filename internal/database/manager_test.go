package database

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"net/url"
	"os"
	"testing"
	"time"

	sqlite3 "github.com/mutecomm/go-sqlcipher/v4"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(Options{
		BaseDir: t.TempDir(),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	m.retryBase = time.Millisecond
	t.Cleanup(func() {
		require.NoError(t, m.Close())
	})
	return m
}

func TestNewManagerRequiresBaseDir(t *testing.T) {
	t.Parallel()

	_, err := NewManager(Options{})
	require.Error(t, err)
}

func TestOpenCreatesTablesOnFirstLaunch(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	handle, err := m.Open(context.Background(), "")
	require.NoError(t, err)
	require.True(t, m.IsOpen())

	for _, table := range []string{"authenticator", "category", "authenticator_category", "custom_icon"} {
		var count int
		err := handle.DB().QueryRow(
			`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table,
		).Scan(&count)
		require.NoError(t, err)
		require.Equalf(t, 1, count, "expected table %s to exist", table)
	}
}

func TestOpenReportsEffectiveSecret(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	handle, err := m.Open(context.Background(), "correct horse")
	require.NoError(t, err)
	require.True(t, handle.Encrypted())

	secret, err := handle.Secret()
	require.NoError(t, err)
	require.Equal(t, "correct horse", secret)
}

func TestOpenEmptySecretIsPlaintext(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	handle, err := m.Open(context.Background(), "")
	require.NoError(t, err)
	require.False(t, handle.Encrypted())

	secret, err := handle.Secret()
	require.NoError(t, err)
	require.Equal(t, "", secret)
}

func TestCurrentFailsWhenClosed(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	_, err := m.Current()
	require.ErrorIs(t, err, ErrNotOpen)
}

func TestCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	_, err := m.Open(context.Background(), "")
	require.NoError(t, err)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	require.False(t, m.IsOpen())
}

func TestOpenWhileOpenClosesPriorHandle(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	first, err := m.Open(context.Background(), "pw")
	require.NoError(t, err)

	second, err := m.Open(context.Background(), "pw")
	require.NoError(t, err)
	require.NotSame(t, first, second)

	// The prior handle's connection must be gone.
	require.Error(t, first.DB().Ping())

	current, err := m.Current()
	require.NoError(t, err)
	require.Same(t, second, current)
}

func TestOpenEncryptedStoreAgain(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newTestManager(t)

	handle, err := m.Open(ctx, "pw")
	require.NoError(t, err)
	require.NoError(t, handle.Entries.Create(ctx, &Entry{
		Issuer: "GitHub", Secret: "JBSWY3DPEHPK3PXP", Algorithm: "SHA1", Digits: 6, Period: 30,
	}))
	require.NoError(t, m.Close())

	// Reopening the existing encrypted file must work, not just creating it.
	handle, err = m.Open(ctx, "pw")
	require.NoError(t, err)
	entries, err := handle.Entries.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestOpenWrongSecretFails(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	_, err := m.Open(context.Background(), "right")
	require.NoError(t, err)
	require.NoError(t, m.Close())

	_, err = m.Open(context.Background(), "wrong")
	require.Error(t, err)
	require.False(t, m.IsOpen())

	_, err = m.Open(context.Background(), "")
	require.Error(t, err)
	require.False(t, m.IsOpen())
}

func TestOpenRetriesTableCreationUntilExhaustion(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)

	attempts := 0
	m.schemaFn = func(ctx context.Context, db *sql.DB) error {
		return retryBusy(ctx, m.retryAttempts, m.retryBase, func() error {
			attempts++
			return sqlite3.Error{Code: sqlite3.ErrBusy}
		})
	}

	_, err := m.Open(context.Background(), "")
	require.Error(t, err)
	require.Equal(t, defaultRetryAttempts, attempts)
	require.False(t, m.IsOpen())

	_, err = m.Current()
	require.ErrorIs(t, err, ErrNotOpen)
}

func TestOpenSchemaFailureLeavesManagerClosed(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	m.schemaFn = func(ctx context.Context, db *sql.DB) error {
		return context.DeadlineExceeded
	}

	_, err := m.Open(context.Background(), "")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.False(t, m.IsOpen())
}

func TestRestoreReplacesStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newTestManager(t)

	handle, err := m.Open(ctx, "pw")
	require.NoError(t, err)
	require.NoError(t, handle.Entries.Create(ctx, &Entry{
		Issuer: "GitHub", Secret: "JBSWY3DPEHPK3PXP", Algorithm: "SHA1", Digits: 6, Period: 30,
	}))
	require.NoError(t, m.Close())

	snapshot, err := os.ReadFile(m.Paths().Primary)
	require.NoError(t, err)

	// Diverge the live store, then restore the snapshot over it.
	handle, err = m.Open(ctx, "pw")
	require.NoError(t, err)
	require.NoError(t, handle.Entries.Create(ctx, &Entry{
		Issuer: "Fastmail", Secret: "JBSWY3DPEHPK3PXP", Algorithm: "SHA1", Digits: 6, Period: 30,
	}))

	require.NoError(t, m.Restore(ctx, snapshot, "pw"))
	require.True(t, m.IsOpen())

	handle, err = m.Current()
	require.NoError(t, err)
	entries, err := handle.Entries.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "GitHub", entries[0].Issuer)
}

func TestQuoteSecretDoublesQuotes(t *testing.T) {
	t.Parallel()

	require.Equal(t, `'plain'`, quoteSecret("plain"))
	require.Equal(t, `'it''s'`, quoteSecret("it's"))
	require.Equal(t, `''''''`, quoteSecret("''"))
	require.Equal(t, `''`, quoteSecret(""))
}

func TestStoreDSN(t *testing.T) {
	t.Parallel()

	// Path characters with URI meaning must survive a parse round trip.
	u, err := url.Parse(storeDSN("/data dir/odd?name#here/proauth.db3", "it's"))
	require.NoError(t, err)
	require.Equal(t, "file", u.Scheme)
	require.Equal(t, "/data dir/odd?name#here/proauth.db3", u.Path)

	query := u.Query()
	require.Equal(t, "5000", query.Get("_busy_timeout"))
	require.Equal(t, "it's", query.Get("_pragma_key"))

	// The driver double-quotes the key value itself, so double quotes in the
	// secret are doubled and everything else travels bare.
	u, err = url.Parse(storeDSN("/plain/proauth.db3", `say "pw"`))
	require.NoError(t, err)
	require.Equal(t, `say ""pw""`, u.Query().Get("_pragma_key"))

	u, err = url.Parse(storeDSN("/plain/proauth.db3", ""))
	require.NoError(t, err)
	require.False(t, u.Query().Has("_pragma_key"))
}
