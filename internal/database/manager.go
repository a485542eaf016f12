package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/mutecomm/go-sqlcipher/v4"
)

const (
	pragmaJournalModeWAL = `PRAGMA journal_mode=WAL`
	pragmaForeignKeysOn  = `PRAGMA foreign_keys=ON`

	busyTimeoutMillis = 5000
)

type Options struct {
	// BaseDir is the platform-provided directory holding the store file.
	BaseDir string

	// RetryAttempts bounds the retry policy during initialization. Zero means
	// the default (4).
	RetryAttempts int

	Logger *slog.Logger
}

// Manager owns the one live connection to the store. At most one handle
// exists at a time; opening while open closes the prior handle first.
//
// Open, Close and ChangeSecret are serialized by an internal mutex, but the
// design assumes a single logical caller: a transition must run to a terminal
// state before anything else touches the store.
type Manager struct {
	mu     sync.Mutex
	paths  Paths
	log    *slog.Logger
	handle *Handle

	retryAttempts int
	retryBase     time.Duration

	// Seams for failure injection in tests.
	checkpointFn func(db *sql.DB) error
	rekeyFn      func(db *sql.DB, secret string) error
	exportFn     func(db *sql.DB, tempPath, secret string) error
	schemaFn     func(ctx context.Context, db *sql.DB) error
}

func NewManager(opts Options) (*Manager, error) {
	if opts.BaseDir == "" {
		return nil, fmt.Errorf("new manager: empty base dir")
	}
	if opts.RetryAttempts == 0 {
		opts.RetryAttempts = defaultRetryAttempts
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		paths:         ResolvePaths(opts.BaseDir),
		log:           logger,
		retryAttempts: opts.RetryAttempts,
		retryBase:     defaultRetryBase,
	}
	m.checkpointFn = checkpointTruncate
	m.rekeyFn = rekeyInPlace
	m.exportFn = exportInto
	m.schemaFn = func(ctx context.Context, db *sql.DB) error {
		return applySchema(ctx, db, m.retryAttempts, m.retryBase)
	}
	return m, nil
}

func (m *Manager) Paths() Paths {
	return m.paths
}

func (m *Manager) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handle != nil
}

// Current returns the live handle, or ErrNotOpen. Callers must not assume an
// implicit open.
func (m *Manager) Current() (*Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handle == nil {
		return nil, ErrNotOpen
	}
	return m.handle, nil
}

// Close flushes and closes the live handle. It is idempotent.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeLocked()
}

func (m *Manager) closeLocked() error {
	if m.handle == nil {
		return nil
	}
	db := m.handle.db
	m.handle = nil
	if err := db.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	m.log.Debug("store closed", "path", m.paths.Primary)
	return nil
}

// Open opens the store with the given secret, creating the file and its
// tables on first launch. An empty secret opens the store unencrypted.
// Open is all-or-nothing: on any initialization failure the partial handle is
// discarded, the manager stays closed, and the original error is returned.
func (m *Manager) Open(ctx context.Context, secret string) (*Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.openLocked(ctx, secret)
}

func (m *Manager) openLocked(ctx context.Context, secret string) (*Handle, error) {
	if m.handle != nil {
		if err := m.closeLocked(); err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(filepath.Dir(m.paths.Primary), 0o700); err != nil {
		return nil, fmt.Errorf("open store: create base dir: %w", err)
	}

	firstLaunch := !fileExists(m.paths.Primary)

	db, err := sql.Open("sqlite3", storeDSN(m.paths.Primary, secret))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	// The key and any attached database are per-connection state, so the
	// pool is pinned to a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := m.initialize(ctx, db, secret, firstLaunch); err != nil {
		_ = db.Close()
		return nil, err
	}

	m.handle = newHandle(db, m.paths.Primary, secret)
	m.log.Info("store opened",
		"path", m.paths.Primary,
		"encrypted", secret != "",
		"first_launch", firstLaunch,
	)
	return m.handle, nil
}

func (m *Manager) initialize(ctx context.Context, db *sql.DB, secret string, firstLaunch bool) error {
	// The pool creates its one connection lazily; the driver applies the key
	// from the DSN and reads the file while establishing it. This read forces
	// a wrong or missing key to fail here instead of on first repository use.
	var n int
	if err := db.QueryRowContext(ctx, `SELECT count(*) FROM sqlite_master`).Scan(&n); err != nil {
		return fmt.Errorf("open store: verify key: %w", err)
	}

	if firstLaunch {
		err := retryBusy(ctx, m.retryAttempts, m.retryBase, func() error {
			_, execErr := db.ExecContext(ctx, pragmaJournalModeWAL)
			return execErr
		})
		if err != nil {
			return fmt.Errorf("open store: enable wal: %w", err)
		}
	}

	if _, err := db.ExecContext(ctx, pragmaForeignKeysOn); err != nil {
		return fmt.Errorf("open store: enable foreign keys: %w", err)
	}

	if err := m.schemaFn(ctx, db); err != nil {
		return err
	}

	return ensureFilePermissions(m.paths)
}

// Restore replaces the primary file with the given store bytes and reopens
// with the secret that store is keyed with. Any live handle is closed first.
func (m *Manager) Restore(ctx context.Context, data []byte, secret string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(m.paths.Primary), 0o700); err != nil {
		return fmt.Errorf("restore store: create base dir: %w", err)
	}
	if err := removeStoreFiles(m.paths); err != nil {
		return err
	}
	if err := os.WriteFile(m.paths.Primary, data, 0o600); err != nil {
		return fmt.Errorf("restore store: write primary: %w", err)
	}
	_, err := m.openLocked(ctx, secret)
	return err
}

// storeDSN builds the connection string. The key must travel in the DSN: the
// driver applies the key pragma and verifies it against the file while
// establishing the connection, so a key set per-session would come too late
// for an existing encrypted file. The driver wraps the value in double quotes
// when it builds the pragma, so the secret travels bare here, with any double
// quotes doubled for that wrapping. The resulting key is the bare secret,
// matching what rekey and the attach-export target produce.
func storeDSN(path, secret string) string {
	query := url.Values{}
	query.Set("_busy_timeout", strconv.Itoa(busyTimeoutMillis))
	if secret != "" {
		query.Set("_pragma_key", strings.ReplaceAll(secret, `"`, `""`))
	}
	u := url.URL{Scheme: "file", Path: path, RawQuery: query.Encode()}
	return u.String()
}

// quoteSecret embeds a secret as an SQL string literal with quote doubling.
// The engine does not support parameter binding for the rekey pragma.
func quoteSecret(secret string) string {
	return "'" + strings.ReplaceAll(secret, "'", "''") + "'"
}
