package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
)

// ChangeSecret rotates the store's secret and, when exactly one of old/new is
// absent, toggles encryption itself. A handle must be open with oldSecret in
// effect.
//
// The protocol is: snapshot the primary file to the backup path, checkpoint
// the write-ahead log, then either rekey in place (same mode) or export into
// a fresh temp file and swap it over the primary (mode change). Every path
// ends committed or rolled back with the old secret active, and the backup
// artifact never survives a terminal state.
func (m *Manager) ChangeSecret(ctx context.Context, oldSecret, newSecret string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.handle == nil {
		return ErrNotOpen
	}
	current, err := m.handle.Secret()
	if err != nil {
		return err
	}
	if current != oldSecret {
		return fmt.Errorf("change secret: old secret is not in effect")
	}
	if oldSecret == newSecret {
		return nil
	}

	db := m.handle.db

	// Step 1: snapshot. Nothing has been touched yet, so a copy failure
	// propagates after discarding any partial snapshot.
	if err := m.snapshotStore(); err != nil {
		m.discardArtifacts()
		return &TransitionError{Step: StepSnapshot, Err: err}
	}

	// Step 2: checkpoint, so the file on disk is fully merged before any
	// in-place or export work starts.
	if err := m.checkpointFn(db); err != nil {
		m.discardArtifacts()
		return &TransitionError{Step: StepCheckpoint, Err: err}
	}

	modeChange := (oldSecret == "") != (newSecret == "")
	if modeChange {
		err = m.changeMode(ctx, db, oldSecret, newSecret)
	} else {
		err = m.changeKey(ctx, db, oldSecret, newSecret)
	}
	if err != nil {
		return err
	}

	if err := m.removeSnapshot(); err != nil {
		return err
	}
	m.log.Info("secret changed",
		"path", m.paths.Primary,
		"encrypted", newSecret != "",
		"mode_change", modeChange,
	)
	return nil
}

// changeMode toggles encryption by exporting the live database into a fresh
// temp file under the new secret and swapping it over the primary. Switching
// cipher state needs a different on-disk container, so in-place rekey cannot
// be used here.
func (m *Manager) changeMode(ctx context.Context, db *sql.DB, oldSecret, newSecret string) error {
	if err := removeIfExists(m.paths.Temp); err != nil {
		m.discardArtifacts()
		return &TransitionError{Step: StepExport, Err: err}
	}

	if err := m.exportFn(db, m.paths.Temp, newSecret); err != nil {
		// The live connection was never closed; it stays open and usable
		// with the old secret.
		m.discardArtifacts()
		return &TransitionError{Step: StepExport, Err: err}
	}

	swapErr := func() error {
		if err := m.closeLocked(); err != nil {
			return err
		}
		if err := removeStoreFiles(m.paths); err != nil {
			return err
		}
		if err := os.Rename(m.paths.Temp, m.paths.Primary); err != nil {
			return fmt.Errorf("rename temp over primary: %w", err)
		}
		_, err := m.openLocked(ctx, newSecret)
		return err
	}()
	if swapErr != nil {
		m.rollback(ctx, oldSecret)
		return &TransitionError{Step: StepSwap, Err: swapErr}
	}
	return nil
}

// changeKey rotates the secret without changing encryption mode, using the
// engine's in-place rekey.
func (m *Manager) changeKey(ctx context.Context, db *sql.DB, oldSecret, newSecret string) error {
	if err := m.rekeyFn(db, newSecret); err != nil {
		m.rollback(ctx, oldSecret)
		return &TransitionError{Step: StepRekey, Err: err}
	}

	reopenErr := func() error {
		if err := m.closeLocked(); err != nil {
			return err
		}
		_, err := m.openLocked(ctx, newSecret)
		return err
	}()
	if reopenErr != nil {
		m.rollback(ctx, oldSecret)
		return &TransitionError{Step: StepReopen, Err: reopenErr}
	}
	return nil
}

// snapshotStore copies the primary file and its write-ahead log to the
// backup set. The WAL copy is what makes the snapshot complete: the
// checkpoint runs after the snapshot, so rows committed just before the
// transition exist only in the WAL at this point.
func (m *Manager) snapshotStore() error {
	if err := copyFile(m.paths.Primary, m.paths.Backup); err != nil {
		return err
	}
	return copyFileIfExists(m.paths.WAL, m.paths.BackupWAL)
}

// removeSnapshot deletes the backup set. Success is never reported while any
// of it still exists.
func (m *Manager) removeSnapshot() error {
	if err := removeIfExists(m.paths.Backup); err != nil {
		return err
	}
	return removeIfExists(m.paths.BackupWAL)
}

// rollback restores the snapshot over the primary path and reopens with the
// old secret. The WAL copy is restored alongside the primary so the reopen
// replays writes the checkpoint had not yet merged when the snapshot was
// taken. It is best effort: the original transition error is what the caller
// sees, so failures here are only logged.
func (m *Manager) rollback(ctx context.Context, oldSecret string) {
	if err := removeIfExists(m.paths.Temp); err != nil {
		m.log.Error("rollback: remove temp artifact", "error", err)
	}
	if err := m.closeLocked(); err != nil {
		m.log.Error("rollback: close handle", "error", err)
	}
	if err := removeStoreFiles(m.paths); err != nil {
		m.log.Error("rollback: remove store files", "error", err)
	}
	if err := os.Rename(m.paths.Backup, m.paths.Primary); err != nil {
		m.log.Error("rollback: restore backup", "error", err)
	}
	if fileExists(m.paths.BackupWAL) {
		if err := os.Rename(m.paths.BackupWAL, m.paths.WAL); err != nil {
			m.log.Error("rollback: restore backup wal", "error", err)
		}
	}
	if _, err := m.openLocked(ctx, oldSecret); err != nil {
		m.log.Error("rollback: reopen with old secret", "error", err)
	}
	m.log.Warn("secret change rolled back", "path", m.paths.Primary)
}

// discardArtifacts removes the backup set and temp file on failure paths
// where the primary file and the live connection were never touched.
func (m *Manager) discardArtifacts() {
	if err := removeIfExists(m.paths.Temp); err != nil {
		m.log.Error("discard temp artifact", "error", err)
	}
	if err := m.removeSnapshot(); err != nil {
		m.log.Error("discard backup artifacts", "error", err)
	}
}

func checkpointTruncate(db *sql.DB) error {
	if _, err := db.Exec(`PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
		return fmt.Errorf("wal checkpoint: %w", err)
	}
	return nil
}

func rekeyInPlace(db *sql.DB, secret string) error {
	if _, err := db.Exec(`PRAGMA rekey = ` + quoteSecret(secret)); err != nil {
		return fmt.Errorf("rekey: %w", err)
	}
	return nil
}

// exportInto attaches tempPath as a secondary database under the new secret
// (empty for plaintext) and exports the live contents into it. The temporary
// database is detached on every path.
func exportInto(db *sql.DB, tempPath, secret string) error {
	if _, err := db.Exec(`ATTACH DATABASE ? AS target KEY ?`, tempPath, secret); err != nil {
		return fmt.Errorf("attach target: %w", err)
	}
	defer func() {
		_, _ = db.Exec(`DETACH DATABASE target`)
	}()

	if _, err := db.Exec(`SELECT sqlcipher_export('target')`); err != nil {
		return fmt.Errorf("export into target: %w", err)
	}
	return nil
}
