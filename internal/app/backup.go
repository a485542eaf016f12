package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	cryptopkg "github.com/goafee/AuthenticatorPro/internal/crypto"
	"github.com/goafee/AuthenticatorPro/internal/database"
	"github.com/awnumar/memguard"
)

const (
	backupFormatVersion = 1
	backupKDF           = "argon2id"

	// maxBackupFileSize caps backup reads to keep a crafted envelope from
	// exhausting memory.
	maxBackupFileSize = 512 << 20

	// Argon2 bounds for untrusted envelopes.
	maxBackupArgon2Memory     = 1 << 20
	maxBackupArgon2Iterations = 20
)

var backupAAD = []byte("authenticatorpro.backup.v1")

type backupEnvelope struct {
	Version      int                    `json:"version"`
	KDF          string                 `json:"kdf"`
	Argon2Params cryptopkg.Argon2Params `json:"argon2_params"`
	Salt         []byte                 `json:"salt"`
	Nonce        []byte                 `json:"nonce"`
	Ciphertext   []byte                 `json:"ciphertext"`
}

// BackupService exports the store file as a passphrase-sealed envelope and
// restores such envelopes. Distinct from the transition snapshot, which is an
// internal rollback artifact.
type BackupService struct {
	manager *database.Manager
	log     *slog.Logger
}

func NewBackupService(manager *database.Manager, logger *slog.Logger) *BackupService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BackupService{manager: manager, log: logger}
}

func (s *BackupService) Export(ctx context.Context, outPath string, passphrase []byte) error {
	if outPath == "" {
		return fmt.Errorf("%w: output path is required", ErrValidation)
	}
	if len(passphrase) == 0 {
		return fmt.Errorf("%w: backup passphrase is required", ErrValidation)
	}

	handle, err := s.manager.Current()
	if err != nil {
		return err
	}
	if _, err := handle.DB().ExecContext(ctx, `PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
		return fmt.Errorf("export backup: wal checkpoint: %w", err)
	}

	storeBytes, err := os.ReadFile(s.manager.Paths().Primary)
	if err != nil {
		return fmt.Errorf("export backup: read store: %w", err)
	}

	params := cryptopkg.DefaultArgon2Params()
	salt, err := cryptopkg.RandomBytes(params.SaltLen)
	if err != nil {
		return fmt.Errorf("export backup: %w", err)
	}
	nonce, err := cryptopkg.RandomBytes(cryptopkg.NonceSize)
	if err != nil {
		return fmt.Errorf("export backup: %w", err)
	}

	key, err := cryptopkg.DeriveKey(passphrase, salt, params)
	if err != nil {
		return fmt.Errorf("export backup: derive key: %w", err)
	}
	keyBuf := memguard.NewBufferFromBytes(key)
	defer keyBuf.Destroy()

	ciphertext, err := cryptopkg.Seal(keyBuf.Bytes(), nonce, storeBytes, backupAAD)
	if err != nil {
		return fmt.Errorf("export backup: seal: %w", err)
	}

	payload, err := json.Marshal(backupEnvelope{
		Version:      backupFormatVersion,
		KDF:          backupKDF,
		Argon2Params: params,
		Salt:         salt,
		Nonce:        nonce,
		Ciphertext:   ciphertext,
	})
	if err != nil {
		return fmt.Errorf("export backup: encode envelope: %w", err)
	}

	if err := os.WriteFile(outPath, payload, 0o600); err != nil {
		return fmt.Errorf("export backup: write envelope: %w", err)
	}
	s.log.Info("backup exported", "path", outPath, "bytes", len(storeBytes))
	return nil
}

// Import restores a backup envelope over the store and reopens it with the
// secret the backed-up store is keyed with.
func (s *BackupService) Import(ctx context.Context, inPath string, passphrase []byte, secret string) error {
	if len(passphrase) == 0 {
		return fmt.Errorf("%w: backup passphrase is required", ErrValidation)
	}

	info, err := os.Stat(inPath)
	if err != nil {
		return fmt.Errorf("import backup: %w", err)
	}
	if info.Size() > maxBackupFileSize {
		return fmt.Errorf("%w: backup file exceeds %d bytes", ErrValidation, int64(maxBackupFileSize))
	}

	payload, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("import backup: read envelope: %w", err)
	}

	var envelope backupEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return fmt.Errorf("%w: malformed backup envelope: %v", ErrValidation, err)
	}
	if err := validateEnvelope(envelope); err != nil {
		return err
	}

	key, err := cryptopkg.DeriveKey(passphrase, envelope.Salt, envelope.Argon2Params)
	if err != nil {
		return fmt.Errorf("import backup: derive key: %w", err)
	}
	keyBuf := memguard.NewBufferFromBytes(key)
	defer keyBuf.Destroy()

	storeBytes, err := cryptopkg.Open(keyBuf.Bytes(), envelope.Nonce, envelope.Ciphertext, backupAAD)
	if err != nil {
		return fmt.Errorf("import backup: %w", err)
	}

	if err := s.manager.Restore(ctx, storeBytes, secret); err != nil {
		return fmt.Errorf("import backup: %w", err)
	}
	s.log.Info("backup imported", "path", inPath, "bytes", len(storeBytes))
	return nil
}

func validateEnvelope(envelope backupEnvelope) error {
	if envelope.Version != backupFormatVersion {
		return fmt.Errorf("%w: unsupported backup version %d", ErrValidation, envelope.Version)
	}
	if envelope.KDF != backupKDF {
		return fmt.Errorf("%w: unsupported kdf %q", ErrValidation, envelope.KDF)
	}
	if err := envelope.Argon2Params.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if envelope.Argon2Params.Memory > maxBackupArgon2Memory ||
		envelope.Argon2Params.Iterations > maxBackupArgon2Iterations {
		return fmt.Errorf("%w: argon2 parameters out of bounds", ErrValidation)
	}
	return nil
}
