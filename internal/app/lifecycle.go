package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/goafee/AuthenticatorPro/internal/config"
	"github.com/goafee/AuthenticatorPro/internal/database"
	"github.com/goafee/AuthenticatorPro/internal/vault"
)

// Flags is the narrow view of the preference store the lifecycle needs.
type Flags interface {
	GetBool(key string, def bool) bool
	SetBool(key string, value bool) error
}

// LifecycleService is the consumer-facing surface over the store lifecycle:
// open/close, secret changes, and the one-shot legacy migration.
type LifecycleService struct {
	manager *database.Manager
	flags   Flags
	secrets vault.Vault
	log     *slog.Logger
}

func NewLifecycleService(manager *database.Manager, flags Flags, secrets vault.Vault, logger *slog.Logger) *LifecycleService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LifecycleService{
		manager: manager,
		flags:   flags,
		secrets: secrets,
		log:     logger,
	}
}

func (s *LifecycleService) IsOpen() bool {
	return s.manager.IsOpen()
}

func (s *LifecycleService) Current() (*database.Handle, error) {
	return s.manager.Current()
}

func (s *LifecycleService) Open(ctx context.Context, secret string) (*database.Handle, error) {
	return s.manager.Open(ctx, secret)
}

func (s *LifecycleService) Close() error {
	return s.manager.Close()
}

func (s *LifecycleService) ChangeSecret(ctx context.Context, oldSecret, newSecret string) error {
	return s.manager.ChangeSecret(ctx, oldSecret, newSecret)
}

// RunLegacyMigration strips the legacy encryption scheme from the store. It
// runs once per launch: when the legacy flag is clear it does nothing at all.
// The flag is cleared only after the transition commits, so an interrupted
// migration is retried on the next launch. A set flag with no stored secret
// is an unknown state; the flag is left alone.
func (s *LifecycleService) RunLegacyMigration(ctx context.Context) error {
	if !s.flags.GetBool(config.KeyLegacyEncryption, false) {
		return nil
	}

	secret, ok, err := s.secrets.Get(ctx, legacyVaultKey)
	if err != nil {
		return fmt.Errorf("legacy migration: fetch stored secret: %w", err)
	}
	if !ok {
		s.log.Warn("legacy encryption flag set but no stored secret found")
		return nil
	}

	if !s.manager.IsOpen() {
		if _, err := s.manager.Open(ctx, secret); err != nil {
			return fmt.Errorf("legacy migration: open with stored secret: %w", err)
		}
	}

	if err := s.manager.ChangeSecret(ctx, secret, ""); err != nil {
		return fmt.Errorf("legacy migration: %w", err)
	}

	if err := s.flags.SetBool(config.KeyLegacyEncryption, false); err != nil {
		return fmt.Errorf("legacy migration: clear flag: %w", err)
	}
	s.log.Info("legacy encryption removed from store")
	return nil
}
