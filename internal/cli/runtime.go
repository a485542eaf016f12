package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/goafee/AuthenticatorPro/internal/app"
	"github.com/goafee/AuthenticatorPro/internal/config"
	"github.com/goafee/AuthenticatorPro/internal/database"
	logpkg "github.com/goafee/AuthenticatorPro/internal/log"
	"github.com/goafee/AuthenticatorPro/internal/vault"
)

// services is everything a command needs once the data directory is resolved
// and the config is loaded. The store itself is opened lazily by the command.
type services struct {
	dataDir   string
	flags     *config.Store
	manager   *database.Manager
	lifecycle *app.LifecycleService
	backups   *app.BackupService
}

var newVaultFn = func() vault.Vault {
	return vault.NewKeyring("")
}

// withServices builds the service graph for one command invocation and tears
// it down afterwards: the store handle is closed and the log file flushed
// before the command returns.
func withServices(ctx context.Context, deps commandDeps, fn func(context.Context, services) error) error {
	dataDir, err := config.ResolveDataDir(deps.globals.DataDir)
	if err != nil {
		return mapCommandError(err)
	}

	flags, err := config.NewStore(dataDir)
	if err != nil {
		return mapCommandError(fmt.Errorf("load config: %w", err))
	}
	cfg := flags.Config()
	if cfg.Database.Dir != "" {
		dataDir = cfg.Database.Dir
	}

	logger, logCloser, err := logpkg.New(logpkg.Options{
		Level:     cfg.Logging.Level,
		File:      cfg.Logging.File,
		MaxSizeMB: cfg.Logging.MaxSizeMB,
		MaxFiles:  cfg.Logging.MaxFiles,
	})
	if err != nil {
		return mapCommandError(fmt.Errorf("build logger: %w", err))
	}
	if logCloser != nil {
		defer logCloser.Close()
	}

	manager, err := database.NewManager(database.Options{
		BaseDir: dataDir,
		Logger:  logger,
	})
	if err != nil {
		return mapCommandError(err)
	}
	defer manager.Close()

	svcs := services{
		dataDir:   dataDir,
		flags:     flags,
		manager:   manager,
		lifecycle: app.NewLifecycleService(manager, flags, newVaultFn(), logger),
		backups:   app.NewBackupService(manager, logger),
	}
	return mapCommandError(fn(ctx, svcs))
}

// fileSize returns the file's size, or -1 when it cannot be stat'd.
func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return -1
	}
	return info.Size()
}
