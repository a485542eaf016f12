package database

import (
	"errors"
	"fmt"
	"io"
	"os"
)

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("copy %q: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("copy to %q: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copy %q to %q: %w", src, dst, err)
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		return fmt.Errorf("sync %q: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %q: %w", dst, err)
	}
	return nil
}

// copyFileIfExists copies src to dst when src exists; a missing src removes
// any stale dst instead.
func copyFileIfExists(src, dst string) error {
	if !fileExists(src) {
		return removeIfExists(dst)
	}
	return copyFile(src, dst)
}

func removeIfExists(path string) error {
	if path == "" {
		return nil
	}
	err := os.Remove(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("remove %q: %w", path, err)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// removeStoreFiles deletes the primary file and its sidecars so a replacement
// file can take the primary path without stale journal state.
func removeStoreFiles(p Paths) error {
	if err := removeIfExists(p.Primary); err != nil {
		return err
	}
	for _, sidecar := range p.Sidecars() {
		if err := removeIfExists(sidecar); err != nil {
			return err
		}
	}
	return nil
}

func ensureFilePermissions(p Paths) error {
	for _, path := range []string{p.Primary, p.WAL} {
		if err := os.Chmod(path, 0o600); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("set store file permissions: %w", err)
			}
		}
	}
	return nil
}
