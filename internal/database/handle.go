package database

import (
	"database/sql"
	"fmt"

	"github.com/awnumar/memguard"
)

// Handle is the single live connection to the store. It is created by
// Manager.Open and destroyed by Manager.Close; no other component owns one.
type Handle struct {
	db     *sql.DB
	path   string
	secret *memguard.Enclave

	Entries    *EntryRepository
	Categories *CategoryRepository
	Icons      *IconRepository
}

func newHandle(db *sql.DB, path, secret string) *Handle {
	h := &Handle{
		db:   db,
		path: path,
	}
	if secret != "" {
		h.secret = memguard.NewEnclave([]byte(secret))
	}
	h.Entries = &EntryRepository{db: db}
	h.Categories = &CategoryRepository{db: db}
	h.Icons = &IconRepository{db: db}
	return h
}

func (h *Handle) DB() *sql.DB {
	if h == nil {
		return nil
	}
	return h.db
}

func (h *Handle) Path() string {
	if h == nil {
		return ""
	}
	return h.path
}

func (h *Handle) Encrypted() bool {
	return h != nil && h.secret != nil
}

// Secret returns the secret in effect for this handle. An unencrypted store
// reports the empty string; an absent secret and an empty-string secret are
// the same state everywhere in this package.
func (h *Handle) Secret() (string, error) {
	if h == nil || h.secret == nil {
		return "", nil
	}
	buf, err := h.secret.Open()
	if err != nil {
		return "", fmt.Errorf("open secret enclave: %w", err)
	}
	defer buf.Destroy()
	return string(buf.Bytes()), nil
}
