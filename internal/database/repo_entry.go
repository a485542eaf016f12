package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type EntryRepository struct {
	db *sql.DB
}

func (r *EntryRepository) Create(ctx context.Context, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("create entry: entry is nil")
	}
	if entry.Issuer == "" {
		return fmt.Errorf("create entry: issuer is required")
	}
	if entry.Secret == "" {
		return fmt.Errorf("create entry: secret is required")
	}

	entry.ID = ensureID(entry.ID)
	if entry.Type == "" {
		entry.Type = EntryTypeTOTP
	}
	now := nowUTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO authenticator(id, issuer, username, type, algorithm, digits, period, counter, secret, icon, ranking, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.Issuer, entry.Username, string(entry.Type), entry.Algorithm,
		entry.Digits, entry.Period, entry.Counter, entry.Secret, entry.Icon,
		entry.Ranking, fmtTime(entry.CreatedAt), fmtTime(entry.UpdatedAt))
	if err != nil {
		return fmt.Errorf("create entry: %w", err)
	}
	return nil
}

func (r *EntryRepository) Get(ctx context.Context, id string) (*Entry, error) {
	var (
		entry     Entry
		entryType string
		createdAt string
		updatedAt string
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT id, issuer, username, type, algorithm, digits, period, counter, secret, icon, ranking, created_at, updated_at
		FROM authenticator
		WHERE id = ?
	`, id).Scan(&entry.ID, &entry.Issuer, &entry.Username, &entryType, &entry.Algorithm,
		&entry.Digits, &entry.Period, &entry.Counter, &entry.Secret, &entry.Icon,
		&entry.Ranking, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get entry: %w", err)
	}

	entry.Type = EntryType(entryType)
	if entry.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if entry.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *EntryRepository) List(ctx context.Context) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, issuer, username, type, algorithm, digits, period, counter, secret, icon, ranking, created_at, updated_at
		FROM authenticator
		ORDER BY ranking, issuer
	`)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry     Entry
			entryType string
			createdAt string
			updatedAt string
		)
		if err := rows.Scan(&entry.ID, &entry.Issuer, &entry.Username, &entryType, &entry.Algorithm,
			&entry.Digits, &entry.Period, &entry.Counter, &entry.Secret, &entry.Icon,
			&entry.Ranking, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entry.Type = EntryType(entryType)
		if entry.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if entry.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

func (r *EntryRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM authenticator WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete entry: rows affected: %w", err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}
