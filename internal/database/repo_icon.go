package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type IconRepository struct {
	db *sql.DB
}

// Save inserts or replaces an icon. Icons are content-addressed by the
// caller, so an existing id is simply overwritten.
func (r *IconRepository) Save(ctx context.Context, icon *CustomIcon) error {
	if icon == nil {
		return fmt.Errorf("save icon: icon is nil")
	}
	if len(icon.Data) == 0 {
		return fmt.Errorf("save icon: data is required")
	}

	icon.ID = ensureID(icon.ID)
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO custom_icon(id, data) VALUES(?, ?)
	`, icon.ID, icon.Data)
	if err != nil {
		return fmt.Errorf("save icon: %w", err)
	}
	return nil
}

func (r *IconRepository) Get(ctx context.Context, id string) (*CustomIcon, error) {
	var icon CustomIcon
	err := r.db.QueryRowContext(ctx, `
		SELECT id, data FROM custom_icon WHERE id = ?
	`, id).Scan(&icon.ID, &icon.Data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get icon: %w", err)
	}
	return &icon, nil
}

func (r *IconRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM custom_icon WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete icon: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete icon: rows affected: %w", err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}
