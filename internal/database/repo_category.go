package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type CategoryRepository struct {
	db *sql.DB
}

func (r *CategoryRepository) Create(ctx context.Context, category *Category) error {
	if category == nil {
		return fmt.Errorf("create category: category is nil")
	}
	if category.Name == "" {
		return fmt.Errorf("create category: name is required")
	}

	category.ID = ensureID(category.ID)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO category(id, name, ranking) VALUES(?, ?, ?)
	`, category.ID, category.Name, category.Ranking)
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

func (r *CategoryRepository) Get(ctx context.Context, name string) (*Category, error) {
	var category Category
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, ranking FROM category WHERE name = ?
	`, name).Scan(&category.ID, &category.Name, &category.Ranking)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &category, nil
}

func (r *CategoryRepository) List(ctx context.Context) ([]Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, ranking FROM category ORDER BY ranking, name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var category Category
		if err := rows.Scan(&category.ID, &category.Name, &category.Ranking); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}

func (r *CategoryRepository) Assign(ctx context.Context, entryID, categoryID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO authenticator_category(authenticator_id, category_id) VALUES(?, ?)
	`, entryID, categoryID)
	if err != nil {
		return fmt.Errorf("assign category: %w", err)
	}
	return nil
}

func (r *CategoryRepository) EntryIDs(ctx context.Context, categoryID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT authenticator_id FROM authenticator_category WHERE category_id = ?
	`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list category entries: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan category entry: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category entries: %w", err)
	}
	return ids, nil
}
