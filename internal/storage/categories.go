package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"

	"fintrack/internal/core"
)

const categoryColumns = `id, user_id, name, description, type, color, icon, active, created_at, updated_at`

const categoryConflictMessage = "Category with this name already exists for the user."

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if c.ID == "" {
		c.ID = newID()
	}
	ts := r.timestamp()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (`+categoryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.Name, c.Description, string(c.Type), c.Color, c.Icon,
		boolToInt(c.Active), ts, ts)
	if err != nil {
		if isUniqueViolation(err) {
			return core.Category{}, core.Conflict(categoryConflictMessage, err)
		}
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}

	slog.InfoContext(ctx, "Category saved to SQLite",
		"category_id", c.ID,
		"user_id", c.UserID,
		"type", c.Type)

	return r.GetCategory(ctx, c.ID, c.UserID)
}

// GetCategory returns the category only when userID owns it.
func (r *SQLiteRepository) GetCategory(ctx context.Context, id, userID string) (core.Category, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = ? AND user_id = ?`, id, userID)
	return scanCategory(row)
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, userID string, f core.CategoryFilter) ([]core.Category, error) {
	q := sq.Select(categoryColumns).From("categories").Where(sq.Eq{"user_id": userID})
	if f.Type != "" {
		q = q.Where(sq.Eq{"type": string(f.Type)})
	}
	if f.Active != nil {
		q = q.Where(sq.Eq{"active": boolToInt(*f.Active)})
	}
	query, args, err := q.OrderBy("name ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build category query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	categories := []core.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, description = ?, type = ?, color = ?, icon = ?, active = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		c.Name, c.Description, string(c.Type), c.Color, c.Icon, boolToInt(c.Active), r.timestamp(),
		c.ID, c.UserID)
	if err != nil {
		if isUniqueViolation(err) {
			return core.Category{}, core.Conflict(categoryConflictMessage, err)
		}
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}
	if err := expectOneRow(res, "Category"); err != nil {
		return core.Category{}, err
	}
	return r.GetCategory(ctx, c.ID, c.UserID)
}

func (r *SQLiteRepository) DeactivateCategory(ctx context.Context, id, userID string) (core.Category, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET active = 0, updated_at = ? WHERE id = ? AND user_id = ?`,
		r.timestamp(), id, userID)
	if err != nil {
		return core.Category{}, fmt.Errorf("deactivate category: %w", err)
	}
	if err := expectOneRow(res, "Category"); err != nil {
		return core.Category{}, err
	}
	return r.GetCategory(ctx, id, userID)
}

// DeleteCategory removes the category row. Transactions referencing it stay.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if err := expectOneRow(res, "Category"); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Category deleted from SQLite", "category_id", id, "user_id", userID)
	return nil
}

func scanCategory(row rowScanner) (core.Category, error) {
	var (
		c                    core.Category
		categoryType         string
		active               int
		createdAt, updatedAt string
	)
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Description, &categoryType, &c.Color, &c.Icon,
		&active, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.NotFound("Category")
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("scan category: %w", err)
	}
	c.Type = core.CategoryType(categoryType)
	c.Active = active == 1
	c.CreatedAt = parseTimestamp(createdAt)
	c.UpdatedAt = parseTimestamp(updatedAt)
	return c, nil
}
