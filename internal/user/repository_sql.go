package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// sqlRepository serves the secondary store over database/sql. Timestamps are
// assigned here rather than by a column default because the embedded engine
// does not evaluate functions inside INSERT values.
type sqlRepository struct {
	db *sqlx.DB
}

// NewSQLRepository returns a Repository backed by the secondary store.
func NewSQLRepository(db *sqlx.DB) Repository {
	return &sqlRepository{db: db}
}

func (r *sqlRepository) Create(ctx context.Context, name, email string) (*User, error) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO users (name, email, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		name, email, now, now)
	if err != nil {
		if isUniqueConstraint(err) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read inserted user id: %w", err)
	}

	return r.GetByID(ctx, id)
}

func (r *sqlRepository) List(ctx context.Context, skip, limit int) ([]User, error) {
	// skip and limit are validated non-negative integers at the handler
	// boundary, so inlining them is safe.
	query := fmt.Sprintf(`SELECT %s FROM users ORDER BY id LIMIT %d OFFSET %d`, userColumns, limit, skip)

	users := []User{}
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}

func (r *sqlRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	var u User
	err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return &u, nil
}

func (r *sqlRepository) Update(ctx context.Context, id int64, fields map[string]any) (*User, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	getQuery := `SELECT ` + userColumns + ` FROM users WHERE id = ?`

	var u User
	if err := tx.GetContext(ctx, &u, getQuery, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	set := make([]string, 0, len(updatableColumns))
	args := make([]any, 0, len(updatableColumns)+1)
	for _, col := range updatableColumns {
		if value, ok := fields[col]; ok {
			set = append(set, col+" = ?")
			args = append(args, value)
		}
	}

	if len(set) > 0 {
		args = append(args, id)
		updateQuery := fmt.Sprintf("UPDATE users SET %s WHERE id = ?", strings.Join(set, ", "))
		if _, err := tx.ExecContext(ctx, updateQuery, args...); err != nil {
			if isUniqueConstraint(err) {
				return nil, ErrEmailExists
			}
			return nil, fmt.Errorf("failed to update user: %w", err)
		}

		if err := tx.GetContext(ctx, &u, getQuery, id); err != nil {
			return nil, fmt.Errorf("failed to re-read updated user: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &u, nil
}

func (r *sqlRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var existingID int64
	err = tx.GetContext(ctx, &existingID, `SELECT id FROM users WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get user by id: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
