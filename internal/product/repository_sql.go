package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// sqlRepository serves the secondary store over database/sql. Prices travel
// as their canonical string form because the embedded engine has no decimal
// column type; timestamps are assigned here for the same reason as in the
// user repository.
type sqlRepository struct {
	db *sqlx.DB
}

// NewSQLRepository returns a Repository backed by the secondary store.
func NewSQLRepository(db *sqlx.DB) Repository {
	return &sqlRepository{db: db}
}

func (r *sqlRepository) Create(ctx context.Context, name string, price decimal.Decimal, description *string) (*Product, error) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO products (name, price, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		name, price.String(), description, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert product: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read inserted product id: %w", err)
	}

	return r.GetByID(ctx, id)
}

func (r *sqlRepository) List(ctx context.Context, skip, limit int) ([]Product, error) {
	// skip and limit are validated non-negative integers at the handler
	// boundary, so inlining them is safe.
	query := fmt.Sprintf(`SELECT %s FROM products ORDER BY id LIMIT %d OFFSET %d`, productColumns, limit, skip)

	products := []Product{}
	if err := r.db.SelectContext(ctx, &products, query); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return products, nil
}

func (r *sqlRepository) GetByID(ctx context.Context, id int64) (*Product, error) {
	var p Product
	err := r.db.GetContext(ctx, &p, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product by id: %w", err)
	}

	return &p, nil
}

func (r *sqlRepository) Update(ctx context.Context, id int64, fields map[string]any) (*Product, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	getQuery := `SELECT ` + productColumns + ` FROM products WHERE id = ?`

	var p Product
	if err := tx.GetContext(ctx, &p, getQuery, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product by id: %w", err)
	}

	set := make([]string, 0, len(updatableColumns))
	args := make([]any, 0, len(updatableColumns)+1)
	for _, col := range updatableColumns {
		value, ok := fields[col]
		if !ok {
			continue
		}
		if d, isDecimal := value.(decimal.Decimal); isDecimal {
			value = d.String()
		}
		set = append(set, col+" = ?")
		args = append(args, value)
	}

	if len(set) > 0 {
		args = append(args, id)
		updateQuery := fmt.Sprintf("UPDATE products SET %s WHERE id = ?", strings.Join(set, ", "))
		if _, err := tx.ExecContext(ctx, updateQuery, args...); err != nil {
			return nil, fmt.Errorf("failed to update product: %w", err)
		}

		if err := tx.GetContext(ctx, &p, getQuery, id); err != nil {
			return nil, fmt.Errorf("failed to re-read updated product: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &p, nil
}

func (r *sqlRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var existingID int64
	err = tx.GetContext(ctx, &existingID, `SELECT id FROM products WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get product by id: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
