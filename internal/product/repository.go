package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository is the storage contract shared by both backends. Update takes
// an explicit field-name to new-value mapping so only fields present in the
// request payload are applied; a nil value writes NULL (clearing the
// description).
type Repository interface {
	Create(ctx context.Context, name string, price decimal.Decimal, description *string) (*Product, error)
	List(ctx context.Context, skip, limit int) ([]Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	Update(ctx context.Context, id int64, fields map[string]any) (*Product, error)
	Delete(ctx context.Context, id int64) error
}

const productColumns = "id, name, price, description, created_at, updated_at"

var updatableColumns = []string{"name", "price", "description"}

type postgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository returns a Repository backed by the primary store.
func NewPostgresRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, name string, price decimal.Decimal, description *string) (*Product, error) {
	query := `INSERT INTO products (name, price, description) VALUES ($1, $2, $3) RETURNING ` + productColumns

	var p Product
	err := r.db.QueryRow(ctx, query, name, price, description).
		Scan(&p.ID, &p.Name, &p.Price, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert product: %w", err)
	}

	return &p, nil
}

func (r *postgresRepository) List(ctx context.Context, skip, limit int) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY id OFFSET $1 LIMIT $2`

	rows, err := r.db.Query(ctx, query, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read product rows: %w", err)
	}

	return products, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	var p Product
	err := r.db.QueryRow(ctx, query, id).
		Scan(&p.ID, &p.Name, &p.Price, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product by id: %w", err)
	}

	return &p, nil
}

func (r *postgresRepository) Update(ctx context.Context, id int64, fields map[string]any) (*Product, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	getQuery := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	var p Product
	err = tx.QueryRow(ctx, getQuery, id).
		Scan(&p.ID, &p.Name, &p.Price, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product by id: %w", err)
	}

	set := make([]string, 0, len(updatableColumns))
	args := make([]any, 0, len(updatableColumns)+1)
	for _, col := range updatableColumns {
		if value, ok := fields[col]; ok {
			args = append(args, value)
			set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
		}
	}

	if len(set) > 0 {
		args = append(args, id)
		updateQuery := fmt.Sprintf("UPDATE products SET %s WHERE id = $%d", strings.Join(set, ", "), len(args))
		if _, err := tx.Exec(ctx, updateQuery, args...); err != nil {
			return nil, fmt.Errorf("failed to update product: %w", err)
		}

		err = tx.QueryRow(ctx, getQuery, id).
			Scan(&p.ID, &p.Name, &p.Price, &p.Description, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to re-read updated product: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &p, nil
}

func (r *postgresRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var existingID int64
	err = tx.QueryRow(ctx, `SELECT id FROM products WHERE id = $1`, id).Scan(&existingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get product by id: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM products WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
