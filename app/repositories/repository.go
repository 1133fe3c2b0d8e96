// Package repositories implements data access over framework/database.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/km-arc/fastie/framework/database"
)

var (
	// ErrNotFound is returned when no live row matches.
	ErrNotFound = errors.New("repository: record not found")
	// ErrDuplicate is returned when a unique constraint is violated.
	ErrDuplicate = errors.New("repository: duplicate record")
	// ErrInvalidOrder is returned for an unknown sort column or direction.
	ErrInvalidOrder = errors.New("repository: invalid order")
)

// Page selects a window of rows. Zero values mean no offset, 100 rows and
// ordering by id ascending.
type Page struct {
	Skip      int
	Limit     int
	OrderBy   string
	Direction string // asc | desc
}

// DefaultPage is what List handlers start from.
var DefaultPage = Page{Skip: 0, Limit: 100}

func (p Page) clause(orderable []string) (string, error) {
	col := p.OrderBy
	if col == "" {
		col = "id"
	}
	if !slices.Contains(orderable, col) {
		return "", fmt.Errorf("%w: column %q", ErrInvalidOrder, col)
	}
	dir := strings.ToLower(p.Direction)
	switch dir {
	case "":
		dir = "asc"
	case "asc", "desc":
	default:
		return "", fmt.Errorf("%w: direction %q", ErrInvalidOrder, p.Direction)
	}
	return col + " " + strings.ToUpper(dir), nil
}

func (p Page) bounds() (int, int) {
	skip, limit := p.Skip, p.Limit
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = 100
	}
	return skip, limit
}

// Repository is the generic CRUD base for a table whose rows scan into T.
// Reads hide soft-deleted rows.
type Repository[T any] struct {
	db        *database.Context
	table     string
	orderable []string
}

// NewRepository serves table. Only orderable columns may appear in ORDER BY;
// id is always allowed.
func NewRepository[T any](db *database.Context, table string, orderable ...string) *Repository[T] {
	if !slices.Contains(orderable, "id") {
		orderable = append([]string{"id"}, orderable...)
	}
	return &Repository[T]{db: db, table: table, orderable: orderable}
}

// GetAll returns one page of live rows.
func (r *Repository[T]) GetAll(ctx context.Context, p Page) ([]T, error) {
	order, err := p.clause(r.orderable)
	if err != nil {
		return nil, err
	}
	skip, limit := p.bounds()
	q := fmt.Sprintf("SELECT * FROM %s WHERE deleted_at IS NULL ORDER BY %s OFFSET $1 LIMIT $2", r.table, order)

	out := []T{}
	if err := r.db.Executor(ctx).SelectContext(ctx, &out, q, skip, limit); err != nil {
		return nil, fmt.Errorf("repository: list %s: %w", r.table, err)
	}
	return out, nil
}

// GetByID returns the live row with id.
func (r *Repository[T]) GetByID(ctx context.Context, id int64) (*T, error) {
	var v T
	q := fmt.Sprintf("SELECT * FROM %s WHERE id = $1 AND deleted_at IS NULL", r.table)
	if err := r.db.Executor(ctx).GetContext(ctx, &v, q, id); err != nil {
		return nil, r.wrap("get", err)
	}
	return &v, nil
}

// Delete soft-deletes the row with id.
func (r *Repository[T]) Delete(ctx context.Context, id int64) error {
	q := fmt.Sprintf("UPDATE %s SET deleted_at = now(), updated_at = now() WHERE id = $1 AND deleted_at IS NULL", r.table)
	return r.execOne(ctx, "delete", q, id)
}

// ForceDelete removes the row with id, soft-deleted or not.
func (r *Repository[T]) ForceDelete(ctx context.Context, id int64) error {
	q := fmt.Sprintf("DELETE FROM %s WHERE id = $1", r.table)
	return r.execOne(ctx, "force delete", q, id)
}

func (r *Repository[T]) execOne(ctx context.Context, op, q string, args ...any) error {
	res, err := r.db.Executor(ctx).ExecContext(ctx, q, args...)
	if err != nil {
		return r.wrap(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return r.wrap(op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository[T]) wrap(op string, err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case isUniqueViolation(err):
		return fmt.Errorf("%w: %s: %w", ErrDuplicate, r.table, err)
	default:
		return fmt.Errorf("repository: %s %s: %w", op, r.table, err)
	}
}
