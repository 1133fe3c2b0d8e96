package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/km-arc/fastie/app/models"
	"github.com/km-arc/fastie/app/schemas"
	"github.com/km-arc/fastie/framework/database"
)

// UserRepository is the data access contract for users.
type UserRepository interface {
	GetAll(ctx context.Context, p Page) ([]models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
	Update(ctx context.Context, id int64, in schemas.UserUpdate) (*models.User, error)
	Delete(ctx context.Context, id int64) error
	ForceDelete(ctx context.Context, id int64) error
}

// SQLUserRepository stores users in Postgres.
type SQLUserRepository struct {
	*Repository[models.User]
}

// NewUserRepository builds the users repository on the shared Context.
func NewUserRepository(db *database.Context) *SQLUserRepository {
	return &SQLUserRepository{
		Repository: NewRepository[models.User](db, models.User{}.TableName(), "name", "email", "created_at", "updated_at"),
	}
}

// FindByEmail looks a live user up by email, case-insensitively.
func (r *SQLUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	q := "SELECT * FROM users WHERE lower(email) = lower($1) AND deleted_at IS NULL LIMIT 1"
	if err := r.db.Executor(ctx).GetContext(ctx, &u, q, email); err != nil {
		return nil, r.wrap("find by email", err)
	}
	return &u, nil
}

// Create inserts u and fills its id and timestamps.
func (r *SQLUserRepository) Create(ctx context.Context, u *models.User) error {
	q := `INSERT INTO users (name, email, password, is_active, avatar, token)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, created_at, updated_at`
	row := r.db.Executor(ctx).QueryRowxContext(ctx, q, u.Name, u.Email, u.Password, u.IsActive, u.Avatar, u.Token)
	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return r.wrap("create", err)
	}
	return nil
}

// Update applies the non-nil fields of in. An empty update returns the
// current row.
func (r *SQLUserRepository) Update(ctx context.Context, id int64, in schemas.UserUpdate) (*models.User, error) {
	if in.Empty() {
		return r.GetByID(ctx, id)
	}

	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if in.Name != nil {
		set("name", *in.Name)
	}
	if in.Email != nil {
		set("email", *in.Email)
	}
	if in.Password != nil {
		set("password", *in.Password)
	}
	if in.IsActive != nil {
		set("is_active", *in.IsActive)
	}
	if in.Avatar != nil {
		set("avatar", *in.Avatar)
	}
	if in.Token != nil {
		set("token", *in.Token)
	}
	args = append(args, id)

	q := fmt.Sprintf("UPDATE users SET %s, updated_at = now() WHERE id = $%d AND deleted_at IS NULL RETURNING *",
		strings.Join(sets, ", "), len(args))

	var u models.User
	if err := r.db.Executor(ctx).QueryRowxContext(ctx, q, args...).StructScan(&u); err != nil {
		return nil, r.wrap("update", err)
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
