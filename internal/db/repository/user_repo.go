package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	sqlcgen "github.com/gokatarajesh/accounts-service/internal/db/sqlc"
)

// Postgres SQLSTATE for unique_violation and the constraint names from
// db/migrations/00001_create_users.sql.
const (
	uniqueViolation         = "23505"
	usersEmailConstraint    = "users_email_key"
	usersUsernameConstraint = "users_username_key"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrEmailTaken    = errors.New("email already registered")
	ErrUsernameTaken = errors.New("username already exists")
)

type userStore interface {
	CreateUser(ctx context.Context, arg sqlcgen.CreateUserParams) (sqlcgen.User, error)
	GetUserByID(ctx context.Context, id int64) (sqlcgen.User, error)
	GetUserByEmail(ctx context.Context, email string) (sqlcgen.User, error)
	GetUserByUsername(ctx context.Context, username string) (sqlcgen.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	UpdateUserProfile(ctx context.Context, arg sqlcgen.UpdateUserProfileParams) (sqlcgen.User, error)
	UpdateUserLogin(ctx context.Context, id int64) error
	DeleteUser(ctx context.Context, id int64) (int64, error)
}

// UserRepository exposes typed DB operations required by auth flows and
// maps driver errors to the package sentinels.
type UserRepository struct {
	store userStore
}

// NewUserRepository wraps sqlc Queries (or MemoryStore) for user operations.
func NewUserRepository(store userStore) *UserRepository {
	return &UserRepository{store: store}
}

// Create inserts a user. Lost uniqueness races surface as ErrEmailTaken or
// ErrUsernameTaken.
func (r *UserRepository) Create(ctx context.Context, params sqlcgen.CreateUserParams) (sqlcgen.User, error) {
	u, err := r.store.CreateUser(ctx, params)
	if err != nil {
		return sqlcgen.User{}, mapError(err)
	}
	return u, nil
}

// GetByID fetches a user by primary key.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (sqlcgen.User, error) {
	u, err := r.store.GetUserByID(ctx, id)
	if err != nil {
		return sqlcgen.User{}, mapError(err)
	}
	return u, nil
}

// GetByEmail fetches a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (sqlcgen.User, error) {
	u, err := r.store.GetUserByEmail(ctx, email)
	if err != nil {
		return sqlcgen.User{}, mapError(err)
	}
	return u, nil
}

// GetByUsername fetches a user by username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (sqlcgen.User, error) {
	u, err := r.store.GetUserByUsername(ctx, username)
	if err != nil {
		return sqlcgen.User{}, mapError(err)
	}
	return u, nil
}

// UsernameExists reports whether username is taken.
func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	exists, err := r.store.UsernameExists(ctx, username)
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return exists, nil
}

// UpdateProfile overwrites first/last name and email.
func (r *UserRepository) UpdateProfile(ctx context.Context, params sqlcgen.UpdateUserProfileParams) (sqlcgen.User, error) {
	u, err := r.store.UpdateUserProfile(ctx, params)
	if err != nil {
		return sqlcgen.User{}, mapError(err)
	}
	return u, nil
}

// UpdateLogin records the last login timestamp.
func (r *UserRepository) UpdateLogin(ctx context.Context, id int64) error {
	return r.store.UpdateUserLogin(ctx, id)
}

// Delete removes a user. Deleting a missing user returns ErrUserNotFound.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	n, err := r.store.DeleteUser(ctx, id)
	if err != nil {
		return mapError(err)
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func mapError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrUserNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		switch pgErr.ConstraintName {
		case usersEmailConstraint:
			return ErrEmailTaken
		case usersUsernameConstraint:
			return ErrUsernameTaken
		}
	}
	return err
}
