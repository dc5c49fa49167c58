package repository

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	sqlcgen "github.com/gokatarajesh/accounts-service/internal/db/sqlc"
)

// MemoryStore is an in-process stand-in for the sqlc Queries. It reports
// missing rows and unique violations with the same pgx error values as
// Postgres so UserRepository maps them identically.
type MemoryStore struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]sqlcgen.User
}

var _ userStore = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[int64]sqlcgen.User)}
}

func (s *MemoryStore) CreateUser(_ context.Context, arg sqlcgen.CreateUserParams) (sqlcgen.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUniqueLocked(0, arg.Username, arg.Email); err != nil {
		return sqlcgen.User{}, err
	}

	s.nextID++
	u := sqlcgen.User{
		ID:         s.nextID,
		Username:   arg.Username,
		Email:      arg.Email,
		FirstName:  arg.FirstName,
		LastName:   arg.LastName,
		Password:   arg.Password,
		IsActive:   true,
		DateJoined: pgtype.Timestamptz{Time: time.Now().UTC(), Valid: true},
	}
	s.users[u.ID] = u
	return u, nil
}

func (s *MemoryStore) GetUserByID(_ context.Context, id int64) (sqlcgen.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return sqlcgen.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (sqlcgen.User, error) {
	return s.find(func(u sqlcgen.User) bool { return u.Email == email })
}

func (s *MemoryStore) GetUserByUsername(_ context.Context, username string) (sqlcgen.User, error) {
	return s.find(func(u sqlcgen.User) bool { return u.Username == username })
}

func (s *MemoryStore) UsernameExists(_ context.Context, username string) (bool, error) {
	_, err := s.find(func(u sqlcgen.User) bool { return u.Username == username })
	if err == pgx.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

func (s *MemoryStore) UpdateUserProfile(_ context.Context, arg sqlcgen.UpdateUserProfileParams) (sqlcgen.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[arg.ID]
	if !ok {
		return sqlcgen.User{}, pgx.ErrNoRows
	}
	if err := s.checkUniqueLocked(arg.ID, "", arg.Email); err != nil {
		return sqlcgen.User{}, err
	}
	u.FirstName = arg.FirstName
	u.LastName = arg.LastName
	u.Email = arg.Email
	s.users[u.ID] = u
	return u, nil
}

func (s *MemoryStore) UpdateUserLogin(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil
	}
	u.LastLogin = pgtype.Timestamptz{Time: time.Now().UTC(), Valid: true}
	s.users[id] = u
	return nil
}

func (s *MemoryStore) DeleteUser(_ context.Context, id int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return 0, nil
	}
	delete(s.users, id)
	return 1, nil
}

// Count returns the number of stored users.
func (s *MemoryStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

func (s *MemoryStore) find(match func(sqlcgen.User) bool) (sqlcgen.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if match(u) {
			return u, nil
		}
	}
	return sqlcgen.User{}, pgx.ErrNoRows
}

// checkUniqueLocked enforces the UNIQUE constraints, ignoring the row with
// id self. Empty values are not checked.
func (s *MemoryStore) checkUniqueLocked(self int64, username, email string) error {
	for id, u := range s.users {
		if id == self {
			continue
		}
		if username != "" && u.Username == username {
			return &pgconn.PgError{Code: uniqueViolation, ConstraintName: usersUsernameConstraint}
		}
		if email != "" && u.Email == email {
			return &pgconn.PgError{Code: uniqueViolation, ConstraintName: usersEmailConstraint}
		}
	}
	return nil
}
