package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/accounts-service/internal/auth/jwt"
	"github.com/gokatarajesh/accounts-service/internal/db/repository"
	sqlcgen "github.com/gokatarajesh/accounts-service/internal/db/sqlc"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 150
	maxNameLength     = 150

	// resolveAttempts bounds find-or-create retries after losing a
	// uniqueness race.
	resolveAttempts = 5

	fallbackUsername = "user"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)

type userRepository interface {
	Create(ctx context.Context, params sqlcgen.CreateUserParams) (sqlcgen.User, error)
	GetByID(ctx context.Context, id int64) (sqlcgen.User, error)
	GetByEmail(ctx context.Context, email string) (sqlcgen.User, error)
	GetByUsername(ctx context.Context, username string) (sqlcgen.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	UpdateProfile(ctx context.Context, params sqlcgen.UpdateUserProfileParams) (sqlcgen.User, error)
	UpdateLogin(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

// Service handles authentication and user management.
type Service struct {
	users    userRepository
	tokenMgr *jwt.Manager
	logger   zerolog.Logger
}

// NewService creates an authentication service.
func NewService(users userRepository, tokenCfg jwt.TokenConfig, logger zerolog.Logger) *Service {
	return &Service{
		users:    users,
		tokenMgr: jwt.NewManager(tokenCfg),
		logger:   logger,
	}
}

// Register creates a new account with a usable password.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if err := validateRegister(req); err != nil {
		return nil, err
	}

	exists, err := s.users.UsernameExists(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUsernameTaken
	}
	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	passwordHash, err := HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	dbUser, err := s.users.Create(ctx, sqlcgen.CreateUserParams{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  passwordHash,
	})
	if err != nil {
		return nil, mapRepoError(err)
	}

	user := toUser(dbUser)
	s.logger.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("user registered")
	return &user, nil
}

// Login authenticates a user with username/password.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*TokenPair, error) {
	dbUser, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if !dbUser.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := VerifyPassword(dbUser.Password, req.Password); err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := s.users.UpdateLogin(ctx, dbUser.ID); err != nil {
		s.logger.Warn().Err(err).Int64("user_id", dbUser.ID).Msg("failed to record last login")
	}

	tokens, err := s.IssueTokens(toUser(dbUser))
	if err != nil {
		return nil, fmt.Errorf("generate tokens: %w", err)
	}

	s.logger.Info().Int64("user_id", dbUser.ID).Msg("user logged in")
	return tokens, nil
}

// RefreshToken returns a fresh access token for a valid refresh token whose
// user still exists.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokenMgr.ValidateRefreshToken(refreshToken)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	dbUser, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", ErrInvalidToken
		}
		return "", fmt.Errorf("lookup user: %w", err)
	}
	if !dbUser.IsActive {
		return "", ErrInvalidToken
	}

	return s.tokenMgr.GenerateAccessToken(jwt.Subject{ID: dbUser.ID, Username: dbUser.Username})
}

// VerifyToken checks the signature and lifetime of a token of either type.
func (s *Service) VerifyToken(token string) error {
	if _, err := s.tokenMgr.Validate(token); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return nil
}

// ValidateToken validates an access token and returns user claims.
func (s *Service) ValidateToken(tokenString string) (*jwt.Claims, error) {
	return s.tokenMgr.ValidateAccessToken(tokenString)
}

// IssueTokens signs a new access/refresh pair for user.
func (s *Service) IssueTokens(user User) (*TokenPair, error) {
	sub := jwt.Subject{ID: user.ID, Username: user.Username}

	accessToken, err := s.tokenMgr.GenerateAccessToken(sub)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.tokenMgr.GenerateRefreshToken(sub)
	if err != nil {
		return nil, err
	}

	return &TokenPair{Access: accessToken, Refresh: refreshToken}, nil
}

// FindOrCreateByEmail returns the user owning identity.Email, creating one
// with a de-duplicated username and an unusable password when none exists.
// Existing users are returned unchanged.
func (s *Service) FindOrCreateByEmail(ctx context.Context, identity Identity) (*User, error) {
	if identity.Email == "" {
		return nil, ErrEmailRequired
	}

	base := usernameBase(identity)

	for attempt := 0; attempt < resolveAttempts; attempt++ {
		existing, err := s.users.GetByEmail(ctx, identity.Email)
		if err == nil {
			user := toUser(existing)
			return &user, nil
		}
		if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("lookup email: %w", err)
		}

		username, err := s.uniqueUsername(ctx, base)
		if err != nil {
			return nil, err
		}

		password, err := MakeUnusablePassword()
		if err != nil {
			return nil, fmt.Errorf("generate password marker: %w", err)
		}

		created, err := s.users.Create(ctx, sqlcgen.CreateUserParams{
			Username:  username,
			Email:     identity.Email,
			FirstName: identity.FirstName,
			LastName:  identity.LastName,
			Password:  password,
		})
		switch {
		case err == nil:
			user := toUser(created)
			s.logger.Info().Int64("user_id", user.ID).Str("username", username).Msg("user created from external identity")
			return &user, nil
		case errors.Is(err, repository.ErrEmailTaken), errors.Is(err, repository.ErrUsernameTaken):
			s.logger.Debug().Err(err).Int("attempt", attempt+1).Msg("lost uniqueness race, retrying")
			continue
		default:
			return nil, fmt.Errorf("create user: %w", err)
		}
	}

	return nil, ErrResolveConflict
}

// uniqueUsername returns base if free, else the first free base1, base2, ...
func (s *Service) uniqueUsername(ctx context.Context, base string) (string, error) {
	candidate := base
	for n := 1; ; n++ {
		exists, err := s.users.UsernameExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = base + strconv.Itoa(n)
	}
}

// GetUser fetches a user by ID.
func (s *Service) GetUser(ctx context.Context, id int64) (*User, error) {
	dbUser, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	user := toUser(dbUser)
	return &user, nil
}

// UpdateProfile applies the non-nil fields of req.
func (s *Service) UpdateProfile(ctx context.Context, id int64, req UpdateProfileRequest) (*User, error) {
	current, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}

	params := sqlcgen.UpdateUserProfileParams{
		ID:        id,
		FirstName: current.FirstName,
		LastName:  current.LastName,
		Email:     current.Email,
	}
	if req.FirstName != nil {
		if utf8.RuneCountInString(*req.FirstName) > maxNameLength {
			return nil, invalid("first_name", "must be at most 150 characters")
		}
		params.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		if utf8.RuneCountInString(*req.LastName) > maxNameLength {
			return nil, invalid("last_name", "must be at most 150 characters")
		}
		params.LastName = *req.LastName
	}
	if req.Email != nil && *req.Email != current.Email {
		if !emailPattern.MatchString(*req.Email) {
			return nil, invalid("email", "enter a valid email address")
		}
		other, err := s.users.GetByEmail(ctx, *req.Email)
		if err == nil && other.ID != id {
			return nil, ErrEmailTaken
		}
		if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("lookup email: %w", err)
		}
		params.Email = *req.Email
	}

	updated, err := s.users.UpdateProfile(ctx, params)
	if err != nil {
		return nil, mapRepoError(err)
	}
	user := toUser(updated)
	return &user, nil
}

// DeleteUser removes the account.
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return mapRepoError(err)
	}
	s.logger.Info().Int64("user_id", id).Msg("user deleted")
	return nil
}

func validateRegister(req RegisterRequest) error {
	n := utf8.RuneCountInString(req.Username)
	if n < minUsernameLength || n > maxUsernameLength {
		return invalid("username", "must be between 3 and 150 characters")
	}
	if !emailPattern.MatchString(req.Email) {
		return invalid("email", "enter a valid email address")
	}
	if len(req.Password) < minPasswordLength {
		return invalid("password", ErrPasswordTooShort.Error())
	}
	return nil
}

// usernameBase picks the suggested username, else the email local part.
func usernameBase(identity Identity) string {
	base := strings.TrimSpace(identity.Username)
	if base == "" {
		base, _, _ = strings.Cut(identity.Email, "@")
	}
	if base == "" {
		base = fallbackUsername
	}
	if utf8.RuneCountInString(base) > maxUsernameLength-10 {
		base = string([]rune(base)[:maxUsernameLength-10])
	}
	return base
}

func mapRepoError(err error) error {
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		return ErrUserNotFound
	case errors.Is(err, repository.ErrEmailTaken):
		return ErrEmailTaken
	case errors.Is(err, repository.ErrUsernameTaken):
		return ErrUsernameTaken
	default:
		return err
	}
}

func toUser(u sqlcgen.User) User {
	user := User{
		ID:                u.ID,
		Username:          u.Username,
		Email:             u.Email,
		FirstName:         u.FirstName,
		LastName:          u.LastName,
		IsActive:          u.IsActive,
		HasUsablePassword: IsUsablePassword(u.Password),
	}
	if u.DateJoined.Valid {
		user.DateJoined = u.DateJoined.Time
	}
	if u.LastLogin.Valid {
		t := u.LastLogin.Time
		user.LastLogin = &t
	}
	return user
}
