package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/Glivan2903/fazendo-90/internal/models"
	"github.com/Glivan2903/fazendo-90/internal/repository"
	"github.com/Glivan2903/fazendo-90/pkg/utils"
)

var (
	ErrInvalidEmail       = errors.New("invalid email")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
)

const minPasswordLength = 8

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role string) error
}

type profileReader interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
}

type AuthService struct {
	tx        txRunner
	users     userStore
	profiles  profileReader
	jwtSecret string
}

func NewAuthService(tx txRunner, users userStore, profiles profileReader, jwtSecret string) *AuthService {
	return &AuthService{
		tx:        tx,
		users:     users,
		profiles:  profiles,
		jwtSecret: jwtSecret,
	}
}

type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

// Register creates a member account with an empty profile.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	user, err := s.createAccount(ctx, input, models.RoleMember)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !utils.CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return s.issue(user)
}

func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*models.User, *models.Profile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, err
	}

	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, err
	}
	return user, profile, nil
}

// EnsureAccount makes sure a bootstrap account exists with at least the given
// role. Existing passwords are left alone.
func (s *AuthService) EnsureAccount(ctx context.Context, email, password, role, name string) error {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return err
	}

	existing, err := s.users.GetByEmail(ctx, normalized)
	switch {
	case err == nil:
		if existing.Role != role && existing.Role != models.RoleAdmin {
			log.Ctx(ctx).Info().Str("email", normalized).Str("role", role).Msg("Promoting bootstrap account")
			return s.users.UpdateRole(ctx, existing.ID, role)
		}
		return nil
	case !errors.Is(err, pgx.ErrNoRows):
		return err
	}

	if _, err := s.createAccount(ctx, RegisterInput{Email: normalized, Password: password, Name: name}, role); err != nil {
		return err
	}
	log.Ctx(ctx).Info().Str("email", normalized).Str("role", role).Msg("Bootstrap account created")
	return nil
}

func (s *AuthService) createAccount(ctx context.Context, input RegisterInput, role string) (*models.User, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if len(input.Password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{Email: email, PasswordHash: hashed, Role: role}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}

	err = s.tx.WithinTx(ctx, func(tx repository.DBTX) error {
		if err := repository.NewUserRepository(tx).CreateUser(ctx, user); err != nil {
			return err
		}
		return repository.NewProfileRepository(tx).Create(ctx, user.ID, name)
	})
	if err != nil {
		if _, ok := repository.UniqueViolation(err); ok {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, err := utils.GenerateToken(user.ID.String(), user.Role, s.jwtSecret)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

func normalizeEmail(email string) (string, error) {
	parsed, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(parsed.Address), nil
}
