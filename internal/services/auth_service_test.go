package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"

	"github.com/Glivan2903/fazendo-90/internal/models"
	"github.com/Glivan2903/fazendo-90/internal/repository"
	"github.com/Glivan2903/fazendo-90/pkg/utils"
)

const testJWTSecret = "test-secret"

type stubUserStore struct {
	byEmail     *models.User
	byEmailErr  error
	byID        *models.User
	byIDErr     error
	promotedTo  string
	promotedFor uuid.UUID
}

func (s *stubUserStore) GetByEmail(context.Context, string) (*models.User, error) {
	return s.byEmail, s.byEmailErr
}

func (s *stubUserStore) GetByID(context.Context, uuid.UUID) (*models.User, error) {
	return s.byID, s.byIDErr
}

func (s *stubUserStore) UpdateRole(_ context.Context, id uuid.UUID, role string) error {
	s.promotedFor = id
	s.promotedTo = role
	return nil
}

type stubProfileReader struct {
	profile *models.Profile
	err     error
}

func (s *stubProfileReader) GetByUserID(context.Context, uuid.UUID) (*models.Profile, error) {
	return s.profile, s.err
}

func TestRegisterCreatesMemberWithProfile(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	userID := uuid.New()
	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("ana@example.com", pgxmock.AnyArg(), models.RoleMember).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(userID, now, now))
	mock.ExpectExec(`INSERT INTO profiles`).
		WithArgs(userID, "Ana Souza").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	service := NewAuthService(repository.NewTxManager(mock), &stubUserStore{}, &stubProfileReader{}, testJWTSecret)
	result, err := service.Register(context.Background(), RegisterInput{
		Email:    "  Ana@Example.com ",
		Password: "supersecret",
		Name:     "Ana Souza",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if result.User.ID != userID || result.User.Role != models.RoleMember {
		t.Fatalf("unexpected user %+v", result.User)
	}

	claims, err := utils.ValidateToken(result.Token, testJWTSecret)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != userID.String() {
		t.Fatalf("token subject mismatch: %s", claims.UserID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})
	mock.ExpectRollback()

	service := NewAuthService(repository.NewTxManager(mock), &stubUserStore{}, &stubProfileReader{}, testJWTSecret)
	_, err = service.Register(context.Background(), RegisterInput{Email: "ana@example.com", Password: "supersecret"})
	if !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	service := NewAuthService(nil, &stubUserStore{}, &stubProfileReader{}, testJWTSecret)

	if _, err := service.Register(context.Background(), RegisterInput{Email: "nope", Password: "supersecret"}); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
	if _, err := service.Register(context.Background(), RegisterInput{Email: "ana@example.com", Password: "short"}); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	hashed, err := utils.HashPassword("supersecret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	user := &models.User{ID: uuid.New(), Email: "ana@example.com", PasswordHash: hashed, Role: models.RoleMember}
	service := NewAuthService(nil, &stubUserStore{byEmail: user}, &stubProfileReader{}, testJWTSecret)

	result, err := service.Login(context.Background(), "ANA@example.com", "supersecret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if result.Token == "" {
		t.Fatal("expected token")
	}

	if _, err := service.Login(context.Background(), "ana@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	missing := NewAuthService(nil, &stubUserStore{byEmailErr: pgx.ErrNoRows}, &stubProfileReader{}, testJWTSecret)
	if _, err := missing.Login(context.Background(), "ghost@example.com", "supersecret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestEnsureAccountPromotesExistingUser(t *testing.T) {
	existing := &models.User{ID: uuid.New(), Email: "coach@example.com", Role: models.RoleMember}
	users := &stubUserStore{byEmail: existing}
	service := NewAuthService(nil, users, &stubProfileReader{}, testJWTSecret)

	if err := service.EnsureAccount(context.Background(), "coach@example.com", "supersecret", models.RoleCoach, "Coach"); err != nil {
		t.Fatalf("EnsureAccount: %v", err)
	}
	if users.promotedTo != models.RoleCoach || users.promotedFor != existing.ID {
		t.Fatalf("expected promotion to coach, got %q for %s", users.promotedTo, users.promotedFor)
	}
}

func TestMeWithoutProfile(t *testing.T) {
	user := &models.User{ID: uuid.New(), Email: "ana@example.com", Role: models.RoleMember}
	service := NewAuthService(nil, &stubUserStore{byID: user}, &stubProfileReader{err: pgx.ErrNoRows}, testJWTSecret)

	gotUser, profile, err := service.Me(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if gotUser.ID != user.ID || profile != nil {
		t.Fatalf("unexpected result %+v %+v", gotUser, profile)
	}

	missing := NewAuthService(nil, &stubUserStore{byIDErr: pgx.ErrNoRows}, &stubProfileReader{}, testJWTSecret)
	if _, _, err := missing.Me(context.Background(), uuid.New()); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
