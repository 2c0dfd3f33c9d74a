package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Glivan2903/fazendo-90/internal/models"
	"github.com/Glivan2903/fazendo-90/internal/services"
)

type stubAuthService struct {
	result       *services.AuthResult
	err          error
	lastRegister services.RegisterInput
}

func (s *stubAuthService) Register(_ context.Context, input services.RegisterInput) (*services.AuthResult, error) {
	s.lastRegister = input
	return s.result, s.err
}

func (s *stubAuthService) Login(context.Context, string, string) (*services.AuthResult, error) {
	return s.result, s.err
}

func (s *stubAuthService) Me(_ context.Context, userID uuid.UUID) (*models.User, *models.Profile, error) {
	return &models.User{ID: userID, Role: models.RoleMember}, nil, s.err
}

func newAuthTestApp(service *stubAuthService) *fiber.App {
	handler := NewAuthHandler(service)
	app := fiber.New()
	app.Post("/api/auth/register", handler.Register)
	app.Post("/api/auth/login", handler.Login)
	app.Get("/api/auth/me", handler.Me)
	return app
}

func TestRegisterHandler(t *testing.T) {
	service := &stubAuthService{result: &services.AuthResult{Token: "t", User: &models.User{ID: uuid.New()}}}
	app := newAuthTestApp(service)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/auth/register", `{"email":"ana@example.com","password":"supersecret","name":"Ana"}`))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastRegister.Name != "Ana" {
		t.Fatalf("unexpected input %+v", service.lastRegister)
	}

	resp, err = app.Test(jsonRequest(http.MethodPost, "/api/auth/register", `{"email":"ana@example.com","password":"short"}`))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	conflict := newAuthTestApp(&stubAuthService{err: services.ErrEmailExists})
	resp, err = conflict.Test(jsonRequest(http.MethodPost, "/api/auth/register", `{"email":"ana@example.com","password":"supersecret"}`))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestLoginHandlerRejectsBadCredentials(t *testing.T) {
	app := newAuthTestApp(&stubAuthService{err: services.ErrInvalidCredentials})

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/auth/login", `{"email":"ana@example.com","password":"nope-nope"}`))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestMeRequiresIdentity(t *testing.T) {
	app := newAuthTestApp(&stubAuthService{})

	resp, err := app.Test(jsonRequest(http.MethodGet, "/api/auth/me", ""))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}
