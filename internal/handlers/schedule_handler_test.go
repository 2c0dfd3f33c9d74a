package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Glivan2903/fazendo-90/internal/models"
	"github.com/Glivan2903/fazendo-90/internal/services"
)

type stubScheduleService struct {
	createErr   error
	updateErr   error
	deleteErr   error
	lastInput   services.ScheduleInput
	lastClassID uuid.UUID
	programs    []models.Program
}

func (s *stubScheduleService) CreateClass(_ context.Context, input services.ScheduleInput) (*models.ClassSession, error) {
	s.lastInput = input
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &models.ClassSession{ID: uuid.New(), Date: input.Date, StartTime: input.StartTime}, nil
}

func (s *stubScheduleService) UpdateClass(_ context.Context, classID uuid.UUID, input services.ScheduleInput) (*models.ClassSession, error) {
	s.lastClassID = classID
	s.lastInput = input
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	return &models.ClassSession{ID: classID, Date: input.Date}, nil
}

func (s *stubScheduleService) DeleteClass(_ context.Context, classID uuid.UUID) error {
	s.lastClassID = classID
	return s.deleteErr
}

func (s *stubScheduleService) ListPrograms(context.Context) ([]models.Program, error) {
	return s.programs, nil
}

func (s *stubScheduleService) CreateProgram(_ context.Context, name string, _ *string) (*models.Program, error) {
	return &models.Program{ID: uuid.New(), Name: name}, nil
}

func (s *stubScheduleService) ListCoaches(context.Context) ([]models.Coach, error) {
	return []models.Coach{}, nil
}

func newScheduleTestApp(service *stubScheduleService) *fiber.App {
	handler := NewScheduleHandler(service)
	app := fiber.New()
	app.Post("/api/v1/admin/classes", handler.CreateClass)
	app.Put("/api/v1/admin/classes/:id", handler.UpdateClass)
	app.Delete("/api/v1/admin/classes/:id", handler.DeleteClass)
	app.Post("/api/v1/admin/programs", handler.CreateProgram)
	return app
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestCreateClassRequestValidation(t *testing.T) {
	service := &stubScheduleService{}
	app := newScheduleTestApp(service)
	programID, coachID := uuid.NewString(), uuid.NewString()

	invalid := []string{
		`{"date":"20/10/2026","start_time":"07:00","end_time":"08:00","max_capacity":15,"program_id":"` + programID + `","coach_id":"` + coachID + `"}`,
		`{"date":"2026-10-20","start_time":"07:00","end_time":"08:00","max_capacity":0,"program_id":"` + programID + `","coach_id":"` + coachID + `"}`,
		`{"date":"2026-10-20","start_time":"07:00","end_time":"08:00","max_capacity":15,"program_id":"nope","coach_id":"` + coachID + `"}`,
		`not json`,
	}
	for _, body := range invalid {
		resp, err := app.Test(jsonRequest(http.MethodPost, "/api/v1/admin/classes", body))
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400 for %s, got %d", body, resp.StatusCode)
		}
	}

	valid := `{"date":"2026-10-20","start_time":"07:00","end_time":"08:00","max_capacity":15,"program_id":"` + programID + `","coach_id":"` + coachID + `"}`
	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/v1/admin/classes", valid))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastInput.ProgramID.String() != programID || service.lastInput.MaxCapacity != 15 {
		t.Fatalf("unexpected input %+v", service.lastInput)
	}
}

func TestScheduleErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{services.ErrInvalidSchedule, http.StatusBadRequest},
		{services.ErrClassNotFound, http.StatusNotFound},
		{services.ErrProgramNotFound, http.StatusUnprocessableEntity},
		{services.ErrCoachNotFound, http.StatusUnprocessableEntity},
	}
	body := `{"date":"2026-10-20","start_time":"07:00","end_time":"08:00","max_capacity":15,"program_id":"` +
		uuid.NewString() + `","coach_id":"` + uuid.NewString() + `"}`

	for _, tc := range cases {
		app := newScheduleTestApp(&stubScheduleService{updateErr: tc.err})
		resp, err := app.Test(jsonRequest(http.MethodPut, "/api/v1/admin/classes/"+uuid.NewString(), body))
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		if resp.StatusCode != tc.status {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.status, resp.StatusCode)
		}
	}
}

func TestDeleteClassHandler(t *testing.T) {
	service := &stubScheduleService{}
	app := newScheduleTestApp(service)
	classID := uuid.New()

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/api/v1/admin/classes/"+classID.String(), nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusNoContent || service.lastClassID != classID {
		t.Fatalf("expected 204 for %s, got %d", classID, resp.StatusCode)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, "/api/v1/admin/classes/not-a-uuid", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestCreateProgramRequiresName(t *testing.T) {
	app := newScheduleTestApp(&stubScheduleService{})

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/v1/admin/programs", `{"name":""}`))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	resp, err = app.Test(jsonRequest(http.MethodPost, "/api/v1/admin/programs", `{"name":"LPO"}`))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
}
