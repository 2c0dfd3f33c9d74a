package handlers

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Glivan2903/fazendo-90/internal/models"
	"github.com/Glivan2903/fazendo-90/internal/services"
)

type scheduleService interface {
	CreateClass(ctx context.Context, input services.ScheduleInput) (*models.ClassSession, error)
	UpdateClass(ctx context.Context, classID uuid.UUID, input services.ScheduleInput) (*models.ClassSession, error)
	DeleteClass(ctx context.Context, classID uuid.UUID) error
	ListPrograms(ctx context.Context) ([]models.Program, error)
	CreateProgram(ctx context.Context, name string, description *string) (*models.Program, error)
	ListCoaches(ctx context.Context) ([]models.Coach, error)
}

type ScheduleHandler struct {
	service  scheduleService
	validate *validator.Validate
}

func NewScheduleHandler(service scheduleService) *ScheduleHandler {
	return &ScheduleHandler{
		service:  service,
		validate: validator.New(),
	}
}

type classRequest struct {
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime   string `json:"start_time" validate:"required"`
	EndTime     string `json:"end_time" validate:"required"`
	MaxCapacity int    `json:"max_capacity" validate:"required,min=1"`
	ProgramID   string `json:"program_id" validate:"required,uuid"`
	CoachID     string `json:"coach_id" validate:"required,uuid"`
}

type programRequest struct {
	Name        string  `json:"name" validate:"required,min=2,max=80"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

func (h *ScheduleHandler) CreateClass(c *fiber.Ctx) error {
	input, ok := h.parseClassRequest(c)
	if !ok {
		return nil
	}

	session, err := h.service.CreateClass(c.UserContext(), input)
	if err != nil {
		return mapScheduleError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"class": session})
}

func (h *ScheduleHandler) UpdateClass(c *fiber.Ctx) error {
	classID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": msgClassNotFound})
	}
	input, ok := h.parseClassRequest(c)
	if !ok {
		return nil
	}

	session, err := h.service.UpdateClass(c.UserContext(), classID, input)
	if err != nil {
		return mapScheduleError(c, err)
	}
	return c.JSON(fiber.Map{"class": session})
}

func (h *ScheduleHandler) DeleteClass(c *fiber.Ctx) error {
	classID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": msgClassNotFound})
	}
	if err := h.service.DeleteClass(c.UserContext(), classID); err != nil {
		return mapScheduleError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ScheduleHandler) ListPrograms(c *fiber.Ctx) error {
	programs, err := h.service.ListPrograms(c.UserContext())
	if err != nil {
		return mapScheduleError(c, err)
	}
	return c.JSON(fiber.Map{"programs": programs})
}

func (h *ScheduleHandler) CreateProgram(c *fiber.Ctx) error {
	var req programRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input", "details": err.Error()})
	}

	program, err := h.service.CreateProgram(c.UserContext(), req.Name, req.Description)
	if err != nil {
		return mapScheduleError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"program": program})
}

func (h *ScheduleHandler) ListCoaches(c *fiber.Ctx) error {
	coaches, err := h.service.ListCoaches(c.UserContext())
	if err != nil {
		return mapScheduleError(c, err)
	}
	return c.JSON(fiber.Map{"coaches": coaches})
}

// parseClassRequest writes the 400 response itself and reports false when the
// body is unusable.
func (h *ScheduleHandler) parseClassRequest(c *fiber.Ctx) (services.ScheduleInput, bool) {
	var req classRequest
	if err := c.BodyParser(&req); err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
		return services.ScheduleInput{}, false
	}
	if err := h.validate.Struct(&req); err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input", "details": err.Error()})
		return services.ScheduleInput{}, false
	}

	return services.ScheduleInput{
		Date:        req.Date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		MaxCapacity: req.MaxCapacity,
		ProgramID:   uuid.MustParse(req.ProgramID),
		CoachID:     uuid.MustParse(req.CoachID),
	}, true
}

func mapScheduleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidSchedule):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Horário inválido: verifique data, horários e capacidade"})
	case errors.Is(err, services.ErrClassNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": msgClassNotFound})
	case errors.Is(err, services.ErrProgramNotFound):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Programa não encontrado"})
	case errors.Is(err, services.ErrCoachNotFound):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Coach não encontrado"})
	case errors.Is(err, services.ErrProgramExists):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Programa já existe"})
	}

	log.Ctx(c.UserContext()).Error().Err(err).Str("path", c.Path()).Msg("schedule request failed")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
}
