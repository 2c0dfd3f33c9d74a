package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Glivan2903/fazendo-90/internal/middleware"
	"github.com/Glivan2903/fazendo-90/internal/models"
	"github.com/Glivan2903/fazendo-90/internal/services"
)

const (
	msgCheckInBooked    = "Check-in realizado com sucesso!"
	msgCheckInAlready   = "Você já está inscrito nesta aula"
	msgCheckInConflict  = "Você já tem check-in em outra aula neste dia"
	msgCheckInFull      = "Aula lotada"
	msgCheckInLoggedOut = "Você precisa estar logado para fazer check-in"
	msgCheckInFailed    = "Erro ao fazer check-in"
	msgCheckInChanged   = "Check-in alterado com sucesso!"
	msgCancelDone       = "Check-in cancelado com sucesso"
	msgCancelLoggedOut  = "Você precisa estar logado para cancelar o check-in"
	msgCancelFailed     = "Erro ao cancelar check-in"
	msgClassNotFound    = "Aula não encontrada"
	msgClassUnavailable = "Não foi possível carregar a aula"
	msgInvalidDate      = "Data inválida, use o formato AAAA-MM-DD"
)

type bookingService interface {
	Today() time.Time
	ListClasses(ctx context.Context, viewer services.Viewer, date time.Time) models.ClassListing
	GetClassDetail(ctx context.Context, viewer services.Viewer, classID string) (*models.ClassDetailView, error)
	CheckIn(ctx context.Context, viewer services.Viewer, classID string) (services.CheckInResult, error)
	CancelCheckIn(ctx context.Context, viewer services.Viewer, classID string) (bool, error)
	ChangeCheckIn(ctx context.Context, viewer services.Viewer, fromClassID, toClassID string) (services.CheckInResult, error)
}

type ClassHandler struct {
	service bookingService
}

func NewClassHandler(service bookingService) *ClassHandler {
	return &ClassHandler{service: service}
}

type checkInResponse struct {
	Success         bool                    `json:"success"`
	Outcome         services.CheckInOutcome `json:"outcome"`
	ConflictClassID string                  `json:"conflict_class_id,omitempty"`
	Message         string                  `json:"message"`
}

type changeCheckInRequest struct {
	FromClassID string `json:"from_class_id"`
}

func (h *ClassHandler) ListClasses(c *fiber.Ctx) error {
	day := h.service.Today()
	if raw := strings.TrimSpace(c.Query("date")); raw != "" {
		parsed, err := services.ParseDay(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msgInvalidDate})
		}
		day = parsed
	}

	listing := h.service.ListClasses(c.UserContext(), viewerFrom(c), day)
	return c.JSON(listing)
}

func (h *ClassHandler) GetClass(c *fiber.Ctx) error {
	detail, err := h.service.GetClassDetail(c.UserContext(), viewerFrom(c), c.Params("id"))
	if err != nil {
		if errors.Is(err, services.ErrClassNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": msgClassNotFound})
		}
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": msgClassUnavailable})
	}
	return c.JSON(detail)
}

func (h *ClassHandler) CheckIn(c *fiber.Ctx) error {
	result, err := h.service.CheckIn(c.UserContext(), viewerFrom(c), c.Params("id"))
	return writeCheckInResult(c, result, err, msgCheckInBooked)
}

func (h *ClassHandler) CancelCheckIn(c *fiber.Ctx) error {
	viewer := viewerFrom(c)
	if !viewer.Authenticated {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "error": msgCancelLoggedOut})
	}

	if _, err := h.service.CancelCheckIn(c.UserContext(), viewer, c.Params("id")); err != nil {
		switch {
		case errors.Is(err, services.ErrClassNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "error": msgClassNotFound})
		case errors.Is(err, services.ErrUnauthenticated):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "error": msgCancelLoggedOut})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": msgCancelFailed})
	}
	return c.JSON(fiber.Map{"success": true, "message": msgCancelDone})
}

// ChangeCheckIn confirms a move from the conflicting class named in the body
// to the class in the path.
func (h *ClassHandler) ChangeCheckIn(c *fiber.Ctx) error {
	var req changeCheckInRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.FromClassID) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "from_class_id is required"})
	}

	result, err := h.service.ChangeCheckIn(c.UserContext(), viewerFrom(c), strings.TrimSpace(req.FromClassID), c.Params("id"))
	return writeCheckInResult(c, result, err, msgCheckInChanged)
}

func writeCheckInResult(c *fiber.Ctx, result services.CheckInResult, err error, bookedMessage string) error {
	if err != nil && errors.Is(err, services.ErrClassNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(checkInResponse{
			Outcome: services.OutcomeFailed,
			Message: msgClassNotFound,
		})
	}

	status, message := fiber.StatusInternalServerError, msgCheckInFailed
	if err == nil {
		switch result.Outcome {
		case services.OutcomeBooked:
			status, message = fiber.StatusCreated, bookedMessage
		case services.OutcomeAlreadyBooked:
			status, message = fiber.StatusOK, msgCheckInAlready
		case services.OutcomeConflict:
			status, message = fiber.StatusConflict, msgCheckInConflict
		case services.OutcomeFull:
			status, message = fiber.StatusConflict, msgCheckInFull
		case services.OutcomeUnauthenticated:
			status, message = fiber.StatusUnauthorized, msgCheckInLoggedOut
		}
	}
	if err != nil {
		result = services.CheckInResult{Outcome: services.OutcomeFailed}
	}

	return c.Status(status).JSON(checkInResponse{
		Success:         result.Booked(),
		Outcome:         result.Outcome,
		ConflictClassID: result.ConflictClassID,
		Message:         message,
	})
}

func viewerFrom(c *fiber.Ctx) services.Viewer {
	userID, ok := middleware.UserID(c)
	if !ok {
		return services.Viewer{}
	}
	return services.AuthenticatedViewer(userID)
}
