package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Glivan2903/fazendo-90/internal/middleware"
	"github.com/Glivan2903/fazendo-90/internal/models"
	"github.com/Glivan2903/fazendo-90/internal/repository"
	"github.com/Glivan2903/fazendo-90/internal/services"
)

type billingService interface {
	CreateSubscription(ctx context.Context, input repository.CreateSubscriptionInput) (*models.Subscription, error)
	ListSubscriptions(ctx context.Context, filter repository.BillingFilter) ([]models.Subscription, int, error)
	CreateInvoice(ctx context.Context, input repository.CreateInvoiceInput) (*models.Invoice, error)
	ListInvoices(ctx context.Context, filter repository.BillingFilter) ([]models.Invoice, int, error)
	RecordPayment(ctx context.Context, input services.RecordPaymentInput) (*services.PaymentReceipt, error)
	ListPayments(ctx context.Context, filter repository.BillingFilter) ([]models.Payment, int, error)
}

type BillingHandler struct {
	service  billingService
	validate *validator.Validate
}

func NewBillingHandler(service billingService) *BillingHandler {
	return &BillingHandler{
		service:  service,
		validate: validator.New(),
	}
}

type subscriptionRequest struct {
	UserID   string  `json:"user_id" validate:"required,uuid"`
	PlanName string  `json:"plan_name" validate:"required,max=80"`
	Amount   float64 `json:"amount" validate:"gte=0"`
	StartsOn string  `json:"starts_on" validate:"required,datetime=2006-01-02"`
	EndsOn   string  `json:"ends_on" validate:"omitempty,datetime=2006-01-02"`
}

type invoiceRequest struct {
	SubscriptionID string  `json:"subscription_id" validate:"required,uuid"`
	Amount         float64 `json:"amount" validate:"gte=0"`
	DueOn          string  `json:"due_on" validate:"required,datetime=2006-01-02"`
}

type paymentRequest struct {
	InvoiceID string  `json:"invoice_id" validate:"required,uuid"`
	Amount    float64 `json:"amount" validate:"gt=0"`
	Method    string  `json:"method" validate:"required,oneof=pix cash card transfer"`
}

func (h *BillingHandler) MySubscriptions(c *fiber.Ctx) error {
	return h.listMine(c, func(ctx context.Context, filter repository.BillingFilter) (any, int, error) {
		return h.service.ListSubscriptions(ctx, filter)
	}, "subscriptions")
}

func (h *BillingHandler) MyInvoices(c *fiber.Ctx) error {
	return h.listMine(c, func(ctx context.Context, filter repository.BillingFilter) (any, int, error) {
		return h.service.ListInvoices(ctx, filter)
	}, "invoices")
}

func (h *BillingHandler) MyPayments(c *fiber.Ctx) error {
	return h.listMine(c, func(ctx context.Context, filter repository.BillingFilter) (any, int, error) {
		return h.service.ListPayments(ctx, filter)
	}, "payments")
}

func (h *BillingHandler) ListSubscriptions(c *fiber.Ctx) error {
	return h.listAll(c, func(ctx context.Context, filter repository.BillingFilter) (any, int, error) {
		return h.service.ListSubscriptions(ctx, filter)
	}, "subscriptions")
}

func (h *BillingHandler) ListInvoices(c *fiber.Ctx) error {
	return h.listAll(c, func(ctx context.Context, filter repository.BillingFilter) (any, int, error) {
		return h.service.ListInvoices(ctx, filter)
	}, "invoices")
}

func (h *BillingHandler) ListPayments(c *fiber.Ctx) error {
	return h.listAll(c, func(ctx context.Context, filter repository.BillingFilter) (any, int, error) {
		return h.service.ListPayments(ctx, filter)
	}, "payments")
}

func (h *BillingHandler) CreateSubscription(c *fiber.Ctx) error {
	var req subscriptionRequest
	if !h.bind(c, &req) {
		return nil
	}

	startsOn, err := services.DueDate(req.StartsOn)
	if err != nil {
		return mapBillingError(c, err)
	}
	input := repository.CreateSubscriptionInput{
		UserID:   uuid.MustParse(req.UserID),
		PlanName: req.PlanName,
		Amount:   req.Amount,
		StartsOn: startsOn,
	}
	if req.EndsOn != "" {
		endsOn, err := services.DueDate(req.EndsOn)
		if err != nil {
			return mapBillingError(c, err)
		}
		input.EndsOn = &endsOn
	}

	subscription, err := h.service.CreateSubscription(c.UserContext(), input)
	if err != nil {
		return mapBillingError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"subscription": subscription})
}

func (h *BillingHandler) CreateInvoice(c *fiber.Ctx) error {
	var req invoiceRequest
	if !h.bind(c, &req) {
		return nil
	}

	dueOn, err := services.DueDate(req.DueOn)
	if err != nil {
		return mapBillingError(c, err)
	}
	invoice, err := h.service.CreateInvoice(c.UserContext(), repository.CreateInvoiceInput{
		SubscriptionID: uuid.MustParse(req.SubscriptionID),
		Amount:         req.Amount,
		DueOn:          dueOn,
	})
	if err != nil {
		return mapBillingError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"invoice": invoice})
}

func (h *BillingHandler) RecordPayment(c *fiber.Ctx) error {
	var req paymentRequest
	if !h.bind(c, &req) {
		return nil
	}

	receipt, err := h.service.RecordPayment(c.UserContext(), services.RecordPaymentInput{
		InvoiceID: uuid.MustParse(req.InvoiceID),
		Amount:    req.Amount,
		Method:    req.Method,
	})
	if err != nil {
		return mapBillingError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(receipt)
}

type billingLister func(ctx context.Context, filter repository.BillingFilter) (any, int, error)

func (h *BillingHandler) listMine(c *fiber.Ctx, list billingLister, key string) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	return h.list(c, list, key, &userID)
}

// listAll accepts an optional ?user_id= to narrow the admin view.
func (h *BillingHandler) listAll(c *fiber.Ctx, list billingLister, key string) error {
	var userID *uuid.UUID
	if raw := strings.TrimSpace(c.Query("user_id")); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "user_id must be a uuid"})
		}
		userID = &parsed
	}
	return h.list(c, list, key, userID)
}

func (h *BillingHandler) list(c *fiber.Ctx, list billingLister, key string, userID *uuid.UUID) error {
	page, limit := parsePagination(c)
	items, total, err := list(c.UserContext(), repository.BillingFilter{
		UserID: userID,
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return mapBillingError(c, err)
	}
	return c.JSON(fiber.Map{
		key:          items,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

func (h *BillingHandler) bind(c *fiber.Ctx, req any) bool {
	if err := c.BodyParser(req); err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
		return false
	}
	if err := h.validate.Struct(req); err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input", "details": err.Error()})
		return false
	}
	return true
}

func mapBillingError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidBilling):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Dados de cobrança inválidos"})
	case errors.Is(err, services.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Aluno não encontrado"})
	case errors.Is(err, services.ErrSubscriptionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Assinatura não encontrada"})
	case errors.Is(err, services.ErrInvoiceNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Fatura não encontrada"})
	case errors.Is(err, services.ErrInvoiceClosed):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Fatura já está fechada"})
	}

	log.Ctx(c.UserContext()).Error().Err(err).Str("path", c.Path()).Msg("billing request failed")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
}
