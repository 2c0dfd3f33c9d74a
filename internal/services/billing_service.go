package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"

	"github.com/Glivan2903/fazendo-90/internal/models"
	"github.com/Glivan2903/fazendo-90/internal/repository"
)

var (
	ErrInvalidBilling       = errors.New("invalid billing record")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrInvoiceNotFound      = errors.New("invoice not found")
	ErrInvoiceClosed        = errors.New("invoice is not open")
)

type billingStore interface {
	CreateSubscription(ctx context.Context, input repository.CreateSubscriptionInput) (*models.Subscription, error)
	ListSubscriptions(ctx context.Context, filter repository.BillingFilter) ([]models.Subscription, int, error)
	CreateInvoice(ctx context.Context, input repository.CreateInvoiceInput) (*models.Invoice, error)
	ListInvoices(ctx context.Context, filter repository.BillingFilter) ([]models.Invoice, int, error)
	ListPayments(ctx context.Context, filter repository.BillingFilter) ([]models.Payment, int, error)
}

// BillingService keeps subscription, invoice and payment records. It does not
// talk to any payment processor.
type BillingService struct {
	tx    txRunner
	store billingStore
}

func NewBillingService(tx txRunner, store billingStore) *BillingService {
	return &BillingService{tx: tx, store: store}
}

func (s *BillingService) CreateSubscription(ctx context.Context, input repository.CreateSubscriptionInput) (*models.Subscription, error) {
	input.PlanName = strings.TrimSpace(input.PlanName)
	if input.PlanName == "" || input.Amount < 0 || input.StartsOn.IsZero() {
		return nil, ErrInvalidBilling
	}
	if input.EndsOn != nil && input.EndsOn.Before(input.StartsOn) {
		return nil, ErrInvalidBilling
	}

	subscription, err := s.store.CreateSubscription(ctx, input)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return subscription, nil
}

func (s *BillingService) ListSubscriptions(ctx context.Context, filter repository.BillingFilter) ([]models.Subscription, int, error) {
	return s.store.ListSubscriptions(ctx, filter)
}

func (s *BillingService) CreateInvoice(ctx context.Context, input repository.CreateInvoiceInput) (*models.Invoice, error) {
	if input.Amount < 0 || input.DueOn.IsZero() {
		return nil, ErrInvalidBilling
	}
	invoice, err := s.store.CreateInvoice(ctx, input)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSubscriptionNotFound
	}
	return invoice, err
}

func (s *BillingService) ListInvoices(ctx context.Context, filter repository.BillingFilter) ([]models.Invoice, int, error) {
	return s.store.ListInvoices(ctx, filter)
}

func (s *BillingService) ListPayments(ctx context.Context, filter repository.BillingFilter) ([]models.Payment, int, error) {
	return s.store.ListPayments(ctx, filter)
}

type RecordPaymentInput struct {
	InvoiceID uuid.UUID
	Amount    float64
	Method    string
}

type PaymentReceipt struct {
	Payment       *models.Payment `json:"payment"`
	InvoiceStatus string          `json:"invoice_status"`
	AmountPaid    float64         `json:"amount_paid"`
}

// RecordPayment registers money received against an open invoice and closes
// the invoice once the payments cover it.
func (s *BillingService) RecordPayment(ctx context.Context, input RecordPaymentInput) (*PaymentReceipt, error) {
	input.Method = strings.TrimSpace(input.Method)
	if input.Amount <= 0 || input.Method == "" {
		return nil, ErrInvalidBilling
	}

	var receipt PaymentReceipt
	err := s.tx.WithinTx(ctx, func(tx repository.DBTX) error {
		billing := repository.NewBillingRepository(tx)

		invoice, err := billing.GetInvoiceForUpdate(ctx, input.InvoiceID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrInvoiceNotFound
			}
			return err
		}
		if invoice.Status != models.InvoiceOpen {
			return ErrInvoiceClosed
		}

		payment, err := billing.CreatePayment(ctx, repository.CreatePaymentInput{
			InvoiceID: invoice.ID,
			UserID:    invoice.UserID,
			Amount:    input.Amount,
			Method:    input.Method,
		})
		if err != nil {
			return err
		}

		paid, err := billing.SumPayments(ctx, invoice.ID)
		if err != nil {
			return err
		}

		status := invoice.Status
		if paid >= invoice.Amount {
			status = models.InvoicePaid
			if err := billing.UpdateInvoiceStatus(ctx, invoice.ID, status); err != nil {
				return err
			}
		}

		receipt = PaymentReceipt{Payment: payment, InvoiceStatus: status, AmountPaid: paid}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Ctx(ctx).Info().
		Str("invoice_id", input.InvoiceID.String()).
		Str("invoice_status", receipt.InvoiceStatus).
		Float64("amount", input.Amount).
		Msg("Payment recorded")
	return &receipt, nil
}

// DueDate parses a YYYY-MM-DD billing date.
func DueDate(value string) (time.Time, error) {
	day, err := ParseDay(strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, ErrInvalidBilling
	}
	return day, nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
