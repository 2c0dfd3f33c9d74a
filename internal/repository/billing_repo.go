package repository

import (
	"context"
	"time"

	"github.com/Glivan2903/fazendo-90/internal/models"
	"github.com/google/uuid"
)

type CreateSubscriptionInput struct {
	UserID   uuid.UUID
	PlanName string
	Amount   float64
	StartsOn time.Time
	EndsOn   *time.Time
}

type CreateInvoiceInput struct {
	SubscriptionID uuid.UUID
	Amount         float64
	DueOn          time.Time
}

type CreatePaymentInput struct {
	InvoiceID uuid.UUID
	UserID    uuid.UUID
	Amount    float64
	Method    string
}

// BillingFilter narrows a listing to one member when UserID is set.
type BillingFilter struct {
	UserID *uuid.UUID
	Limit  int
	Offset int
}

type BillingRepository struct {
	db DBTX
}

func NewBillingRepository(db DBTX) *BillingRepository {
	return &BillingRepository{db: db}
}

const (
	subscriptionColumns = `id, user_id, plan_name, amount, status, starts_on, ends_on, created_at`
	invoiceColumns      = `id, subscription_id, user_id, amount, due_on, status, created_at`
	paymentColumns      = `id, invoice_id, user_id, amount, method, paid_at`
)

func (r *BillingRepository) CreateSubscription(
	ctx context.Context,
	input CreateSubscriptionInput,
) (*models.Subscription, error) {
	query := `
		INSERT INTO subscriptions (user_id, plan_name, amount, starts_on, ends_on)
		VALUES ($1, $2, $3, $4::date, $5::date)
		RETURNING ` + subscriptionColumns
	return scanSubscription(r.db.QueryRow(
		ctx,
		query,
		input.UserID,
		input.PlanName,
		input.Amount,
		input.StartsOn,
		input.EndsOn,
	))
}

func (r *BillingRepository) GetSubscription(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1`
	return scanSubscription(r.db.QueryRow(ctx, query, id))
}

func (r *BillingRepository) ListSubscriptions(
	ctx context.Context,
	filter BillingFilter,
) ([]models.Subscription, int, error) {
	total, err := r.count(ctx, `SELECT COUNT(*) FROM subscriptions WHERE ($1::uuid IS NULL OR user_id = $1)`, filter.UserID)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE ($1::uuid IS NULL OR user_id = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, filter.UserID, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	subscriptions := make([]models.Subscription, 0)
	for rows.Next() {
		subscription, err := scanSubscription(rows)
		if err != nil {
			return nil, 0, err
		}
		subscriptions = append(subscriptions, *subscription)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return subscriptions, total, nil
}

// CreateInvoice bills the subscription's owner.
func (r *BillingRepository) CreateInvoice(ctx context.Context, input CreateInvoiceInput) (*models.Invoice, error) {
	query := `
		INSERT INTO invoices (subscription_id, user_id, amount, due_on)
		SELECT s.id, s.user_id, $2, $3::date
		FROM subscriptions s
		WHERE s.id = $1
		RETURNING ` + invoiceColumns
	return scanInvoice(r.db.QueryRow(ctx, query, input.SubscriptionID, input.Amount, input.DueOn))
}

func (r *BillingRepository) GetInvoiceForUpdate(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1 FOR UPDATE`
	return scanInvoice(r.db.QueryRow(ctx, query, id))
}

func (r *BillingRepository) ListInvoices(ctx context.Context, filter BillingFilter) ([]models.Invoice, int, error) {
	total, err := r.count(ctx, `SELECT COUNT(*) FROM invoices WHERE ($1::uuid IS NULL OR user_id = $1)`, filter.UserID)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE ($1::uuid IS NULL OR user_id = $1)
		ORDER BY due_on DESC, id DESC
		LIMIT $2 OFFSET $3
	`, filter.UserID, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	invoices := make([]models.Invoice, 0)
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		invoices = append(invoices, *invoice)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return invoices, total, nil
}

func (r *BillingRepository) UpdateInvoiceStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.db.Exec(ctx, `UPDATE invoices SET status = $2 WHERE id = $1`, id, status)
	return err
}

func (r *BillingRepository) CreatePayment(ctx context.Context, input CreatePaymentInput) (*models.Payment, error) {
	query := `
		INSERT INTO payments (invoice_id, user_id, amount, method)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + paymentColumns
	return scanPayment(r.db.QueryRow(ctx, query, input.InvoiceID, input.UserID, input.Amount, input.Method))
}

func (r *BillingRepository) SumPayments(ctx context.Context, invoiceID uuid.UUID) (float64, error) {
	var total float64
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0)::float8 FROM payments WHERE invoice_id = $1`, invoiceID).
		Scan(&total)
	return total, err
}

func (r *BillingRepository) ListPayments(ctx context.Context, filter BillingFilter) ([]models.Payment, int, error) {
	total, err := r.count(ctx, `SELECT COUNT(*) FROM payments WHERE ($1::uuid IS NULL OR user_id = $1)`, filter.UserID)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE ($1::uuid IS NULL OR user_id = $1)
		ORDER BY paid_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, filter.UserID, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	payments := make([]models.Payment, 0)
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, 0, err
		}
		payments = append(payments, *payment)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return payments, total, nil
}

func (r *BillingRepository) count(ctx context.Context, query string, userID *uuid.UUID) (int, error) {
	var total int
	if err := r.db.QueryRow(ctx, query, userID).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func scanSubscription(row rowScanner) (*models.Subscription, error) {
	var subscription models.Subscription
	if err := row.Scan(
		&subscription.ID,
		&subscription.UserID,
		&subscription.PlanName,
		&subscription.Amount,
		&subscription.Status,
		&subscription.StartsOn,
		&subscription.EndsOn,
		&subscription.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &subscription, nil
}

func scanInvoice(row rowScanner) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := row.Scan(
		&invoice.ID,
		&invoice.SubscriptionID,
		&invoice.UserID,
		&invoice.Amount,
		&invoice.DueOn,
		&invoice.Status,
		&invoice.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &invoice, nil
}

func scanPayment(row rowScanner) (*models.Payment, error) {
	var payment models.Payment
	if err := row.Scan(
		&payment.ID,
		&payment.InvoiceID,
		&payment.UserID,
		&payment.Amount,
		&payment.Method,
		&payment.PaidAt,
	); err != nil {
		return nil, err
	}
	return &payment, nil
}
