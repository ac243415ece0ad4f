package postgres

import (
	"context"
	"errors"
	"fmt"

	"paymentgw/internal/core/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolationCode = "23505"

// PaymentRepo implements ports.PaymentRepository.
type PaymentRepo struct {
	pool Pool
}

// NewPaymentRepo creates a new PaymentRepo.
func NewPaymentRepo(pool Pool) *PaymentRepo {
	return &PaymentRepo{pool: pool}
}

// Create inserts a new payment. The unique index on invoice is the
// authoritative duplicate check; a violation maps to
// domain.ErrDuplicateInvoice so concurrent submissions of the same
// invoice resolve to exactly one row.
func (r *PaymentRepo) Create(ctx context.Context, p *domain.Payment) error {
	query := `INSERT INTO payments (id, invoice, amount, currency, cardholder_name, cardholder_email, card_pan, card_expiry, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		p.ID, p.Invoice, p.Amount, p.Currency,
		p.Cardholder.Name, p.Cardholder.Email,
		p.Card.PAN, p.Card.Expiry, p.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return domain.ErrDuplicateInvoice
		}
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// GetByInvoice fetches a payment by invoice number. Returns (nil, nil)
// when no payment exists.
func (r *PaymentRepo) GetByInvoice(ctx context.Context, invoice string) (*domain.Payment, error) {
	query := `SELECT id, invoice, amount, currency, cardholder_name, cardholder_email, card_pan, card_expiry, created_at
		FROM payments WHERE invoice = $1`

	p := &domain.Payment{}
	err := r.pool.QueryRow(ctx, query, invoice).Scan(
		&p.ID, &p.Invoice, &p.Amount, &p.Currency,
		&p.Cardholder.Name, &p.Cardholder.Email,
		&p.Card.PAN, &p.Card.Expiry, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment by invoice: %w", err)
	}
	return p, nil
}
