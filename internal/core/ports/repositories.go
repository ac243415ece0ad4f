package ports

import (
	"context"
	"time"

	"paymentgw/internal/core/domain"
)

// PaymentRepository defines persistence operations for payments.
type PaymentRepository interface {
	// Create inserts a payment. The implementation must enforce invoice
	// uniqueness atomically (compare-and-insert) and return
	// domain.ErrDuplicateInvoice when a record with the same invoice exists.
	Create(ctx context.Context, payment *domain.Payment) error
	// GetByInvoice fetches a payment by invoice. Returns nil, nil on miss.
	GetByInvoice(ctx context.Context, invoice string) (*domain.Payment, error)
}

// ProcessedInvoiceCache is a best-effort fast path for duplicate detection.
// It is never authoritative: a cache miss or error always falls through to
// the repository, and the store's constraint remains the enforcement point.
type ProcessedInvoiceCache interface {
	// Seen reports whether the invoice was marked as processed.
	Seen(ctx context.Context, invoice string) (bool, error)
	// Mark records the invoice as processed with a TTL.
	Mark(ctx context.Context, invoice string, ttl time.Duration) error
}
