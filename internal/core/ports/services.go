package ports

import (
	"context"

	"paymentgw/internal/core/domain"

	"github.com/shopspring/decimal"
)

// FieldCodec is the reversible transform applied to sensitive string fields
// before they reach durable storage. Protect and Reveal are inverses; the
// empty string maps to the empty string in both directions.
//
// The default implementation is a reversible encoding, not cryptography.
// A production deployment must select an authenticated-encryption codec with
// real key management behind this same interface.
type FieldCodec interface {
	Protect(plaintext string) (string, error)
	Reveal(token string) (string, error)
}

// AuditSink accepts audit records for asynchronous, best-effort delivery.
type AuditSink interface {
	// Submit enqueues a record and returns immediately. It never blocks on
	// I/O and never reports delivery failure to the caller.
	Submit(record *domain.AuditRecord)
}

// PaymentService defines the core payment intake and lookup logic.
type PaymentService interface {
	// ProcessPayment accepts a validated submission. It returns nil on
	// acceptance, apperror PAY_001 when the invoice was already processed,
	// PAY_002 for a non-positive amount.
	ProcessPayment(ctx context.Context, req PaymentRequest) error
	// FindPayment returns the display-safe representation of a stored
	// payment, or apperror PAY_003 when the invoice is unknown.
	FindPayment(ctx context.Context, invoice string) (*DisplayPayment, error)
}

// PaymentRequest holds validated input for payment processing. The CVV is
// deliberately absent: it is accepted at the transport boundary and
// discarded before the request reaches this layer.
type PaymentRequest struct {
	Invoice         string
	Amount          decimal.Decimal
	Currency        string
	CardholderName  string
	CardholderEmail string
	CardPAN         string
	CardExpiry      string
}

// DisplayPayment is the outward-facing representation of a stored payment.
// Every protected field is masked; plaintext never crosses this boundary.
type DisplayPayment struct {
	Invoice         string
	Amount          decimal.Decimal
	Currency        string
	CardholderName  string
	CardholderEmail string
	CardPAN         string
	CardExpiry      string
}
