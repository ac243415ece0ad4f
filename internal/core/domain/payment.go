package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrDuplicateInvoice is returned by a PaymentRepository when an insert loses
// the uniqueness race on the invoice column. The store's constraint is the
// single enforcement point for invoice uniqueness.
var ErrDuplicateInvoice = errors.New("payment with this invoice already exists")

// Cardholder holds the payer identity attached to a payment.
// Name is stored only as a codec token; Email is stored in plain form.
type Cardholder struct {
	Name  string `json:"-"`
	Email string `json:"email"`
}

// Card holds the payment card data. Both fields are stored only as codec
// tokens; the plaintext exists transiently while a request is handled.
// The CVV is never part of this entity: it is accepted on intake and
// discarded before persistence.
type Card struct {
	PAN    string `json:"-"`
	Expiry string `json:"-"`
}

// Payment is the durable record of one processed payment. Created exactly
// once per invoice, never mutated, never deleted.
type Payment struct {
	ID         uuid.UUID       `json:"id"`
	Invoice    string          `json:"invoice"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	Cardholder Cardholder      `json:"cardholder"`
	Card       Card            `json:"card"`
	CreatedAt  time.Time       `json:"created_at"`
}
