package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AuditCardholder is the display-safe cardholder snapshot in an audit record.
type AuditCardholder struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AuditCard is the display-safe card snapshot in an audit record.
// PAN keeps its last four digits visible; the expiry is fully masked.
type AuditCard struct {
	PAN    string `json:"pan"`
	Expiry string `json:"expiry"`
}

// AuditRecord is a write-once snapshot of an accepted payment with every
// protected field replaced by its masked form. It has no identity beyond its
// position in the append log and is never read back by this service.
type AuditRecord struct {
	Invoice     string          `json:"invoice"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Cardholder  AuditCardholder `json:"cardholder"`
	Card        AuditCard       `json:"card"`
	ProcessedAt time.Time       `json:"processed_at"`
}
