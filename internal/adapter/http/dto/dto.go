package dto

import "github.com/shopspring/decimal"

// CardholderRequest carries the cardholder details of a payment.
type CardholderRequest struct {
	Name  string `json:"name" binding:"required,max=100"`
	Email string `json:"email" binding:"required,email"`
}

// CardRequest carries the card details of a payment. CVV is accepted for
// authorization only and is never persisted or echoed back.
type CardRequest struct {
	PAN    string `json:"pan" binding:"required,len=16,numeric,luhn"`
	Expiry string `json:"expiry" binding:"required,card_expiry"`
	CVV    string `json:"cvv" binding:"required,len=3,numeric"`
}

// PaymentRequest is the request body for payment processing.
type PaymentRequest struct {
	Invoice    string            `json:"invoice" binding:"required,max=100"`
	Amount     decimal.Decimal   `json:"amount" binding:"required"`
	Currency   string            `json:"currency" binding:"required,len=3"`
	Cardholder CardholderRequest `json:"cardholder" binding:"required"`
	Card       CardRequest       `json:"card" binding:"required"`
}

// PaymentProcessingResponse is the response body for an accepted payment.
type PaymentProcessingResponse struct {
	Approved bool `json:"approved"`
}

// CardholderResponse is the display-safe cardholder representation.
type CardholderResponse struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CardResponse is the display-safe card representation.
type CardResponse struct {
	PAN    string `json:"pan"`
	Expiry string `json:"expiry"`
}

// PaymentResponse is the response body for a payment lookup. Sensitive
// fields arrive already masked from the service layer.
type PaymentResponse struct {
	Invoice    string             `json:"invoice"`
	Amount     decimal.Decimal    `json:"amount"`
	Currency   string             `json:"currency"`
	Cardholder CardholderResponse `json:"cardholder"`
	Card       CardResponse       `json:"card"`
}
