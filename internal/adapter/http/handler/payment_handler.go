package handler

import (
	"paymentgw/internal/adapter/http/dto"
	"paymentgw/internal/core/ports"
	"paymentgw/pkg/apperror"
	"paymentgw/pkg/response"

	"github.com/gin-gonic/gin"
)

// PaymentHandler handles payment-related endpoints.
type PaymentHandler struct {
	paymentSvc ports.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentSvc ports.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentSvc: paymentSvc}
}

// ProcessPayment handles POST /api/v1/payments.
func (h *PaymentHandler) ProcessPayment(c *gin.Context) {
	var req dto.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	// CVV is used for authorization only and deliberately not forwarded.
	err := h.paymentSvc.ProcessPayment(c.Request.Context(), ports.PaymentRequest{
		Invoice:         req.Invoice,
		Amount:          req.Amount,
		Currency:        req.Currency,
		CardholderName:  req.Cardholder.Name,
		CardholderEmail: req.Cardholder.Email,
		CardPAN:         req.Card.PAN,
		CardExpiry:      req.Card.Expiry,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.PaymentProcessingResponse{Approved: true})
}

// GetPayment handles GET /api/v1/payments/:invoice.
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	invoice := c.Param("invoice")

	display, err := h.paymentSvc.FindPayment(c.Request.Context(), invoice)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.PaymentResponse{
		Invoice:  display.Invoice,
		Amount:   display.Amount,
		Currency: display.Currency,
		Cardholder: dto.CardholderResponse{
			Name:  display.CardholderName,
			Email: display.CardholderEmail,
		},
		Card: dto.CardResponse{
			PAN:    display.CardPAN,
			Expiry: display.CardExpiry,
		},
	})
}
