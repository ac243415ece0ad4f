package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"paymentgw/internal/core/domain"
	"paymentgw/internal/core/ports"
	"paymentgw/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const processedInvoiceTTL = 24 * time.Hour

// PaymentServiceImpl implements ports.PaymentService.
type PaymentServiceImpl struct {
	repo  ports.PaymentRepository
	cache ports.ProcessedInvoiceCache // nil = fast path disabled
	codec ports.FieldCodec
	audit ports.AuditSink
	log   zerolog.Logger
}

// NewPaymentService creates a new PaymentServiceImpl.
func NewPaymentService(
	repo ports.PaymentRepository,
	cache ports.ProcessedInvoiceCache,
	codec ports.FieldCodec,
	audit ports.AuditSink,
	log zerolog.Logger,
) *PaymentServiceImpl {
	return &PaymentServiceImpl{
		repo:  repo,
		cache: cache,
		codec: codec,
		audit: audit,
		log:   log,
	}
}

// ProcessPayment admits a payment at most once per invoice. The duplicate
// checks before the insert are a fast path only; the repository's
// compare-and-insert is the sole enforcement point for uniqueness, and a
// conflict there is surfaced identically to a pre-check hit.
func (s *PaymentServiceImpl) ProcessPayment(ctx context.Context, req ports.PaymentRequest) error {
	if !req.Amount.IsPositive() {
		return apperror.ErrInvalidAmount()
	}

	// Layer 1: Redis fast-path duplicate check (best-effort)
	if s.cache != nil {
		seen, err := s.cache.Seen(ctx, req.Invoice)
		if err != nil {
			s.log.Warn().Err(err).Str("invoice", req.Invoice).Msg("invoice cache check failed, falling through to store")
		} else if seen {
			return apperror.ErrDuplicatePayment(req.Invoice)
		}
	}

	// Layer 2: optimistic pre-check against the store
	existing, err := s.repo.GetByInvoice(ctx, req.Invoice)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("invoice pre-check: %w", err))
	}
	if existing != nil {
		return apperror.ErrDuplicatePayment(req.Invoice)
	}

	name, err := s.codec.Protect(req.CardholderName)
	if err != nil {
		return apperror.ErrCodecFailure(fmt.Errorf("protect cardholder name: %w", err))
	}
	pan, err := s.codec.Protect(req.CardPAN)
	if err != nil {
		return apperror.ErrCodecFailure(fmt.Errorf("protect card pan: %w", err))
	}
	expiry, err := s.codec.Protect(req.CardExpiry)
	if err != nil {
		return apperror.ErrCodecFailure(fmt.Errorf("protect card expiry: %w", err))
	}

	payment := &domain.Payment{
		ID:       uuid.New(),
		Invoice:  req.Invoice,
		Amount:   req.Amount,
		Currency: req.Currency,
		Cardholder: domain.Cardholder{
			Name:  name,
			Email: req.CardholderEmail,
		},
		Card: domain.Card{
			PAN:    pan,
			Expiry: expiry,
		},
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, payment); err != nil {
		if errors.Is(err, domain.ErrDuplicateInvoice) {
			// A concurrent insert won the race between pre-check and insert.
			return apperror.ErrDuplicatePayment(req.Invoice)
		}
		return apperror.InternalError(fmt.Errorf("create payment: %w", err))
	}

	// Post-commit: audit submission is fire-and-forget and cannot change
	// the returned result.
	if record, err := s.buildAuditRecord(payment); err != nil {
		s.log.Warn().Err(err).Str("invoice", payment.Invoice).Msg("failed to build audit record")
	} else {
		s.audit.Submit(record)
	}

	// Post-commit: mark invoice in the fast-path cache (best-effort)
	if s.cache != nil {
		if err := s.cache.Mark(ctx, req.Invoice, processedInvoiceTTL); err != nil {
			s.log.Warn().Err(err).Str("invoice", req.Invoice).Msg("failed to mark invoice in cache")
		}
	}

	s.log.Info().
		Str("invoice", payment.Invoice).
		Str("currency", payment.Currency).
		Msg("payment processed successfully")

	return nil
}

// FindPayment returns the display-safe form of a stored payment. Protected
// fields are revealed only to be masked; plaintext never leaves this method.
func (s *PaymentServiceImpl) FindPayment(ctx context.Context, invoice string) (*ports.DisplayPayment, error) {
	payment, err := s.repo.GetByInvoice(ctx, invoice)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find payment: %w", err))
	}
	if payment == nil {
		return nil, apperror.ErrPaymentNotFound(invoice)
	}

	name, err := s.codec.Reveal(payment.Cardholder.Name)
	if err != nil {
		return nil, apperror.ErrCodecFailure(fmt.Errorf("reveal cardholder name: %w", err))
	}
	pan, err := s.codec.Reveal(payment.Card.PAN)
	if err != nil {
		return nil, apperror.ErrCodecFailure(fmt.Errorf("reveal card pan: %w", err))
	}
	expiry, err := s.codec.Reveal(payment.Card.Expiry)
	if err != nil {
		return nil, apperror.ErrCodecFailure(fmt.Errorf("reveal card expiry: %w", err))
	}

	return &ports.DisplayPayment{
		Invoice:         payment.Invoice,
		Amount:          payment.Amount,
		Currency:        payment.Currency,
		CardholderName:  MaskFull(name),
		CardholderEmail: payment.Cardholder.Email,
		CardPAN:         MaskPAN(pan),
		CardExpiry:      MaskFull(expiry),
	}, nil
}

// buildAuditRecord produces the masked snapshot of a freshly inserted
// payment for the audit trail.
func (s *PaymentServiceImpl) buildAuditRecord(payment *domain.Payment) (*domain.AuditRecord, error) {
	name, err := s.codec.Reveal(payment.Cardholder.Name)
	if err != nil {
		return nil, fmt.Errorf("reveal cardholder name: %w", err)
	}
	pan, err := s.codec.Reveal(payment.Card.PAN)
	if err != nil {
		return nil, fmt.Errorf("reveal card pan: %w", err)
	}
	expiry, err := s.codec.Reveal(payment.Card.Expiry)
	if err != nil {
		return nil, fmt.Errorf("reveal card expiry: %w", err)
	}

	return &domain.AuditRecord{
		Invoice:  payment.Invoice,
		Amount:   payment.Amount,
		Currency: payment.Currency,
		Cardholder: domain.AuditCardholder{
			Name:  MaskFull(name),
			Email: payment.Cardholder.Email,
		},
		Card: domain.AuditCard{
			PAN:    MaskPAN(pan),
			Expiry: MaskFull(expiry),
		},
		ProcessedAt: payment.CreatedAt,
	}, nil
}
