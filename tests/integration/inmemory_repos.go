package integration

import (
	"context"
	"sync"

	"paymentgw/internal/core/domain"
)

// inMemoryPaymentRepo is a thread-safe stand-in for the postgres repo.
// Insert-if-absent happens under one lock, mirroring the unique index
// semantics of the real table.
type inMemoryPaymentRepo struct {
	mu       sync.Mutex
	payments map[string]*domain.Payment
}

func newInMemoryPaymentRepo() *inMemoryPaymentRepo {
	return &inMemoryPaymentRepo{payments: make(map[string]*domain.Payment)}
}

func (r *inMemoryPaymentRepo) Create(_ context.Context, p *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.payments[p.Invoice]; exists {
		return domain.ErrDuplicateInvoice
	}
	cp := *p
	r.payments[p.Invoice] = &cp
	return nil
}

func (r *inMemoryPaymentRepo) GetByInvoice(_ context.Context, invoice string) (*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.payments[invoice]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *inMemoryPaymentRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.payments)
}
