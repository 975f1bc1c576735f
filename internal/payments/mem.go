package payments

import (
	"context"
	"sync"
	"time"
)

// Mem is an in-memory Store with the same semantics as Repo.
type Mem struct {
	mu       sync.Mutex
	payments map[string]*Payment
	refunds  map[string]*Refund
}

func NewMem() *Mem {
	return &Mem{
		payments: make(map[string]*Payment),
		refunds:  make(map[string]*Refund),
	}
}

func (m *Mem) Create(_ context.Context, p *Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	cp := *p
	m.payments[p.ID] = &cp
	return nil
}

func (m *Mem) Get(_ context.Context, tenantID, id string) (*Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.get(tenantID, id)
}

func (m *Mem) SetStatus(_ context.Context, tenantID, id string, to Status, providerRef string) (*Payment, Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.get(tenantID, id)
	if err != nil {
		return nil, "", err
	}
	if !CanTransition(p.Status, to) {
		return nil, "", &TransitionError{From: p.Status, To: to}
	}
	stored := m.payments[id]
	from := stored.Status
	stored.Status = to
	if providerRef != "" {
		stored.ProviderRef = providerRef
	}
	stored.UpdatedAt = time.Now().UTC()
	cp := *stored
	return &cp, from, nil
}

func (m *Mem) CreateRefund(_ context.Context, rf *Refund) (*Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.get(rf.TenantID, rf.PaymentID)
	if err != nil {
		return nil, err
	}
	if p.Status != StatusSucceeded {
		return nil, ErrNotRefundable
	}
	if rf.AmountCents > p.AmountCents {
		return nil, ErrRefundExceeds
	}
	rf.OrderID = p.OrderID
	rf.CreatedAt = time.Now().UTC()
	cp := *rf
	m.refunds[rf.ID] = &cp

	stored := m.payments[rf.PaymentID]
	stored.Status = StatusRefunded
	stored.UpdatedAt = rf.CreatedAt
	out := *stored
	return &out, nil
}

func (m *Mem) get(tenantID, id string) (*Payment, error) {
	p, ok := m.payments[id]
	if !ok || p.TenantID != tenantID {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}
