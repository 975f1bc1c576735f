package pricing

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Mem is an in-memory Store for tests and local runs.
type Mem struct {
	mu     sync.Mutex
	prices map[string]Price
}

func NewMem() *Mem {
	return &Mem{prices: map[string]Price{}}
}

func (m *Mem) Create(_ context.Context, p *Price) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	m.prices[p.ID] = *p
	return nil
}

func (m *Mem) Get(_ context.Context, tenantID, id string) (*Price, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.prices[id]
	if !ok || p.TenantID != tenantID {
		return nil, ErrNotFound
	}
	cp := p
	return &cp, nil
}

func (m *Mem) List(_ context.Context, tenantID string) ([]Price, error) {
	return m.filter(func(p Price) bool { return p.TenantID == tenantID }), nil
}

func (m *Mem) ListForProduct(_ context.Context, tenantID, productID string) ([]Price, error) {
	return m.filter(func(p Price) bool {
		return p.TenantID == tenantID && p.ProductID != nil && *p.ProductID == productID
	}), nil
}

func (m *Mem) ListForVariant(_ context.Context, tenantID, variantID string) ([]Price, error) {
	return m.filter(func(p Price) bool {
		return p.TenantID == tenantID && p.VariantID != nil && *p.VariantID == variantID
	}), nil
}

func (m *Mem) filter(keep func(Price) bool) []Price {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Price
	for _, p := range m.prices {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}
