package catalog

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Mem is an in-memory Store for tests and local runs.
type Mem struct {
	mu       sync.Mutex
	products map[string]Product
	variants map[string]Variant
}

func NewMem() *Mem {
	return &Mem{
		products: map[string]Product{},
		variants: map[string]Variant{},
	}
}

func (m *Mem) CreateProduct(_ context.Context, p *Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	m.products[p.ID] = *p
	return nil
}

func (m *Mem) GetProduct(_ context.Context, tenantID, id string) (*Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok || p.TenantID != tenantID {
		return nil, ErrNotFound
	}
	cp := p
	return &cp, nil
}

func (m *Mem) ListProducts(_ context.Context, tenantID string) ([]Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Product
	for _, p := range m.products {
		if p.TenantID == tenantID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *Mem) UpdateProduct(_ context.Context, p *Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.products[p.ID]
	if !ok || old.TenantID != p.TenantID {
		return ErrNotFound
	}
	p.CreatedAt = old.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	m.products[p.ID] = *p
	return nil
}

func (m *Mem) CreateVariant(_ context.Context, v *Variant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	v.CreatedAt, v.UpdatedAt = now, now
	if v.Options == nil {
		v.Options = Options{}
	}
	m.variants[v.ID] = *v
	return nil
}

func (m *Mem) GetVariant(_ context.Context, tenantID, id string) (*Variant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.variants[id]
	if !ok || v.TenantID != tenantID {
		return nil, ErrNotFound
	}
	cp := v
	return &cp, nil
}

func (m *Mem) ListVariants(_ context.Context, tenantID, productID string) ([]Variant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Variant
	for _, v := range m.variants {
		if v.TenantID != tenantID {
			continue
		}
		if productID != "" && v.ProductID != productID {
			continue
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}
