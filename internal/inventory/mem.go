package inventory

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Mem is an in-memory Store for tests and local runs. One mutex guards every
// mutation, which gives the same check-and-write atomicity as the conditional
// UPDATEs in the Postgres store.
type Mem struct {
	mu   sync.Mutex
	recs map[string]*Record
}

func NewMem() *Mem {
	return &Mem{recs: map[string]*Record{}}
}

func memKey(tenantID, variantID, warehouse string) string {
	return tenantID + "|" + variantID + "|" + warehouse
}

func (m *Mem) Initialize(_ context.Context, rec *Record) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := memKey(rec.TenantID, rec.VariantID, rec.WarehouseCode)
	if cur, ok := m.recs[k]; ok {
		cur.StockOnHand = max64(cur.StockReserved, rec.StockOnHand)
		cur.MinStockLevel = rec.MinStockLevel
		cur.UpdatedAt = time.Now().UTC()
		cp := *cur
		return &cp, nil
	}
	cp := *rec
	cp.StockReserved = 0
	cp.UpdatedAt = time.Now().UTC()
	m.recs[k] = &cp
	out := cp
	return &out, nil
}

func (m *Mem) Get(_ context.Context, tenantID, variantID, warehouse string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[memKey(tenantID, variantID, warehouse)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *Mem) Reserve(_ context.Context, tenantID, variantID, warehouse string, qty int64) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[memKey(tenantID, variantID, warehouse)]
	if !ok {
		return nil, ErrNotFound
	}
	if rec.StockOnHand-rec.StockReserved < qty {
		return nil, ErrInsufficientStock
	}
	rec.StockReserved += qty
	rec.UpdatedAt = time.Now().UTC()
	cp := *rec
	return &cp, nil
}

func (m *Mem) Release(_ context.Context, tenantID, variantID, warehouse string, qty int64) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[memKey(tenantID, variantID, warehouse)]
	if !ok {
		return nil, ErrNotFound
	}
	rec.StockReserved = max64(0, rec.StockReserved-qty)
	rec.UpdatedAt = time.Now().UTC()
	cp := *rec
	return &cp, nil
}

func (m *Mem) ConsumeReserved(_ context.Context, tenantID, variantID, warehouse string, qty int64) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[memKey(tenantID, variantID, warehouse)]
	if !ok {
		return nil, ErrNotFound
	}
	if rec.StockReserved < qty || rec.StockOnHand < qty {
		return nil, ErrInsufficientStock
	}
	rec.StockReserved -= qty
	rec.StockOnHand -= qty
	rec.UpdatedAt = time.Now().UTC()
	cp := *rec
	return &cp, nil
}

func (m *Mem) Adjust(_ context.Context, tenantID, variantID, warehouse string, delta int64) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[memKey(tenantID, variantID, warehouse)]
	if !ok {
		return nil, ErrNotFound
	}
	rec.StockOnHand = max64(rec.StockReserved, rec.StockOnHand+delta)
	rec.UpdatedAt = time.Now().UTC()
	cp := *rec
	return &cp, nil
}

func (m *Mem) LowStock(_ context.Context, tenantID, warehouse string) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Record
	for _, rec := range m.recs {
		if rec.TenantID != tenantID {
			continue
		}
		if warehouse != "" && rec.WarehouseCode != warehouse {
			continue
		}
		if rec.LowStock() {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VariantID < out[j].VariantID })
	return out, nil
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
