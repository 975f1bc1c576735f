package orders

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/shoplane/shoplane/internal/inventory"
)

// Mem is an in-memory Store for tests and local runs. Stock side effects go
// through the given inventory store; partial work is compensated on failure so
// the all-or-nothing contract matches the transactional Postgres store.
type Mem struct {
	mu     sync.Mutex
	inv    inventory.Store
	orders map[string]*Order
}

func NewMem(inv inventory.Store) *Mem {
	return &Mem{inv: inv, orders: map[string]*Order{}}
}

func (m *Mem) CreateWithItems(ctx context.Context, o *Order, reserve bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if o.Status == StatusCart && o.SessionID != "" {
		for _, ex := range m.orders {
			if ex.TenantID == o.TenantID && ex.SessionID == o.SessionID && ex.Status == StatusCart {
				return ErrCartExists
			}
		}
	}

	now := time.Now().UTC()
	o.CreatedAt, o.UpdatedAt = now, now
	for i := range o.Items {
		o.Items[i].OrderID = o.ID
		o.Items[i].CreatedAt = now
	}

	if reserve {
		if err := m.reserveItems(ctx, o.TenantID, o.Items); err != nil {
			return err
		}
	}

	m.orders[o.ID] = cloneOrder(o)
	return nil
}

func (m *Mem) Get(_ context.Context, tenantID, id string) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok || o.TenantID != tenantID {
		return nil, ErrNotFound
	}
	return cloneOrder(o), nil
}

func (m *Mem) GetBySession(_ context.Context, tenantID, sessionID string) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.TenantID == tenantID && o.SessionID == sessionID && o.Status == StatusCart {
			return cloneOrder(o), nil
		}
	}
	return nil, ErrNotFound
}

func (m *Mem) List(_ context.Context, tenantID string, f ListFilter) ([]Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Order
	for _, o := range m.orders {
		if o.TenantID != tenantID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		out = append(out, *cloneOrder(o))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *Mem) Transition(ctx context.Context, tenantID, id string, to Status, opts TransitionOpts) (*Order, Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok || o.TenantID != tenantID {
		return nil, "", ErrNotFound
	}
	from := o.Status
	if !CanTransition(from, to) {
		return nil, "", &TransitionError{From: from, To: to}
	}

	var err error
	switch {
	case from == StatusCart && to == StatusPendingPayment:
		err = m.reserveItems(ctx, tenantID, o.Items)
	case from == StatusPendingPayment && to == StatusPaid:
		err = m.consumeItems(ctx, tenantID, o.Items)
	case from == StatusPendingPayment && (to == StatusCancelled || to == StatusRefunded):
		m.releaseItems(ctx, tenantID, o.Items)
	}
	if err != nil {
		return nil, "", err
	}

	now := time.Now().UTC()
	o.Status = to
	if opts.TrackingNumber != "" {
		o.TrackingNumber = opts.TrackingNumber
	}
	if opts.InternalNotes != "" {
		o.InternalNotes = opts.InternalNotes
	}
	switch to {
	case StatusPaid:
		o.PaidAt = &now
	case StatusShipped:
		o.ShippedAt = &now
	case StatusDelivered:
		o.DeliveredAt = &now
	case StatusCancelled, StatusRefunded:
		o.CancelledAt = &now
	}
	o.UpdatedAt = now
	return cloneOrder(o), from, nil
}

func (m *Mem) AddItem(_ context.Context, tenantID, orderID string, it *Item) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok || o.TenantID != tenantID {
		return nil, ErrNotFound
	}
	if o.Status != StatusCart {
		return nil, ErrNotEditable
	}

	now := time.Now().UTC()
	merged := false
	for i := range o.Items {
		ex := &o.Items[i]
		if ex.ProductID == it.ProductID && ex.VariantID == it.VariantID {
			ex.Quantity += it.Quantity
			ex.SubtotalCents = ex.UnitPriceCents * ex.Quantity
			merged = true
			break
		}
	}
	if !merged {
		cp := *it
		cp.OrderID = orderID
		cp.CreatedAt = now
		o.Items = append(o.Items, cp)
	}
	recomputeTotalsMem(o)
	o.UpdatedAt = now
	return cloneOrder(o), nil
}

func (m *Mem) UpdateItemQuantity(_ context.Context, tenantID, orderID, itemID string, qty int64) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok || o.TenantID != tenantID {
		return nil, ErrNotFound
	}
	if o.Status != StatusCart {
		return nil, ErrNotEditable
	}

	idx := -1
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrItemNotFound
	}
	if qty == 0 {
		o.Items = append(o.Items[:idx], o.Items[idx+1:]...)
	} else {
		o.Items[idx].Quantity = qty
		o.Items[idx].SubtotalCents = o.Items[idx].UnitPriceCents * qty
	}
	recomputeTotalsMem(o)
	o.UpdatedAt = time.Now().UTC()
	return cloneOrder(o), nil
}

func (m *Mem) Delete(_ context.Context, tenantID, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok || o.TenantID != tenantID || o.Status != StatusCart {
		return ErrNotFound
	}
	delete(m.orders, orderID)
	return nil
}

func (m *Mem) reserveItems(ctx context.Context, tenantID string, items []Item) error {
	var done []Item
	var short []Shortfall
	for _, it := range items {
		if it.VariantID == "" {
			continue
		}
		_, err := m.inv.Reserve(ctx, tenantID, it.VariantID, inventory.DefaultWarehouse, it.Quantity)
		if err == nil {
			done = append(done, it)
			continue
		}
		if errors.Is(err, inventory.ErrNotFound) || errors.Is(err, inventory.ErrInsufficientStock) {
			var avail int64
			if rec, gerr := m.inv.Get(ctx, tenantID, it.VariantID, inventory.DefaultWarehouse); gerr == nil {
				avail = rec.Available()
			}
			short = append(short, Shortfall{
				VariantID:     it.VariantID,
				WarehouseCode: inventory.DefaultWarehouse,
				Requested:     it.Quantity,
				Available:     avail,
			})
			continue
		}
		m.releaseItems(ctx, tenantID, done)
		return err
	}
	if len(short) > 0 {
		m.releaseItems(ctx, tenantID, done)
		return &StockShortfallError{Shortfalls: short}
	}
	return nil
}

func (m *Mem) consumeItems(ctx context.Context, tenantID string, items []Item) error {
	var done []Item
	var short []Shortfall
	for _, it := range items {
		if it.VariantID == "" {
			continue
		}
		_, err := m.inv.ConsumeReserved(ctx, tenantID, it.VariantID, inventory.DefaultWarehouse, it.Quantity)
		if err == nil {
			done = append(done, it)
			continue
		}
		if errors.Is(err, inventory.ErrNotFound) || errors.Is(err, inventory.ErrInsufficientStock) {
			var have int64
			if rec, gerr := m.inv.Get(ctx, tenantID, it.VariantID, inventory.DefaultWarehouse); gerr == nil {
				have = rec.StockReserved
				if rec.StockOnHand < have {
					have = rec.StockOnHand
				}
			}
			short = append(short, Shortfall{
				VariantID:     it.VariantID,
				WarehouseCode: inventory.DefaultWarehouse,
				Requested:     it.Quantity,
				Available:     have,
			})
			continue
		}
		m.undoConsume(ctx, tenantID, done)
		return err
	}
	if len(short) > 0 {
		m.undoConsume(ctx, tenantID, done)
		return &StockShortfallError{Shortfalls: short}
	}
	return nil
}

// undoConsume puts consumed quantities back on hand and re-reserves them.
func (m *Mem) undoConsume(ctx context.Context, tenantID string, items []Item) {
	for _, it := range items {
		_, _ = m.inv.Adjust(ctx, tenantID, it.VariantID, inventory.DefaultWarehouse, it.Quantity)
		_, _ = m.inv.Reserve(ctx, tenantID, it.VariantID, inventory.DefaultWarehouse, it.Quantity)
	}
}

func (m *Mem) releaseItems(ctx context.Context, tenantID string, items []Item) {
	for _, it := range items {
		if it.VariantID == "" {
			continue
		}
		_, _ = m.inv.Release(ctx, tenantID, it.VariantID, inventory.DefaultWarehouse, it.Quantity)
	}
}

func recomputeTotalsMem(o *Order) {
	var sum int64
	for _, it := range o.Items {
		sum += it.SubtotalCents
	}
	o.SubtotalCents = sum
	o.TotalCents = sum + o.ShippingCents - o.DiscountCents
}

func cloneOrder(o *Order) *Order {
	cp := *o
	cp.Items = append([]Item(nil), o.Items...)
	return &cp
}
