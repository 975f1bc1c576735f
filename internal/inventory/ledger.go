package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shoplane/shoplane/internal/events"
)

// Ledger is the stock service. It validates input, defaults the warehouse,
// delegates the atomic counter moves to the store and emits stock.low when a
// mutation leaves a record at or below its alert threshold.
type Ledger struct {
	store Store
	pub   events.Publisher
	log   *zap.Logger
}

func NewLedger(store Store, pub events.Publisher, log *zap.Logger) *Ledger {
	if pub == nil {
		pub = events.NopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{store: store, pub: pub, log: log}
}

func (l *Ledger) Initialize(ctx context.Context, tenantID, variantID, warehouse string, initialStock, minStockLevel int64) (*Record, error) {
	if initialStock < 0 || minStockLevel < 0 {
		return nil, ErrNegativeStock
	}
	rec, err := l.store.Initialize(ctx, &Record{
		ID:            uuid.NewString(),
		TenantID:      tenantID,
		VariantID:     variantID,
		WarehouseCode: defaultWarehouse(warehouse),
		StockOnHand:   initialStock,
		MinStockLevel: minStockLevel,
	})
	if err != nil {
		return nil, err
	}
	l.log.Info("inventory initialized",
		zap.String("tenant_id", tenantID),
		zap.String("variant_id", variantID),
		zap.String("warehouse", rec.WarehouseCode),
		zap.Int64("stock_on_hand", rec.StockOnHand))
	return rec, nil
}

func (l *Ledger) Get(ctx context.Context, tenantID, variantID, warehouse string) (*Record, error) {
	return l.store.Get(ctx, tenantID, variantID, defaultWarehouse(warehouse))
}

func (l *Ledger) Reserve(ctx context.Context, tenantID, variantID, warehouse string, qty int64) (*Record, error) {
	if qty <= 0 {
		return nil, ErrBadQuantity
	}
	rec, err := l.store.Reserve(ctx, tenantID, variantID, defaultWarehouse(warehouse), qty)
	if err != nil {
		return nil, err
	}
	l.log.Info("stock reserved",
		zap.String("tenant_id", tenantID),
		zap.String("variant_id", variantID),
		zap.String("warehouse", rec.WarehouseCode),
		zap.Int64("qty", qty),
		zap.Int64("available", rec.Available()))
	l.alertIfLow(ctx, rec)
	return rec, nil
}

func (l *Ledger) Release(ctx context.Context, tenantID, variantID, warehouse string, qty int64) (*Record, error) {
	if qty <= 0 {
		return nil, ErrBadQuantity
	}
	rec, err := l.store.Release(ctx, tenantID, variantID, defaultWarehouse(warehouse), qty)
	if err != nil {
		return nil, err
	}
	l.log.Info("stock released",
		zap.String("tenant_id", tenantID),
		zap.String("variant_id", variantID),
		zap.String("warehouse", rec.WarehouseCode),
		zap.Int64("qty", qty))
	return rec, nil
}

func (l *Ledger) ConsumeReserved(ctx context.Context, tenantID, variantID, warehouse string, qty int64) (*Record, error) {
	if qty <= 0 {
		return nil, ErrBadQuantity
	}
	rec, err := l.store.ConsumeReserved(ctx, tenantID, variantID, defaultWarehouse(warehouse), qty)
	if err != nil {
		return nil, err
	}
	l.log.Info("stock consumed",
		zap.String("tenant_id", tenantID),
		zap.String("variant_id", variantID),
		zap.String("warehouse", rec.WarehouseCode),
		zap.Int64("qty", qty),
		zap.Int64("stock_on_hand", rec.StockOnHand))
	l.alertIfLow(ctx, rec)
	return rec, nil
}

func (l *Ledger) Adjust(ctx context.Context, tenantID, variantID, warehouse string, delta int64) (*Record, error) {
	rec, err := l.store.Adjust(ctx, tenantID, variantID, defaultWarehouse(warehouse), delta)
	if err != nil {
		return nil, err
	}
	l.log.Info("stock adjusted",
		zap.String("tenant_id", tenantID),
		zap.String("variant_id", variantID),
		zap.String("warehouse", rec.WarehouseCode),
		zap.Int64("delta", delta),
		zap.Int64("stock_on_hand", rec.StockOnHand))
	l.alertIfLow(ctx, rec)
	return rec, nil
}

// Available returns the sellable quantity, zero when no record exists.
func (l *Ledger) Available(ctx context.Context, tenantID, variantID, warehouse string) (int64, error) {
	rec, err := l.store.Get(ctx, tenantID, variantID, defaultWarehouse(warehouse))
	if errors.Is(err, ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return rec.Available(), nil
}

func (l *Ledger) LowStock(ctx context.Context, tenantID, warehouse string) ([]Record, error) {
	return l.store.LowStock(ctx, tenantID, warehouse)
}

func (l *Ledger) alertIfLow(ctx context.Context, rec *Record) {
	if !rec.LowStock() {
		return
	}
	l.log.Warn("stock low",
		zap.String("tenant_id", rec.TenantID),
		zap.String("variant_id", rec.VariantID),
		zap.String("warehouse", rec.WarehouseCode),
		zap.Int64("available", rec.Available()),
		zap.Int64("min_stock_level", rec.MinStockLevel))
	l.pub.Publish(ctx, events.EventStockLow, rec.VariantID, events.StockLowPayload{
		TenantID:      rec.TenantID,
		VariantID:     rec.VariantID,
		WarehouseCode: rec.WarehouseCode,
		Available:     rec.Available(),
		MinStockLevel: rec.MinStockLevel,
	})
}

func defaultWarehouse(w string) string {
	if w == "" {
		return DefaultWarehouse
	}
	return w
}
