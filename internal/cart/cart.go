package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/shoplane/shoplane/internal/orders"
	"github.com/shoplane/shoplane/internal/redisx"
)

var ErrEmptyCart = errors.New("cart: cart is empty")

// Service ties the session cookie to the one open cart order per session.
// A cart is an order in status cart; checkout converts it through the
// transactional reserve path.
type Service struct {
	orders *orders.Service
	store  orders.Store
	rdb    *redis.Client
	log    *zap.Logger
}

func NewService(o *orders.Service, store orders.Store, rdb *redis.Client, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{orders: o, store: store, rdb: rdb, log: log}
}

// Get returns the session's cart, or nil when none exists. Reading never
// persists anything.
func (s *Service) Get(ctx context.Context, tenantID, sessionID string) (*orders.Order, error) {
	o, err := s.store.GetBySession(ctx, tenantID, sessionID)
	if errors.Is(err, orders.ErrNotFound) {
		return nil, nil
	}
	return o, err
}

// AddItem lazily creates the cart on first use, otherwise merges or appends a
// line priced and snapshotted the same way order creation prices lines.
func (s *Service) AddItem(ctx context.Context, tenantID, sessionID, productID, variantID string, qty int64) (*orders.Order, error) {
	if qty <= 0 {
		return nil, orders.ErrBadQuantity
	}
	cartOrder, err := s.store.GetBySession(ctx, tenantID, sessionID)
	if errors.Is(err, orders.ErrNotFound) {
		o, cerr := s.orders.Create(ctx, tenantID, orders.CreateInput{
			SessionID: sessionID,
			Items:     []orders.CreateItemInput{{ProductID: productID, VariantID: variantID, Quantity: qty}},
		})
		if !errors.Is(cerr, orders.ErrCartExists) {
			return o, cerr
		}
		// lost the create race with another tab; merge into the winner
		cartOrder, err = s.store.GetBySession(ctx, tenantID, sessionID)
	}
	if err != nil {
		return nil, err
	}

	it, err := s.orders.BuildItem(ctx, tenantID, orders.CreateItemInput{
		ProductID: productID, VariantID: variantID, Quantity: qty,
	})
	if err != nil {
		return nil, err
	}
	return s.store.AddItem(ctx, tenantID, cartOrder.ID, it)
}

// UpdateItem changes a line's quantity; zero removes the line.
func (s *Service) UpdateItem(ctx context.Context, tenantID, sessionID, itemID string, qty int64) (*orders.Order, error) {
	if qty < 0 {
		return nil, orders.ErrBadQuantity
	}
	cartOrder, err := s.store.GetBySession(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	return s.store.UpdateItemQuantity(ctx, tenantID, cartOrder.ID, itemID, qty)
}

// Clear drops the cart order; items cascade. Clearing a session without a
// cart is a no-op.
func (s *Service) Clear(ctx context.Context, tenantID, sessionID string) error {
	cartOrder, err := s.store.GetBySession(ctx, tenantID, sessionID)
	if errors.Is(err, orders.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.store.Delete(ctx, tenantID, cartOrder.ID)
}

type CheckoutResult struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	Status      string `json:"status"`
}

// Checkout commits the cart: the cart -> pending_payment transition reserves
// every line or rolls everything back. The result is remembered per session so
// a replayed checkout returns the committed order instead of a 404.
func (s *Service) Checkout(ctx context.Context, tenantID, sessionID string) (*CheckoutResult, error) {
	cartOrder, err := s.store.GetBySession(ctx, tenantID, sessionID)
	if errors.Is(err, orders.ErrNotFound) {
		if res := s.replayed(ctx, tenantID, sessionID); res != nil {
			return res, nil
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	if len(cartOrder.Items) == 0 {
		return nil, ErrEmptyCart
	}

	o, err := s.orders.UpdateStatus(ctx, tenantID, cartOrder.ID, orders.UpdateStatusInput{
		Status: orders.StatusPendingPayment,
	})
	if err != nil {
		return nil, err
	}

	res := &CheckoutResult{OrderID: o.ID, OrderNumber: o.OrderNumber, Status: string(o.Status)}
	s.remember(ctx, tenantID, sessionID, res)
	s.log.Info("cart checked out",
		zap.String("tenant_id", tenantID),
		zap.String("session_id", sessionID),
		zap.String("order_id", o.ID))
	return res, nil
}

func (s *Service) remember(ctx context.Context, tenantID, sessionID string, res *CheckoutResult) {
	if s.rdb == nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyCheckoutIdem, tenantID, sessionID)
	b, _ := json.Marshal(res)
	if err := s.rdb.Set(ctx, key, b, redisx.TTLIdempotency).Err(); err != nil {
		s.log.Warn("checkout idempotency write failed", zap.Error(err))
	}
}

func (s *Service) replayed(ctx context.Context, tenantID, sessionID string) *CheckoutResult {
	if s.rdb == nil {
		return nil
	}
	key := fmt.Sprintf(redisx.KeyCheckoutIdem, tenantID, sessionID)
	b, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil
	}
	var res CheckoutResult
	if json.Unmarshal(b, &res) != nil {
		return nil
	}
	return &res
}
