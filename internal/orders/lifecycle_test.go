package orders

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/shoplane/shoplane/internal/catalog"
	"github.com/shoplane/shoplane/internal/events"
	"github.com/shoplane/shoplane/internal/inventory"
	"github.com/shoplane/shoplane/internal/pricing"
)

// LifecycleSuite walks orders through the full status graph and checks the
// stock side effects of each move.
type LifecycleSuite struct {
	suite.Suite
	svc *Service
	inv *inventory.Mem
	rec *events.Recorder
}

func (s *LifecycleSuite) SetupTest() {
	ctx := context.Background()
	cat := catalog.NewMem()
	prices := pricing.NewMem()
	s.inv = inventory.NewMem()
	s.rec = &events.Recorder{}
	s.svc = NewService(NewMem(s.inv), cat, &pricing.Resolver{Store: prices}, s.rec, nil)

	s.Require().NoError(cat.CreateProduct(ctx, &catalog.Product{
		ID: "p1", TenantID: testTenant, Name: "Shirt",
		BasePriceCents: 1000, Currency: "USD", IsActive: true,
	}))
	s.Require().NoError(cat.CreateVariant(ctx, &catalog.Variant{
		ID: "v1", TenantID: testTenant, ProductID: "p1", SKU: "SH-M", IsActive: true,
	}))
	s.Require().NoError(cat.CreateVariant(ctx, &catalog.Variant{
		ID: "v2", TenantID: testTenant, ProductID: "p1", SKU: "SH-L", IsActive: true,
	}))
	for id, onHand := range map[string]int64{"v1": 10, "v2": 1} {
		_, err := s.inv.Initialize(ctx, &inventory.Record{
			ID: "inv-" + id, TenantID: testTenant, VariantID: id,
			WarehouseCode: inventory.DefaultWarehouse, StockOnHand: onHand,
		})
		s.Require().NoError(err)
	}
}

func (s *LifecycleSuite) cart(items ...CreateItemInput) *Order {
	o, err := s.svc.Create(context.Background(), testTenant, CreateInput{Items: items})
	s.Require().NoError(err)
	return o
}

func (s *LifecycleSuite) move(orderID string, to Status, opts ...UpdateStatusInput) *Order {
	in := UpdateStatusInput{Status: to}
	if len(opts) > 0 {
		in = opts[0]
		in.Status = to
	}
	o, err := s.svc.UpdateStatus(context.Background(), testTenant, orderID, in)
	s.Require().NoError(err)
	return o
}

func (s *LifecycleSuite) stock(variantID string) *inventory.Record {
	rec, err := s.inv.Get(context.Background(), testTenant, variantID, inventory.DefaultWarehouse)
	s.Require().NoError(err)
	return rec
}

func (s *LifecycleSuite) TestCheckoutReservesStock() {
	o := s.cart(CreateItemInput{ProductID: "p1", VariantID: "v1", Quantity: 2})
	s.move(o.ID, StatusPendingPayment)

	rec := s.stock("v1")
	s.Equal(int64(2), rec.StockReserved)
	s.Equal(int64(10), rec.StockOnHand)
	s.Equal(int64(8), rec.Available())
}

func (s *LifecycleSuite) TestCheckoutShortfallRollsBack() {
	o := s.cart(
		CreateItemInput{ProductID: "p1", VariantID: "v1", Quantity: 2},
		CreateItemInput{ProductID: "p1", VariantID: "v2", Quantity: 5},
	)
	_, err := s.svc.UpdateStatus(context.Background(), testTenant, o.ID, UpdateStatusInput{Status: StatusPendingPayment})

	var se *StockShortfallError
	s.Require().True(errors.As(err, &se), "err = %v, want StockShortfallError", err)
	s.Require().Len(se.Shortfalls, 1)
	s.Equal("v2", se.Shortfalls[0].VariantID)
	s.Equal(int64(5), se.Shortfalls[0].Requested)
	s.Equal(int64(1), se.Shortfalls[0].Available)

	// v1 was reserved before v2 failed; the whole move must unwind
	s.Equal(int64(0), s.stock("v1").StockReserved)
	s.Equal(int64(0), s.stock("v2").StockReserved)

	got, gerr := s.svc.Get(context.Background(), testTenant, o.ID)
	s.Require().NoError(gerr)
	s.Equal(StatusCart, got.Status)
}

func (s *LifecycleSuite) TestPaidConsumesReservation() {
	o := s.cart(CreateItemInput{ProductID: "p1", VariantID: "v1", Quantity: 3})
	s.move(o.ID, StatusPendingPayment)
	paid := s.move(o.ID, StatusPaid)

	rec := s.stock("v1")
	s.Equal(int64(7), rec.StockOnHand)
	s.Equal(int64(0), rec.StockReserved)
	s.Require().NotNil(paid.PaidAt)
}

func (s *LifecycleSuite) TestCancelFromPendingReleases() {
	o := s.cart(CreateItemInput{ProductID: "p1", VariantID: "v1", Quantity: 4})
	s.move(o.ID, StatusPendingPayment)
	cancelled := s.move(o.ID, StatusCancelled)

	rec := s.stock("v1")
	s.Equal(int64(10), rec.StockOnHand)
	s.Equal(int64(0), rec.StockReserved)
	s.Require().NotNil(cancelled.CancelledAt)
}

func (s *LifecycleSuite) TestCancelFromPaidKeepsStockConsumed() {
	o := s.cart(CreateItemInput{ProductID: "p1", VariantID: "v1", Quantity: 3})
	s.move(o.ID, StatusPendingPayment)
	s.move(o.ID, StatusPaid)
	s.move(o.ID, StatusCancelled)

	// restocking after capture is a manual adjustment, not automatic
	s.Equal(int64(7), s.stock("v1").StockOnHand)
}

func (s *LifecycleSuite) TestRefundKeepsStockConsumed() {
	o := s.cart(CreateItemInput{ProductID: "p1", VariantID: "v1", Quantity: 2})
	s.move(o.ID, StatusPendingPayment)
	s.move(o.ID, StatusPaid)
	refunded := s.move(o.ID, StatusRefunded)

	s.Equal(int64(8), s.stock("v1").StockOnHand)
	s.Require().NotNil(refunded.CancelledAt)
	s.True(refunded.Status.Terminal())
}

func (s *LifecycleSuite) TestFulfillmentStamps() {
	o := s.cart(CreateItemInput{ProductID: "p1", VariantID: "v1", Quantity: 1})
	s.move(o.ID, StatusPendingPayment)
	s.move(o.ID, StatusPaid)
	s.move(o.ID, StatusProcessing)
	shipped := s.move(o.ID, StatusShipped, UpdateStatusInput{TrackingNumber: "TRK-123"})
	s.Equal("TRK-123", shipped.TrackingNumber)
	s.Require().NotNil(shipped.ShippedAt)

	delivered := s.move(o.ID, StatusDelivered)
	s.Require().NotNil(delivered.DeliveredAt)
	s.Require().NotNil(delivered.PaidAt)

	_, err := s.svc.UpdateStatus(context.Background(), testTenant, o.ID, UpdateStatusInput{Status: StatusCancelled})
	var te *TransitionError
	s.Require().True(errors.As(err, &te), "err = %v, want TransitionError", err)
	s.Equal(StatusDelivered, te.From)
	s.Equal(StatusCancelled, te.To)
}

func (s *LifecycleSuite) TestProductOnlyLineSkipsStock() {
	o := s.cart(CreateItemInput{ProductID: "p1", Quantity: 2})
	s.move(o.ID, StatusPendingPayment)
	s.move(o.ID, StatusPaid)

	// no variant on the line, so no inventory movement anywhere
	s.Equal(int64(10), s.stock("v1").StockOnHand)
	s.Equal(int64(0), s.stock("v1").StockReserved)
}

func (s *LifecycleSuite) TestSkipAheadRejected() {
	o := s.cart(CreateItemInput{ProductID: "p1", VariantID: "v1", Quantity: 1})
	_, err := s.svc.UpdateStatus(context.Background(), testTenant, o.ID, UpdateStatusInput{Status: StatusPaid})
	var te *TransitionError
	s.Require().True(errors.As(err, &te), "err = %v, want TransitionError", err)
	s.Equal(int64(0), s.stock("v1").StockReserved)
}

func TestLifecycleSuite(t *testing.T) {
	suite.Run(t, new(LifecycleSuite))
}
