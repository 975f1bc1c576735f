package payments

import (
	"context"
	"errors"
	"testing"

	"github.com/shoplane/shoplane/internal/catalog"
	"github.com/shoplane/shoplane/internal/events"
	"github.com/shoplane/shoplane/internal/inventory"
	"github.com/shoplane/shoplane/internal/orders"
	"github.com/shoplane/shoplane/internal/pricing"
)

const testTenant = "t1"

type fixture struct {
	svc *Service
	ord *orders.Service
	rec *events.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	cat := catalog.NewMem()
	if err := cat.CreateProduct(ctx, &catalog.Product{
		ID: "p1", TenantID: testTenant, Name: "Shirt",
		BasePriceCents: 1000, Currency: "USD", IsActive: true,
	}); err != nil {
		t.Fatalf("seed product: %v", err)
	}

	ord := orders.NewService(orders.NewMem(inventory.NewMem()), cat,
		&pricing.Resolver{Store: pricing.NewMem()}, nil, nil)
	rec := &events.Recorder{}
	return &fixture{svc: NewService(NewMem(), ord, rec, nil), ord: ord, rec: rec}
}

// pendingOrder creates an order already waiting for payment.
func (f *fixture) pendingOrder(t *testing.T) *orders.Order {
	t.Helper()
	o, err := f.ord.Create(context.Background(), testTenant, orders.CreateInput{
		Status: orders.StatusPendingPayment,
		Items:  []orders.CreateItemInput{{ProductID: "p1", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return o
}

func (f *fixture) pendingPayment(t *testing.T) (*Payment, *orders.Order) {
	t.Helper()
	o := f.pendingOrder(t)
	p, err := f.svc.Create(context.Background(), testTenant, CreateInput{
		OrderID: o.ID, AmountCents: o.TotalCents, Method: "card",
	})
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}
	return p, o
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.pendingOrder(t)

	if _, err := f.svc.Create(ctx, testTenant, CreateInput{OrderID: o.ID, AmountCents: 0, Method: "card"}); !errors.Is(err, ErrBadAmount) {
		t.Errorf("zero amount: err = %v, want ErrBadAmount", err)
	}
	if _, err := f.svc.Create(ctx, testTenant, CreateInput{OrderID: o.ID, AmountCents: 100, Method: "  "}); !errors.Is(err, ErrBadMethod) {
		t.Errorf("blank method: err = %v, want ErrBadMethod", err)
	}
	if _, err := f.svc.Create(ctx, testTenant, CreateInput{OrderID: "ghost", AmountCents: 100, Method: "card"}); !errors.Is(err, orders.ErrNotFound) {
		t.Errorf("unknown order: err = %v, want orders.ErrNotFound", err)
	}
}

func TestCreateRequiresPendingPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cartOrder, err := f.ord.Create(ctx, testTenant, orders.CreateInput{
		Items: []orders.CreateItemInput{{ProductID: "p1", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("seed cart: %v", err)
	}
	if _, err := f.svc.Create(ctx, testTenant, CreateInput{OrderID: cartOrder.ID, AmountCents: 100, Method: "card"}); !errors.Is(err, ErrNotPayable) {
		t.Errorf("cart order: err = %v, want ErrNotPayable", err)
	}

	o := f.pendingOrder(t)
	p, err := f.svc.Create(ctx, testTenant, CreateInput{OrderID: o.ID, AmountCents: o.TotalCents, Method: "card", ProviderRef: "pi_1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.Status != StatusPending {
		t.Errorf("status = %s, want pending", p.Status)
	}
	if p.Currency != "USD" {
		t.Errorf("currency = %q, want USD from the order", p.Currency)
	}
	if p.ProviderRef != "pi_1" {
		t.Errorf("provider ref = %q, want pi_1", p.ProviderRef)
	}
}

func TestCaptureFlow(t *testing.T) {
	f := newFixture(t)
	p, o := f.pendingPayment(t)

	got, err := f.svc.UpdateStatus(context.Background(), testTenant, p.ID, UpdateStatusInput{
		Status: StatusSucceeded, ProviderRef: "ch_1",
	})
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if got.Status != StatusSucceeded || got.ProviderRef != "ch_1" {
		t.Errorf("payment = %s/%q, want succeeded/ch_1", got.Status, got.ProviderRef)
	}

	captured := f.rec.ByType(events.EventPaymentCaptured)
	if len(captured) != 1 {
		t.Fatalf("captured events = %d, want 1", len(captured))
	}
	if captured[0].Key != o.ID {
		t.Errorf("event key = %q, want order id %q", captured[0].Key, o.ID)
	}
	pl, ok := captured[0].Payload.(events.PaymentCapturedPayload)
	if !ok {
		t.Fatalf("payload type = %T", captured[0].Payload)
	}
	if pl.PaymentID != p.ID || pl.OrderID != o.ID || pl.AmountCents != p.AmountCents || pl.Method != "card" {
		t.Errorf("payload = %+v", pl)
	}
}

func TestFailureFlow(t *testing.T) {
	f := newFixture(t)
	p, o := f.pendingPayment(t)

	got, err := f.svc.UpdateStatus(context.Background(), testTenant, p.ID, UpdateStatusInput{
		Status: StatusFailed, Reason: "card_declined",
	})
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if got.Status != StatusFailed {
		t.Errorf("status = %s, want failed", got.Status)
	}

	failed := f.rec.ByType(events.EventPaymentFailed)
	if len(failed) != 1 {
		t.Fatalf("failed events = %d, want 1", len(failed))
	}
	pl, ok := failed[0].Payload.(events.PaymentFailedPayload)
	if !ok {
		t.Fatalf("payload type = %T", failed[0].Payload)
	}
	if pl.OrderID != o.ID || pl.Reason != "card_declined" {
		t.Errorf("payload = %+v", pl)
	}
}

func TestIllegalTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, _ := f.pendingPayment(t)

	if _, err := f.svc.UpdateStatus(ctx, testTenant, p.ID, UpdateStatusInput{Status: StatusSucceeded}); err != nil {
		t.Fatalf("capture: %v", err)
	}

	cases := []struct{ from, to Status }{
		{StatusSucceeded, StatusPending},
		{StatusSucceeded, StatusFailed},
	}
	for _, tc := range cases {
		_, err := f.svc.UpdateStatus(ctx, testTenant, p.ID, UpdateStatusInput{Status: tc.to})
		var te *TransitionError
		if !errors.As(err, &te) {
			t.Errorf("%s -> %s: err = %v, want TransitionError", tc.from, tc.to, err)
			continue
		}
		if te.From != tc.from || te.To != tc.to {
			t.Errorf("TransitionError = %s -> %s, want %s -> %s", te.From, te.To, tc.from, tc.to)
		}
	}

	if _, err := f.svc.UpdateStatus(ctx, testTenant, p.ID, UpdateStatusInput{Status: Status("bogus")}); !errors.Is(err, ErrBadStatus) {
		t.Errorf("bogus status: err = %v, want ErrBadStatus", err)
	}
	if _, err := f.svc.UpdateStatus(ctx, testTenant, "ghost", UpdateStatusInput{Status: StatusSucceeded}); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown payment: err = %v, want ErrNotFound", err)
	}
}

func TestRefundFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, o := f.pendingPayment(t)

	if _, err := f.svc.UpdateStatus(ctx, testTenant, p.ID, UpdateStatusInput{Status: StatusSucceeded}); err != nil {
		t.Fatalf("capture: %v", err)
	}

	rf, err := f.svc.Refund(ctx, testTenant, RefundInput{
		PaymentID: p.ID, AmountCents: p.AmountCents, Reason: "customer request",
	})
	if err != nil {
		t.Fatalf("Refund: %v", err)
	}
	if rf.OrderID != o.ID {
		t.Errorf("refund order id = %q, want %q", rf.OrderID, o.ID)
	}

	got, err := f.svc.Get(ctx, testTenant, p.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != StatusRefunded {
		t.Errorf("payment status = %s, want refunded", got.Status)
	}

	created := f.rec.ByType(events.EventRefundCreated)
	if len(created) != 1 {
		t.Fatalf("refund events = %d, want 1", len(created))
	}
	pl, ok := created[0].Payload.(events.RefundCreatedPayload)
	if !ok {
		t.Fatalf("payload type = %T", created[0].Payload)
	}
	if pl.RefundID != rf.ID || pl.PaymentID != p.ID || pl.Reason != "customer request" {
		t.Errorf("payload = %+v", pl)
	}
}

func TestRefundGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, _ := f.pendingPayment(t)

	if _, err := f.svc.Refund(ctx, testTenant, RefundInput{PaymentID: p.ID, AmountCents: 0}); !errors.Is(err, ErrBadAmount) {
		t.Errorf("zero amount: err = %v, want ErrBadAmount", err)
	}
	if _, err := f.svc.Refund(ctx, testTenant, RefundInput{PaymentID: p.ID, AmountCents: 100}); !errors.Is(err, ErrNotRefundable) {
		t.Errorf("pending payment: err = %v, want ErrNotRefundable", err)
	}
	if _, err := f.svc.Refund(ctx, testTenant, RefundInput{PaymentID: "ghost", AmountCents: 100}); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown payment: err = %v, want ErrNotFound", err)
	}

	if _, err := f.svc.UpdateStatus(ctx, testTenant, p.ID, UpdateStatusInput{Status: StatusSucceeded}); err != nil {
		t.Fatalf("capture: %v", err)
	}
	if _, err := f.svc.Refund(ctx, testTenant, RefundInput{PaymentID: p.ID, AmountCents: p.AmountCents + 1}); !errors.Is(err, ErrRefundExceeds) {
		t.Errorf("over-refund: err = %v, want ErrRefundExceeds", err)
	}
	if _, err := f.svc.Refund(ctx, testTenant, RefundInput{PaymentID: p.ID, OrderID: "other-order", AmountCents: 100}); !errors.Is(err, ErrOrderMismatch) {
		t.Errorf("wrong order: err = %v, want ErrOrderMismatch", err)
	}

	if _, err := f.svc.Refund(ctx, testTenant, RefundInput{PaymentID: p.ID, OrderID: p.OrderID, AmountCents: p.AmountCents}); err != nil {
		t.Fatalf("refund: %v", err)
	}
	if _, err := f.svc.Refund(ctx, testTenant, RefundInput{PaymentID: p.ID, AmountCents: 1}); !errors.Is(err, ErrNotRefundable) {
		t.Errorf("second refund: err = %v, want ErrNotRefundable", err)
	}
}
