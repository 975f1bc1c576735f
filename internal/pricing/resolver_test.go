package pricing

import (
	"context"
	"errors"
	"testing"
	"time"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestResolver() (*Resolver, *Mem) {
	mem := NewMem()
	return &Resolver{Store: mem, Now: func() time.Time { return testNow }}, mem
}

func sp(s string) *string { return &s }

func tp(t time.Time) *time.Time { return &t }

func seed(t *testing.T, mem *Mem, p Price) {
	t.Helper()
	if p.TenantID == "" {
		p.TenantID = "t1"
	}
	if p.Currency == "" {
		p.Currency = "USD"
	}
	if err := mem.Create(context.Background(), &p); err != nil {
		t.Fatalf("seed price %s: %v", p.ID, err)
	}
}

func TestExpiredWindowFallsBack(t *testing.T) {
	r, mem := newTestResolver()

	// promo ended yesterday
	seed(t, mem, Price{
		ID:         "p-promo",
		ProductID:  sp("prod1"),
		PriceCents: 1500,
		IsActive:   true,
		ValidFrom:  tp(testNow.Add(-10 * 24 * time.Hour)),
		ValidUntil: tp(testNow.Add(-24 * time.Hour)),
		CreatedAt:  testNow.Add(-10 * 24 * time.Hour),
	})

	base := int64(2000)
	cents, err := r.ActivePriceCents(context.Background(), "t1", "prod1", "", &base)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cents != 2000 {
		t.Errorf("expected fallback 2000, got %d", cents)
	}
}

func TestWindowedPriceApplies(t *testing.T) {
	r, mem := newTestResolver()

	seed(t, mem, Price{
		ID:         "p-promo",
		ProductID:  sp("prod1"),
		PriceCents: 1500,
		IsActive:   true,
		ValidFrom:  tp(testNow.Add(-time.Hour)),
		ValidUntil: tp(testNow.Add(time.Hour)),
		CreatedAt:  testNow.Add(-time.Hour),
	})

	base := int64(2000)
	cents, err := r.ActivePriceCents(context.Background(), "t1", "prod1", "", &base)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cents != 1500 {
		t.Errorf("expected promo 1500, got %d", cents)
	}
}

func TestWindowBoundsInclusive(t *testing.T) {
	r, mem := newTestResolver()

	seed(t, mem, Price{
		ID:         "p-edge",
		ProductID:  sp("prod1"),
		PriceCents: 900,
		IsActive:   true,
		ValidFrom:  tp(testNow),
		ValidUntil: tp(testNow),
		CreatedAt:  testNow.Add(-time.Minute),
	})

	p, err := r.ActivePrice(context.Background(), "t1", "prod1", "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if p == nil || p.ID != "p-edge" {
		t.Errorf("bounds are inclusive, expected p-edge, got %+v", p)
	}
}

func TestOpenEndedWindow(t *testing.T) {
	r, mem := newTestResolver()

	seed(t, mem, Price{
		ID:         "p-open",
		ProductID:  sp("prod1"),
		PriceCents: 1100,
		IsActive:   true,
		CreatedAt:  testNow.Add(-time.Hour),
	})

	p, err := r.ActivePrice(context.Background(), "t1", "prod1", "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if p == nil || p.PriceCents != 1100 {
		t.Errorf("expected open-ended row to apply, got %+v", p)
	}
}

func TestVariantRowBeatsProductRow(t *testing.T) {
	r, mem := newTestResolver()

	// product row is newer, variant row still wins
	seed(t, mem, Price{
		ID:         "p-prod",
		ProductID:  sp("prod1"),
		PriceCents: 1000,
		IsActive:   true,
		CreatedAt:  testNow.Add(-time.Minute),
	})
	seed(t, mem, Price{
		ID:         "p-var",
		VariantID:  sp("var1"),
		PriceCents: 1200,
		IsActive:   true,
		CreatedAt:  testNow.Add(-time.Hour),
	})

	p, err := r.ActivePrice(context.Background(), "t1", "prod1", "var1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if p == nil || p.ID != "p-var" {
		t.Errorf("expected variant row to win, got %+v", p)
	}
}

func TestLastConfiguredWins(t *testing.T) {
	r, mem := newTestResolver()

	seed(t, mem, Price{
		ID:         "p-old",
		ProductID:  sp("prod1"),
		PriceCents: 1000,
		IsActive:   true,
		CreatedAt:  testNow.Add(-2 * time.Hour),
	})
	seed(t, mem, Price{
		ID:         "p-new",
		ProductID:  sp("prod1"),
		PriceCents: 1300,
		IsActive:   true,
		CreatedAt:  testNow.Add(-time.Hour),
	})

	p, err := r.ActivePrice(context.Background(), "t1", "prod1", "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if p == nil || p.ID != "p-new" {
		t.Errorf("expected most recently created row, got %+v", p)
	}
}

func TestCreatedAtTieBreaksOnID(t *testing.T) {
	r, mem := newTestResolver()

	created := testNow.Add(-time.Hour)
	seed(t, mem, Price{ID: "a", ProductID: sp("prod1"), PriceCents: 1000, IsActive: true, CreatedAt: created})
	seed(t, mem, Price{ID: "b", ProductID: sp("prod1"), PriceCents: 1300, IsActive: true, CreatedAt: created})

	p, err := r.ActivePrice(context.Background(), "t1", "prod1", "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if p == nil || p.ID != "b" {
		t.Errorf("expected deterministic tie break on id, got %+v", p)
	}
}

func TestInactiveRowIgnored(t *testing.T) {
	r, mem := newTestResolver()

	seed(t, mem, Price{
		ID:         "p-off",
		ProductID:  sp("prod1"),
		PriceCents: 500,
		IsActive:   false,
		CreatedAt:  testNow.Add(-time.Hour),
	})

	p, err := r.ActivePrice(context.Background(), "t1", "prod1", "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if p != nil {
		t.Errorf("inactive row must not resolve, got %+v", p)
	}
}

func TestNoPriceNoFallback(t *testing.T) {
	r, _ := newTestResolver()

	if _, err := r.ActivePriceCents(context.Background(), "t1", "prod1", "", nil); !errors.Is(err, ErrNoPrice) {
		t.Errorf("expected ErrNoPrice, got %v", err)
	}
}

func TestTenantScoping(t *testing.T) {
	r, mem := newTestResolver()

	seed(t, mem, Price{
		ID:         "p-other",
		TenantID:   "t2",
		ProductID:  sp("prod1"),
		PriceCents: 100,
		IsActive:   true,
		CreatedAt:  testNow.Add(-time.Hour),
	})

	p, err := r.ActivePrice(context.Background(), "t1", "prod1", "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if p != nil {
		t.Errorf("another tenant's row must not resolve, got %+v", p)
	}
}

func TestProductPricesOnlyActiveNewestFirst(t *testing.T) {
	r, mem := newTestResolver()

	seed(t, mem, Price{ID: "p1", ProductID: sp("prod1"), PriceCents: 1000, IsActive: true, CreatedAt: testNow.Add(-3 * time.Hour)})
	seed(t, mem, Price{ID: "p2", ProductID: sp("prod1"), PriceCents: 1200, IsActive: true, CreatedAt: testNow.Add(-time.Hour)})
	seed(t, mem, Price{ID: "p3", ProductID: sp("prod1"), PriceCents: 800, IsActive: true,
		ValidUntil: tp(testNow.Add(-time.Minute)), CreatedAt: testNow.Add(-2 * time.Hour)})
	seed(t, mem, Price{ID: "p4", ProductID: sp("other"), PriceCents: 700, IsActive: true, CreatedAt: testNow})

	ps, err := r.ProductPrices(context.Background(), "t1", "prod1")
	if err != nil {
		t.Fatalf("product prices: %v", err)
	}
	if len(ps) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(ps))
	}
	if ps[0].ID != "p2" || ps[1].ID != "p1" {
		t.Errorf("expected newest first [p2 p1], got [%s %s]", ps[0].ID, ps[1].ID)
	}
}

func TestIsActive(t *testing.T) {
	r, mem := newTestResolver()

	seed(t, mem, Price{ID: "live", ProductID: sp("prod1"), PriceCents: 1000, IsActive: true, CreatedAt: testNow.Add(-time.Hour)})
	seed(t, mem, Price{ID: "dead", ProductID: sp("prod1"), PriceCents: 1000, IsActive: true,
		ValidUntil: tp(testNow.Add(-time.Hour)), CreatedAt: testNow.Add(-2 * time.Hour)})

	if ok, err := r.IsActive(context.Background(), "t1", "live"); err != nil || !ok {
		t.Errorf("expected live row active, got %v %v", ok, err)
	}
	if ok, err := r.IsActive(context.Background(), "t1", "dead"); err != nil || ok {
		t.Errorf("expected expired row inactive, got %v %v", ok, err)
	}
	if _, err := r.IsActive(context.Background(), "t1", "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestValidateTargets(t *testing.T) {
	both := Price{ID: "x", PriceCents: 100, ProductID: sp("p"), VariantID: sp("v")}
	if err := both.Validate(); !errors.Is(err, ErrBadTarget) {
		t.Errorf("both targets: expected ErrBadTarget, got %v", err)
	}
	neither := Price{ID: "x", PriceCents: 100}
	if err := neither.Validate(); !errors.Is(err, ErrBadTarget) {
		t.Errorf("no target: expected ErrBadTarget, got %v", err)
	}
	free := Price{ID: "x", PriceCents: 0, ProductID: sp("p")}
	if err := free.Validate(); !errors.Is(err, ErrBadAmount) {
		t.Errorf("zero cents: expected ErrBadAmount, got %v", err)
	}
	okRow := Price{ID: "x", PriceCents: 100, VariantID: sp("v")}
	if err := okRow.Validate(); err != nil {
		t.Errorf("valid row rejected: %v", err)
	}
}

func TestLabelSurvivesStoreAndListing(t *testing.T) {
	r, mem := newTestResolver()

	seed(t, mem, Price{
		ID:         "p-sale",
		ProductID:  sp("prod1"),
		PriceCents: 1500,
		Label:      "Summer sale",
		IsActive:   true,
		CreatedAt:  testNow.Add(-time.Hour),
	})

	got, err := mem.Get(context.Background(), "t1", "p-sale")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Label != "Summer sale" {
		t.Errorf("expected label %q, got %q", "Summer sale", got.Label)
	}

	ps, err := r.ProductPrices(context.Background(), "t1", "prod1")
	if err != nil {
		t.Fatalf("product prices: %v", err)
	}
	if len(ps) != 1 || ps[0].Label != "Summer sale" {
		t.Errorf("expected one row labelled %q, got %+v", "Summer sale", ps)
	}
}
