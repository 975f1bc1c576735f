package catalog

import (
	"context"
	"errors"
	"testing"
)

func TestOptionsValidate(t *testing.T) {
	if err := (Options{"size": "M", "color": "blue"}).Validate(); err != nil {
		t.Errorf("valid options rejected: %v", err)
	}
	if err := (Options(nil)).Validate(); err != nil {
		t.Errorf("nil options rejected: %v", err)
	}
	if err := (Options{" ": "M"}).Validate(); err == nil {
		t.Error("blank key accepted")
	}
	if err := (Options{"size": "  "}).Validate(); err == nil {
		t.Error("blank value accepted")
	}
}

func TestMemTenantScoping(t *testing.T) {
	m := NewMem()
	ctx := context.Background()

	if err := m.CreateProduct(ctx, &Product{ID: "p1", TenantID: "t1", Name: "Shirt"}); err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if err := m.CreateVariant(ctx, &Variant{ID: "v1", TenantID: "t1", ProductID: "p1"}); err != nil {
		t.Fatalf("CreateVariant: %v", err)
	}

	if _, err := m.GetProduct(ctx, "t2", "p1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-tenant product read: err = %v, want ErrNotFound", err)
	}
	if _, err := m.GetVariant(ctx, "t2", "v1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-tenant variant read: err = %v, want ErrNotFound", err)
	}

	ps, err := m.ListProducts(ctx, "t2")
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if len(ps) != 0 {
		t.Errorf("other tenant sees %d products", len(ps))
	}
}

func TestMemUpdateProduct(t *testing.T) {
	m := NewMem()
	ctx := context.Background()

	if err := m.UpdateProduct(ctx, &Product{ID: "ghost", TenantID: "t1"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("update missing: err = %v, want ErrNotFound", err)
	}

	if err := m.CreateProduct(ctx, &Product{ID: "p1", TenantID: "t1", Name: "Shirt"}); err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	created, _ := m.GetProduct(ctx, "t1", "p1")

	upd := *created
	upd.Name = "Linen Shirt"
	if err := m.UpdateProduct(ctx, &upd); err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}

	got, err := m.GetProduct(ctx, "t1", "p1")
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if got.Name != "Linen Shirt" {
		t.Errorf("name = %q", got.Name)
	}
	if !got.CreatedAt.Equal(created.CreatedAt) {
		t.Error("update must keep the original created_at")
	}

	other := *created
	other.TenantID = "t2"
	if err := m.UpdateProduct(ctx, &other); !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-tenant update: err = %v, want ErrNotFound", err)
	}
}

func TestListVariantsFiltersByProduct(t *testing.T) {
	m := NewMem()
	ctx := context.Background()

	for _, v := range []Variant{
		{ID: "v1", TenantID: "t1", ProductID: "p1"},
		{ID: "v2", TenantID: "t1", ProductID: "p1"},
		{ID: "v3", TenantID: "t1", ProductID: "p2"},
	} {
		cp := v
		if err := m.CreateVariant(ctx, &cp); err != nil {
			t.Fatalf("CreateVariant: %v", err)
		}
	}

	vs, err := m.ListVariants(ctx, "t1", "p1")
	if err != nil {
		t.Fatalf("ListVariants: %v", err)
	}
	if len(vs) != 2 {
		t.Errorf("variants of p1 = %d, want 2", len(vs))
	}

	all, err := m.ListVariants(ctx, "t1", "")
	if err != nil {
		t.Fatalf("ListVariants: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("all variants = %d, want 3", len(all))
	}
}
