package catalog

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrNotFound = errors.New("catalog: not found")

// Options holds variant attributes, e.g. {"size": "M", "color": "blue"}.
type Options map[string]string

func (o Options) Validate() error {
	for k, v := range o {
		if strings.TrimSpace(k) == "" {
			return errors.New("option key must not be empty")
		}
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("option %q must not have an empty value", k)
		}
	}
	return nil
}

type Product struct {
	ID             string    `json:"id"`
	TenantID       string    `json:"tenant_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	SKU            string    `json:"sku,omitempty"`
	BasePriceCents int64     `json:"base_price_cents"`
	Currency       string    `json:"currency"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Variant struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenant_id"`
	ProductID  string    `json:"product_id"`
	SKU        string    `json:"sku,omitempty"`
	Options    Options   `json:"options,omitempty"`
	PriceCents *int64    `json:"price_cents,omitempty"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
