package httpx

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server owns the REST surface. Every API route requires the tenant header;
// cart routes additionally resolve the session cookie.
type Server struct {
	Catalog   *CatalogHandler
	Prices    *PricesHandler
	Inventory *InventoryHandler
	Orders    *OrdersHandler
	Payments  *PaymentsHandler
	Cart      *CartHandler
}

func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(RequireTenant)
		s.Catalog.Register(r)
		s.Prices.Register(r)
		s.Inventory.Register(r)
		s.Orders.Register(r)
		s.Payments.Register(r)

		r.Group(func(r chi.Router) {
			r.Use(Session)
			s.Cart.Register(r)
		})
	})
	return r
}
