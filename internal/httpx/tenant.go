package httpx

import (
	"context"
	"net/http"
)

const HeaderTenant = "X-Tenant-ID"

type ctxKey int

const (
	ctxTenant ctxKey = iota
	ctxSession
)

// RequireTenant rejects requests without an X-Tenant-ID header and parks the
// tenant on the request context for handlers.
func RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t := r.Header.Get(HeaderTenant)
		if t == "" {
			writeError(w, http.StatusBadRequest, "missing X-Tenant-ID header")
			return
		}
		ctx := context.WithValue(r.Context(), ctxTenant, t)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func tenantID(r *http.Request) string {
	t, _ := r.Context().Value(ctxTenant).(string)
	return t
}
