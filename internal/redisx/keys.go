package redisx

import "time"

const (
	// Idempotency checkout per session: idem:checkout:{tenant_id}:{session_id} -> order_id
	KeyCheckoutIdem = "idem:checkout:%s:%s"

	// Cache order read model: order:{tenant_id}:{order_id} -> order JSON
	KeyOrderCache = "order:%s:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLOrderCache  = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
