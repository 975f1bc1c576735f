package orders

type Status string

const (
	StatusCart           Status = "cart"
	StatusPendingPayment Status = "pending_payment"
	StatusPaid           Status = "paid"
	StatusProcessing     Status = "processing"
	StatusShipped        Status = "shipped"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
	StatusRefunded       Status = "refunded"
)

// validNext is the authoritative transition table: the forward chain plus
// cancelled/refunded reachable from every non-terminal state.
var validNext = map[Status]map[Status]bool{
	StatusCart:           {StatusPendingPayment: true, StatusCancelled: true, StatusRefunded: true},
	StatusPendingPayment: {StatusPaid: true, StatusCancelled: true, StatusRefunded: true},
	StatusPaid:           {StatusProcessing: true, StatusCancelled: true, StatusRefunded: true},
	StatusProcessing:     {StatusShipped: true, StatusCancelled: true, StatusRefunded: true},
	StatusShipped:        {StatusDelivered: true, StatusCancelled: true, StatusRefunded: true},
	StatusDelivered:      {},
	StatusCancelled:      {},
	StatusRefunded:       {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// Terminal reports whether no further transition leaves s.
func (s Status) Terminal() bool {
	next, ok := validNext[s]
	return ok && len(next) == 0
}

// Valid reports whether s names a known status.
func (s Status) Valid() bool {
	_, ok := validNext[s]
	return ok
}
