package events

const (
	TopicOrderCreated    = "order.created"
	TopicOrderStatus     = "order.status"
	TopicStockLow        = "stock.low"
	TopicPaymentCaptured = "payment.captured"
	TopicPaymentFailed   = "payment.failed"
	TopicRefundCreated   = "refund.created"
)

var topicByEvent = map[string]string{
	EventOrderCreated:       TopicOrderCreated,
	EventOrderStatusChanged: TopicOrderStatus,
	EventStockLow:           TopicStockLow,
	EventPaymentCaptured:    TopicPaymentCaptured,
	EventPaymentFailed:      TopicPaymentFailed,
	EventRefundCreated:      TopicRefundCreated,
}

func TopicFor(eventType string) string { return topicByEvent[eventType] }

// Partition key = correlation id (order_id for order events), so all events
// for one aggregate keep their order.
func PartitionKey(id string) []byte { return []byte(id) }
