package events

// Topic constants for domain events emitted by the gateway.
const (
	TopicOrderPaid       = "order.paid"
	TopicOrderProcessing = "order.processing"
	TopicPaymentFailed   = "payment.failed"
)
