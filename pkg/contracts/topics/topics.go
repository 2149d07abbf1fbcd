package topics

const (
	// Pagamentos (gateway -> carteira)
	PaymentCompleted = "payment_completed"

	// Carteira
	TransferEvents = "wallet_transfer_events"
	SecurityEvents = "wallet_security_events"

	// DLQs
	PaymentCompletedDLQ = "payment_completed_dlq"
)
