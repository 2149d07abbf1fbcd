package events

import "time"

// Evento emitido pela wallet-service a cada mudança de estado de uma transferência.
type TransferEvent struct {
	TransferID  string    `json:"transfer_id"`
	FromUserID  string    `json:"from_user_id"`
	ToUserID    string    `json:"to_user_id"`
	AmountCents int64     `json:"amount_cents"`
	Status      string    `json:"status"` // "pending" | "completed" | "rejected"
	FraudScore  int       `json:"fraud_score"`
	Admin       bool      `json:"admin,omitempty"`
	Ts          time.Time `json:"ts"`
}
