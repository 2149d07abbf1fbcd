package events

import "time"

// Evento publicado pelo gateway de pagamento depois da verificação da transação.
// Kind: "deposit" | "withdrawal"
type PaymentCompleted struct {
	TxRef       string    `json:"tx_ref"` // referência do gateway, usada para idempotência
	UserID      string    `json:"user_id"`
	Kind        string    `json:"kind"`
	AmountCents int64     `json:"amount_cents"`
	Method      string    `json:"method,omitempty"` // ex: "telebirr", "cbe_birr"
	Ts          time.Time `json:"ts"`
}
