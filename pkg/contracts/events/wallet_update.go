package events

import "time"

// Publicado no Redis Pub/Sub após commit de qualquer alteração de carteira (consumido pelo /ws).
type WalletUpdate struct {
	UserID       string    `json:"userId"`
	BalanceCents int64     `json:"balance_cents"`
	Currency     string    `json:"currency"`
	IsLocked     bool      `json:"is_locked"`
	Status       string    `json:"status"`
	Ts           time.Time `json:"ts"`
}
