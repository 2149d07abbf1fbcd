package events

import "time"

// Espelho de cada entrada do log de segurança da carteira, para consumo forense.
type SecurityEvent struct {
	EntryID   string    `json:"entry_id"`
	UserID    string    `json:"user_id"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	RiskLevel string    `json:"risk_level"`
	IPAddress string    `json:"ip_address,omitempty"`
	Ts        time.Time `json:"ts"`
}
