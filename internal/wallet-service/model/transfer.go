package model

import "time"

type TransferStatus string

const (
	TransferPending   TransferStatus = "pending"
	TransferApproved  TransferStatus = "approved"
	TransferRejected  TransferStatus = "rejected"
	TransferCompleted TransferStatus = "completed"
)

// TransferRequest é a unidade do fluxo de transferência entre jogadores.
// Nunca é reaproveitada: cada tentativa gera um registro novo.
type TransferRequest struct {
	ID           string
	FromOwnerID  string
	ToOwnerID    string
	AmountCents  int64
	Reason       string
	FraudScore   int
	Status       TransferStatus
	SecurityCode string
	AdminNotes   string
	Admin        bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (t TransferRequest) IsTerminal() bool {
	return t.Status == TransferCompleted || t.Status == TransferRejected
}
