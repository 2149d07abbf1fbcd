package model

import "time"

type TransactionKind string

const (
	KindDeposit               TransactionKind = "deposit"
	KindWithdrawal            TransactionKind = "withdrawal"
	KindBet                   TransactionKind = "bet"
	KindWin                   TransactionKind = "win"
	KindRefund                TransactionKind = "refund"
	KindBonus                 TransactionKind = "bonus"
	KindFee                   TransactionKind = "fee"
	KindTransferSent          TransactionKind = "transfer_sent"
	KindTransferReceived      TransactionKind = "transfer_received"
	KindAdminTransferSent     TransactionKind = "admin_transfer_sent"
	KindAdminTransferReceived TransactionKind = "admin_transfer_received"
	KindAdminBonus            TransactionKind = "admin_bonus"
)

type TransactionStatus string

const (
	TxPending   TransactionStatus = "pending"
	TxCompleted TransactionStatus = "completed"
	TxFailed    TransactionStatus = "failed"
	TxCancelled TransactionStatus = "cancelled"
)

// Transaction é uma entrada imutável do ledger.
// AmountCents é negativo para débitos.
type Transaction struct {
	ID                string
	OwnerID           string
	Kind              TransactionKind
	AmountCents       int64
	Currency          string
	Status            TransactionStatus
	Description       string
	RelatedTransferID string
	ExternalRef       string // referência externa (gateway/jogo); idempotência por (owner, kind, ref)
	BalanceAfterCents int64
	CreatedAt         time.Time
}
