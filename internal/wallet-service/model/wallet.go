package model

import "time"

type WalletStatus string

const (
	WalletActive    WalletStatus = "active"
	WalletSuspended WalletStatus = "suspended"
	WalletClosed    WalletStatus = "closed"
)

type SecurityLevel string

const (
	SecurityBasic    SecurityLevel = "basic"
	SecurityEnhanced SecurityLevel = "enhanced"
	SecurityPremium  SecurityLevel = "premium"
)

// Wallet é o estado persistido de uma carteira, uma por usuário.
// Valores monetários em centavos.
type Wallet struct {
	OwnerID                 string
	BalanceCents            int64
	Currency                string
	Status                  WalletStatus
	IsLocked                bool
	LockReason              string
	SecurityLevel           SecurityLevel
	DailyLimitCents         int64
	DailyUsedCents          int64
	LastTransferDate        string // chave do dia (YYYY-MM-DD) em que DailyUsedCents foi acumulado
	TransferLimitCents      int64  // teto por transferência
	DeviceFingerprint       string
	SuspiciousActivityCount int
	Version                 int64
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// Limits são os defaults aplicados a carteiras criadas sob demanda
type Limits struct {
	Currency           string
	DailyLimitCents    int64
	TransferLimitCents int64
}

// NewWallet monta uma carteira zerada e ativa com os limites padrão
func NewWallet(ownerID string, l Limits, now time.Time) Wallet {
	return Wallet{
		OwnerID:            ownerID,
		Currency:           l.Currency,
		Status:             WalletActive,
		SecurityLevel:      SecurityBasic,
		DailyLimitCents:    l.DailyLimitCents,
		TransferLimitCents: l.TransferLimitCents,
		Version:            1,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// DailyUsedOn retorna o consumo do limite diário para o dia informado,
// considerando zerado quando o último uso foi em outro dia
func (w Wallet) DailyUsedOn(day string) int64 {
	if w.LastTransferDate != day {
		return 0
	}
	return w.DailyUsedCents
}

// RemainingDaily quanto ainda pode ser transferido no dia
func (w Wallet) RemainingDaily(day string) int64 {
	return w.DailyLimitCents - w.DailyUsedOn(day)
}
