package dto

import (
	"time"

	"github.com/radieske/bingo-wallet/internal/wallet-service/model"
)

// Valores monetários trafegam como string decimal ("150.00")

type WalletResponse struct {
	OwnerID                 string    `json:"ownerId"`
	Balance                 string    `json:"balance"`
	Currency                string    `json:"currency"`
	Status                  string    `json:"status"`
	IsLocked                bool      `json:"isLocked"`
	LockReason              string    `json:"lockReason,omitempty"`
	SecurityLevel           string    `json:"securityLevel"`
	DailyTransferLimit      string    `json:"dailyTransferLimit"`
	DailyTransferUsed       string    `json:"dailyTransferUsed"`
	TransferLimit           string    `json:"transferLimit"`
	SuspiciousActivityCount int       `json:"suspiciousActivityCount"`
	UpdatedAt               time.Time `json:"updatedAt"`
}

// NewWalletResponse renderiza a carteira; o consumo diário já considera a virada do dia
func NewWalletResponse(w model.Wallet, today string) WalletResponse {
	return WalletResponse{
		OwnerID:                 w.OwnerID,
		Balance:                 model.FormatAmount(w.BalanceCents),
		Currency:                w.Currency,
		Status:                  string(w.Status),
		IsLocked:                w.IsLocked,
		LockReason:              w.LockReason,
		SecurityLevel:           string(w.SecurityLevel),
		DailyTransferLimit:      model.FormatAmount(w.DailyLimitCents),
		DailyTransferUsed:       model.FormatAmount(w.DailyUsedOn(today)),
		TransferLimit:           model.FormatAmount(w.TransferLimitCents),
		SuspiciousActivityCount: w.SuspiciousActivityCount,
		UpdatedAt:               w.UpdatedAt,
	}
}

type LockRequest struct {
	Reason string `json:"reason"`
}

type LimitsRequest struct {
	DailyTransferLimit string `json:"dailyTransferLimit"`
	TransferLimit      string `json:"transferLimit"`
}

type StatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

type DeviceRequest struct {
	Fingerprint string `json:"fingerprint"`
}
