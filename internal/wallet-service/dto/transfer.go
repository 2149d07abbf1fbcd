package dto

import (
	"time"

	"github.com/radieske/bingo-wallet/internal/wallet-service/model"
)

type TransferRequest struct {
	FromOwnerID  string `json:"fromOwnerId"`
	ToOwnerID    string `json:"toOwnerId"`
	Amount       string `json:"amount"`
	Reason       string `json:"reason"`
	SecurityCode string `json:"securityCode,omitempty"`
}

type ReviewRequest struct {
	Notes string `json:"notes"`
}

type TransferResponse struct {
	ID          string    `json:"id"`
	FromOwnerID string    `json:"fromOwnerId"`
	ToOwnerID   string    `json:"toOwnerId"`
	Amount      string    `json:"amount"`
	Reason      string    `json:"reason,omitempty"`
	FraudScore  int       `json:"fraudScore"`
	Status      string    `json:"status"`
	AdminNotes  string    `json:"adminNotes,omitempty"`
	Admin       bool      `json:"admin,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func NewTransferResponse(t model.TransferRequest) TransferResponse {
	return TransferResponse{
		ID:          t.ID,
		FromOwnerID: t.FromOwnerID,
		ToOwnerID:   t.ToOwnerID,
		Amount:      model.FormatAmount(t.AmountCents),
		Reason:      t.Reason,
		FraudScore:  t.FraudScore,
		Status:      string(t.Status),
		AdminNotes:  t.AdminNotes,
		Admin:       t.Admin,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func NewTransferList(ts []model.TransferRequest) []TransferResponse {
	out := make([]TransferResponse, 0, len(ts))
	for _, t := range ts {
		out = append(out, NewTransferResponse(t))
	}
	return out
}

type SecurityLogResponse struct {
	ID                string    `json:"id"`
	OwnerID           string    `json:"ownerId"`
	Action            string    `json:"action"`
	Details           string    `json:"details"`
	RiskLevel         string    `json:"riskLevel"`
	IPAddress         string    `json:"ipAddress,omitempty"`
	UserAgent         string    `json:"userAgent,omitempty"`
	Location          string    `json:"location,omitempty"`
	DeviceFingerprint string    `json:"deviceFingerprint,omitempty"`
	Timestamp         time.Time `json:"timestamp"`
}

func NewSecurityLogResponse(e model.SecurityLogEntry) SecurityLogResponse {
	return SecurityLogResponse{
		ID:                e.ID,
		OwnerID:           e.OwnerID,
		Action:            e.Action,
		Details:           e.Details,
		RiskLevel:         string(e.RiskLevel),
		IPAddress:         e.IPAddress,
		UserAgent:         e.UserAgent,
		Location:          e.Location,
		DeviceFingerprint: e.DeviceFingerprint,
		Timestamp:         e.Timestamp,
	}
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	// TransferID vem preenchido quando a transferência foi criada e segue pendente
	TransferID string `json:"transferId,omitempty"`
}
