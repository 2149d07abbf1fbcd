package dto

import (
	"time"

	"github.com/radieske/bingo-wallet/internal/wallet-service/model"
)

type TransactionResponse struct {
	ID                string    `json:"id"`
	OwnerID           string    `json:"ownerId"`
	Type              string    `json:"type"`
	Amount            string    `json:"amount"`
	Currency          string    `json:"currency"`
	Status            string    `json:"status"`
	Description       string    `json:"description"`
	RelatedTransferID string    `json:"relatedTransferId,omitempty"`
	ExternalRef       string    `json:"externalRef,omitempty"`
	BalanceAfter      string    `json:"balanceAfter"`
	CreatedAt         time.Time `json:"createdAt"`
}

func NewTransactionResponse(t model.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:                t.ID,
		OwnerID:           t.OwnerID,
		Type:              string(t.Kind),
		Amount:            model.FormatAmount(t.AmountCents),
		Currency:          t.Currency,
		Status:            string(t.Status),
		Description:       t.Description,
		RelatedTransferID: t.RelatedTransferID,
		ExternalRef:       t.ExternalRef,
		BalanceAfter:      model.FormatAmount(t.BalanceAfterCents),
		CreatedAt:         t.CreatedAt,
	}
}

// Page é uma página de histórico; NextBefore alimenta o parâmetro before da próxima chamada
type Page[T any] struct {
	Items      []T    `json:"items"`
	NextBefore string `json:"nextBefore,omitempty"`
}

// PaymentRequest é o callback do gateway já verificado
type PaymentRequest struct {
	UserID      string `json:"userId"`
	Amount      string `json:"amount"`
	ExternalRef string `json:"externalRef"`
	Method      string `json:"method"`
}

// GameRequest é o callback do servidor de jogos
type GameRequest struct {
	UserID string `json:"userId"`
	GameID string `json:"gameId"`
	Amount string `json:"amount"`
}

type BonusRequest struct {
	OwnerID string `json:"ownerId"`
	Amount  string `json:"amount"`
	Reason  string `json:"reason"`
}

type InvitationRequest struct {
	InviterID string `json:"inviterId"`
	InviteeID string `json:"inviteeId"`
}

type InvitationResponse struct {
	InviterID      string               `json:"inviterId"`
	Count          int                  `json:"count"`
	RewardsGranted int                  `json:"rewardsGranted"`
	BonusGranted   bool                 `json:"bonusGranted"`
	Bonus          *TransactionResponse `json:"bonus,omitempty"`
}
