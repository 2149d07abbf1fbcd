package model

import "time"

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Ações registradas no log de segurança
const (
	ActionWalletCreated          = "WALLET_CREATED"
	ActionWalletLocked           = "WALLET_LOCKED"
	ActionWalletUnlocked         = "WALLET_UNLOCKED"
	ActionWalletStatusChanged    = "WALLET_STATUS_CHANGED"
	ActionLimitsChanged          = "WALLET_LIMITS_CHANGED"
	ActionDeviceRegistered       = "DEVICE_REGISTERED"
	ActionTransferRequested      = "TRANSFER_REQUESTED"
	ActionTransferDenied         = "TRANSFER_DENIED"
	ActionTransferApproved       = "TRANSFER_APPROVED"
	ActionTransferApprovalFailed = "TRANSFER_APPROVAL_FAILED"
	ActionTransferRejected       = "TRANSFER_REJECTED"
	ActionLimitBreach            = "LIMIT_BREACH"
	ActionAdminTransfer          = "ADMIN_TRANSFER"
	ActionAdminBonus             = "ADMIN_BONUS"
	ActionDeposit                = "DEPOSIT_RECORDED"
	ActionWithdrawal             = "WITHDRAWAL_RECORDED"
	ActionInvitationBonus        = "INVITATION_BONUS"
)

// SecurityLogEntry é um fato de auditoria imutável
type SecurityLogEntry struct {
	ID                string
	OwnerID           string
	Action            string
	Details           string
	RiskLevel         RiskLevel
	IPAddress         string
	UserAgent         string
	Location          string
	DeviceFingerprint string
	Timestamp         time.Time
}

// InvitationCounter guarda explicitamente quantos convites válidos um usuário fez
type InvitationCounter struct {
	InviterID      string
	Count          int
	RewardsGranted int
	UpdatedAt      time.Time
}
