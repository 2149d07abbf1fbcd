package model

import "errors"

// Erros de validação são detectados antes de qualquer escrita
var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidRecipient    = errors.New("invalid recipient")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrWalletLocked        = errors.New("wallet is locked")
	ErrWalletInactive      = errors.New("wallet is not active")
	ErrDailyLimitExceeded  = errors.New("daily transfer limit exceeded")
)

// Erros de estado/persistência
var (
	ErrAlreadyProcessed    = errors.New("transfer already processed")
	ErrTransferNotFound    = errors.New("transfer not found")
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrDuplicate           = errors.New("duplicate record")
	ErrConcurrencyConflict = errors.New("concurrency conflict")
	ErrStoreUnavailable    = errors.New("store unavailable")
)

// IsValidation indica se o erro é uma rejeição de regra de negócio (nada foi alterado)
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidRecipient) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrWalletLocked) ||
		errors.Is(err, ErrWalletInactive) ||
		errors.Is(err, ErrDailyLimitExceeded)
}
