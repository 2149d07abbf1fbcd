// Package store define a fronteira transacional da carteira.
// Toda mutação de saldo, ledger, transferência e auditoria acontece dentro de um Tx,
// o que permite trocar o motor (Postgres, memória) sem mexer nos fluxos.
package store

import (
	"context"
	"time"

	"github.com/radieske/bingo-wallet/internal/wallet-service/model"
)

// Cursor pagina consultas ordenadas do mais novo para o mais antigo
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

// Tx é uma unidade atômica. Leituras de carteira/transferência bloqueiam a linha até o commit.
type Tx interface {
	// GetWallet lê e bloqueia a carteira; model.ErrWalletNotFound se não existir
	GetWallet(ctx context.Context, ownerID string) (model.Wallet, error)
	// InsertWallet cria a carteira; model.ErrDuplicate se já existir
	InsertWallet(ctx context.Context, w model.Wallet) error
	UpdateWallet(ctx context.Context, w model.Wallet) error

	// InsertTransaction grava uma entrada do ledger; model.ErrDuplicate se ExternalRef já usado
	InsertTransaction(ctx context.Context, t model.Transaction) error
	FindTransactionByRef(ctx context.Context, ownerID string, kind model.TransactionKind, ref string) (model.Transaction, bool, error)

	// GetTransfer lê e bloqueia a transferência; model.ErrTransferNotFound se não existir
	GetTransfer(ctx context.Context, id string) (model.TransferRequest, error)
	InsertTransfer(ctx context.Context, t model.TransferRequest) error
	UpdateTransfer(ctx context.Context, t model.TransferRequest) error

	InsertSecurityLog(ctx context.Context, e model.SecurityLogEntry) error

	// InsertInvitation registra o par convidante/convidado; model.ErrDuplicate se repetido
	InsertInvitation(ctx context.Context, inviterID, inviteeID string, at time.Time) error
	GetInvitationCounter(ctx context.Context, inviterID string) (model.InvitationCounter, error)
	SaveInvitationCounter(ctx context.Context, c model.InvitationCounter) error

	// AfterCommit agenda efeitos colaterais (eventos, broadcast) para depois do commit
	AfterCommit(fn func())
}

// TxFunc é o corpo de uma transação. Retornar erro desfaz tudo.
type TxFunc func(ctx context.Context, tx Tx) error

// Store é o motor transacional + consultas somente leitura
type Store interface {
	RunInTx(ctx context.Context, fn TxFunc) error

	ListTransactions(ctx context.Context, ownerID string, limit int, before *Cursor) ([]model.Transaction, error)
	ListTransactionsByTransfer(ctx context.Context, transferID string) ([]model.Transaction, error)
	ListSecurityLogs(ctx context.Context, ownerID string, limit int, before *Cursor) ([]model.SecurityLogEntry, error)
	ListTransfers(ctx context.Context, f TransferFilter) ([]model.TransferRequest, error)
	ReadWallet(ctx context.Context, ownerID string) (model.Wallet, error)

	Ping(ctx context.Context) error
}

// TransferFilter seleciona transferências para históricos e fila de revisão
type TransferFilter struct {
	FromOwnerID string
	ToOwnerID   string
	Status      model.TransferStatus
	Limit       int
}

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// ClampLimit aplica o tamanho padrão e o teto de paginação
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}
