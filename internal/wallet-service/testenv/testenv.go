// Package testenv monta o serviço de carteira completo sobre o store em memória,
// com relógio controlável, para testes de pacotes e handlers.
package testenv

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/bingo-wallet/internal/wallet-service/admin"
	"github.com/radieske/bingo-wallet/internal/wallet-service/audit"
	"github.com/radieske/bingo-wallet/internal/wallet-service/bonus"
	"github.com/radieske/bingo-wallet/internal/wallet-service/fraud"
	"github.com/radieske/bingo-wallet/internal/wallet-service/funds"
	"github.com/radieske/bingo-wallet/internal/wallet-service/ledger"
	"github.com/radieske/bingo-wallet/internal/wallet-service/model"
	"github.com/radieske/bingo-wallet/internal/wallet-service/store"
	"github.com/radieske/bingo-wallet/internal/wallet-service/store/memory"
	"github.com/radieske/bingo-wallet/internal/wallet-service/transfer"
	"github.com/radieske/bingo-wallet/internal/wallet-service/wallet"
)

// Units converte unidades inteiras de moeda em centavos
func Units(u int64) int64 { return u * 100 }

type Clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// TransferEvents registra o que o workflow publicou
type TransferEvents struct {
	mu     sync.Mutex
	events []model.TransferRequest
}

func (p *TransferEvents) TransferChanged(_ context.Context, t model.TransferRequest) {
	p.mu.Lock()
	p.events = append(p.events, t)
	p.mu.Unlock()
}

func (p *TransferEvents) All() []model.TransferRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.TransferRequest(nil), p.events...)
}

type Env struct {
	Store     *memory.Store
	Clock     *Clock
	Audit     *audit.Log
	Ledger    *ledger.Ledger
	Wallets   *wallet.Store
	Transfers *transfer.Workflow
	Admin     *admin.Override
	Funds     *funds.Service
	Bonus     *bonus.Service
	Events    *TransferEvents
	Outcomes  []string
}

// Option ajusta dependências antes da montagem
type Option func(*transfer.Deps)

// WithScorer troca o scorer de fraude
func WithScorer(s fraud.Scorer) Option {
	return func(d *transfer.Deps) { d.Scorer = s }
}

// WithVelocity injeta a fonte de velocidade
func WithVelocity(v transfer.VelocitySource) Option {
	return func(d *transfer.Deps) { d.Velocity = v }
}

// New monta o ambiente com os defaults de produção:
// teto 10.000, limite diário 5.000, aprovação automática até score 30
func New(t testing.TB, opts ...Option) *Env {
	t.Helper()

	st := memory.New()
	clock := &Clock{t: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	log := zap.NewNop()
	auditLog := audit.New(st, log, nil, clock.Now)
	l := ledger.New(st, clock.Now)

	ws := wallet.New(st, auditLog, log, wallet.Options{
		Limits:   model.Limits{Currency: "ETB", DailyLimitCents: Units(5000), TransferLimitCents: Units(10000)},
		Location: time.UTC,
		Now:      clock.Now,
		Retry:    store.RetryPolicy{MaxAttempts: 5, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond},
	})

	env := &Env{Store: st, Clock: clock, Audit: auditLog, Ledger: l, Wallets: ws, Events: &TransferEvents{}}

	deps := transfer.Deps{
		Store:     st,
		Wallets:   ws,
		Ledger:    l,
		Audit:     auditLog,
		Scorer:    fraud.DefaultAmountScorer(),
		Publisher: env.Events,
		Log:       log,
		Now:       clock.Now,
	}
	for _, o := range opts {
		o(&deps)
	}
	var mu sync.Mutex
	deps.OnOutcome = func(o string) {
		mu.Lock()
		env.Outcomes = append(env.Outcomes, o)
		mu.Unlock()
	}

	env.Transfers = transfer.New(deps, transfer.Policy{
		MaxTransferCents:    Units(10000),
		AutoApproveMaxScore: 30,
		HighRiskAboveScore:  50,
	})
	env.Admin = admin.New(st, ws, l, auditLog, env.Events, log, clock.Now)
	env.Funds = funds.New(st, ws, l, auditLog, log)
	env.Bonus = bonus.New(st, ws, l, auditLog, bonus.Policy{Threshold: 2, RewardCents: Units(10)}, log, clock.Now)

	return env
}

// Fund credita saldo direto na carteira, sem passar pelo fluxo de transferência
func (e *Env) Fund(t testing.TB, owner string, cents int64) {
	t.Helper()
	_, err := e.Wallets.AtomicUpdate(context.Background(), owner, cents, wallet.Constraints{})
	require.NoError(t, err)
}

func (e *Env) Wallet(t testing.TB, owner string) model.Wallet {
	t.Helper()
	w, err := e.Store.ReadWallet(context.Background(), owner)
	require.NoError(t, err)
	return w
}

func (e *Env) Balance(t testing.TB, owner string) int64 {
	t.Helper()
	return e.Wallet(t, owner).BalanceCents
}

// Actions lista as ações de auditoria do dono, da mais antiga para a mais nova
func (e *Env) Actions(t testing.TB, owner string) []string {
	t.Helper()
	logs, err := e.Audit.Query(context.Background(), owner, store.MaxPageSize, nil)
	require.NoError(t, err)
	out := make([]string, 0, len(logs))
	for i := len(logs) - 1; i >= 0; i-- {
		out = append(out, logs[i].Action)
	}
	return out
}
