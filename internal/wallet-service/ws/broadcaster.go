package ws

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/bingo-wallet/internal/wallet-service/model"
	"github.com/radieske/bingo-wallet/pkg/contracts/events"
)

// Publisher publica JSON num canal pub/sub (cache.Cache)
type Publisher interface {
	PublishJSON(ctx context.Context, channel string, v any) error
}

// Broadcaster publica o estado da carteira após cada commit
type Broadcaster struct {
	pub     Publisher
	channel string
	log     *zap.Logger
}

func NewBroadcaster(pub Publisher, channel string, log *zap.Logger) *Broadcaster {
	return &Broadcaster{pub: pub, channel: channel, log: log}
}

// WalletChanged não falha a operação: o commit já aconteceu
func (b *Broadcaster) WalletChanged(ctx context.Context, w model.Wallet) {
	upd := events.WalletUpdate{
		UserID:       w.OwnerID,
		BalanceCents: w.BalanceCents,
		Currency:     w.Currency,
		IsLocked:     w.IsLocked,
		Status:       string(w.Status),
		Ts:           w.UpdatedAt,
	}
	if upd.Ts.IsZero() {
		upd.Ts = time.Now()
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := b.pub.PublishJSON(ctx, b.channel, upd); err != nil {
		b.log.Warn("wallet broadcast failed", zap.String("owner_id", w.OwnerID), zap.Error(err))
	}
}

// Local entrega direto ao Hub do próprio processo (sem Redis, uma única réplica)
type Local struct{ hub *Hub }

func NewLocal(hub *Hub) *Local { return &Local{hub: hub} }

func (l *Local) WalletChanged(_ context.Context, w model.Wallet) {
	l.hub.Broadcast(events.WalletUpdate{
		UserID:       w.OwnerID,
		BalanceCents: w.BalanceCents,
		Currency:     w.Currency,
		IsLocked:     w.IsLocked,
		Status:       string(w.Status),
		Ts:           w.UpdatedAt,
	})
}
