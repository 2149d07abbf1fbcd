package ws

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/bingo-wallet/pkg/contracts/events"
)

// StartRedisSubscriber escuta o canal de atualizações de carteira e repassa ao Hub.
// Cada réplica do wallet-service publica no mesmo canal, então todos os /ws recebem tudo.
func StartRedisSubscriber(ctx context.Context, r *redis.Client, channel string, hub *Hub, log *zap.Logger) {
	sub := r.Subscribe(ctx, channel)
	go func() {
		defer sub.Close()
		consume(ctx, sub.Channel(), hub, log)
	}()
}

func consume(ctx context.Context, ch <-chan *redis.Message, hub *Hub, log *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if msg == nil {
				continue
			}
			var upd events.WalletUpdate
			if err := json.Unmarshal([]byte(msg.Payload), &upd); err != nil {
				log.Warn("ws subscriber unmarshal error", zap.Error(err))
				continue
			}
			hub.Broadcast(upd)
		}
	}
}
