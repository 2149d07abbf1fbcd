package fraud

import (
	"context"
	"fmt"
	"time"
)

// Counter incrementa uma chave com expiração (janela fixa); implementado por cache.Cache
type Counter interface {
	IncrWithExpire(ctx context.Context, key string, window time.Duration) (int64, error)
}

// VelocityTracker conta transferências por remetente numa janela fixa
type VelocityTracker struct {
	counter Counter
	window  time.Duration
}

func NewVelocityTracker(c Counter, window time.Duration) *VelocityTracker {
	return &VelocityTracker{counter: c, window: window}
}

// Observe registra a tentativa e retorna o total na janela corrente
func (v *VelocityTracker) Observe(ctx context.Context, ownerID string) (int, error) {
	n, err := v.counter.IncrWithExpire(ctx, "wallet:velocity:"+ownerID, v.window)
	if err != nil {
		return 0, fmt.Errorf("velocity counter: %w", err)
	}
	return int(n), nil
}
