package main

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/bingo-wallet/internal/shared/cache"
	"github.com/radieske/bingo-wallet/internal/shared/config"
	"github.com/radieske/bingo-wallet/internal/shared/kafka"
	"github.com/radieske/bingo-wallet/internal/shared/metrics"
	"github.com/radieske/bingo-wallet/internal/wallet-service/admin"
	"github.com/radieske/bingo-wallet/internal/wallet-service/audit"
	"github.com/radieske/bingo-wallet/internal/wallet-service/bonus"
	"github.com/radieske/bingo-wallet/internal/wallet-service/fraud"
	"github.com/radieske/bingo-wallet/internal/wallet-service/funds"
	httpapi "github.com/radieske/bingo-wallet/internal/wallet-service/http"
	"github.com/radieske/bingo-wallet/internal/wallet-service/ledger"
	"github.com/radieske/bingo-wallet/internal/wallet-service/model"
	"github.com/radieske/bingo-wallet/internal/wallet-service/producer"
	"github.com/radieske/bingo-wallet/internal/wallet-service/store"
	"github.com/radieske/bingo-wallet/internal/wallet-service/transfer"
	"github.com/radieske/bingo-wallet/internal/wallet-service/wallet"
	"github.com/radieske/bingo-wallet/internal/wallet-service/ws"
)

type app struct {
	router http.Handler
}

// build liga os componentes de domínio às bordas (HTTP, Redis, Kafka, métricas).
// redisClient nil e writers vazio desligam as integrações correspondentes.
func build(ctx context.Context, cfg config.Config, log *zap.Logger, st store.Store,
	redisClient *redis.Client, writers []*kafka.Writer, m *metrics.Wallet) app {

	p := cfg.Wallet

	var mirror audit.Mirror
	var publisher transfer.Publisher
	if len(writers) == 2 {
		prod := producer.New(writers[0], writers[1], cfg.TopicTransferEvents, cfg.TopicSecurityEvents, log)
		prod.OnPublish = m.Publish
		mirror, publisher = prod, prod
	}

	hub := ws.NewHub(func(*http.Request) bool { return true }, log)

	var notifier wallet.Notifier = ws.NewLocal(hub)
	var velocity transfer.VelocitySource
	var limiter httpapi.RateLimiter
	if redisClient != nil {
		c := cache.New(redisClient)
		notifier = ws.NewBroadcaster(c, cfg.RedisWalletChannel, log)
		velocity = fraud.NewVelocityTracker(c, p.VelocityWindow)
		limiter = c
		ws.StartRedisSubscriber(ctx, redisClient, cfg.RedisWalletChannel, hub, log)
	}

	now := time.Now
	auditLog := audit.New(st, log, mirror, now)
	l := ledger.New(st, now)

	retry := store.RetryPolicy{
		MaxAttempts:     p.RetryMaxAttempts,
		InitialInterval: p.RetryInitialInterval,
		MaxInterval:     p.RetryMaxInterval,
		OnRetry:         m.Retry,
	}
	wallets := wallet.New(st, auditLog, log, wallet.Options{
		Limits: model.Limits{
			Currency:           p.Currency,
			DailyLimitCents:    p.DefaultDailyLimitCents,
			TransferLimitCents: p.DefaultTransferCapCents,
		},
		Location: p.Location(),
		Now:      now,
		Retry:    retry,
		Notifier: notifier,
	})

	workflow := transfer.New(transfer.Deps{
		Store:     st,
		Wallets:   wallets,
		Ledger:    l,
		Audit:     auditLog,
		Scorer:    fraud.FromPolicy(p),
		Velocity:  velocity,
		Publisher: publisher,
		Log:       log,
		Now:       now,
		OnOutcome: m.Outcome,
	}, transfer.Policy{
		MaxTransferCents:    p.MaxTransferCents,
		AutoApproveMaxScore: p.AutoApproveMaxScore,
		HighRiskAboveScore:  p.HighRiskAboveScore,
	})

	srv := httpapi.NewServer(log, httpapi.Services{
		Wallets:   wallets,
		Ledger:    l,
		Audit:     auditLog,
		Transfers: workflow,
		Admin:     admin.New(st, wallets, l, auditLog, publisher, log, now),
		Funds:     funds.New(st, wallets, l, auditLog, log),
		Bonus: bonus.New(st, wallets, l, auditLog, bonus.Policy{
			Threshold:   p.InvitationThreshold,
			RewardCents: p.InvitationBonusCents,
		}, log, now),
	}, httpapi.Options{
		AdminToken:      cfg.AdminToken,
		Limiter:         limiter,
		TransfersPerMin: p.TransferRequestsPerMin,
		BlockWindow:     p.TransferRateBlockWindow,
		WS:              hub,
		OnRequest:       m.Request,
	})

	return app{router: srv.Router()}
}
