// Package producer publica no Kafka as mudanças de transferências e o espelho do log de segurança.
package producer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/bingo-wallet/internal/shared/kafka"
	"github.com/radieske/bingo-wallet/internal/wallet-service/model"
	"github.com/radieske/bingo-wallet/pkg/contracts/events"
)

const publishTimeout = 5 * time.Second

// Producer implementa transfer.Publisher e audit.Mirror.
// Roda depois do commit: falha de publicação é logada e contada, nunca desfaz a operação.
type Producer struct {
	transfers kafka.MessageWriter
	security  kafka.MessageWriter
	log       *zap.Logger

	OnPublish func(topic string, err error)

	transferTopic string
	securityTopic string
}

func New(transfers, security kafka.MessageWriter, transferTopic, securityTopic string, log *zap.Logger) *Producer {
	return &Producer{
		transfers:     transfers,
		security:      security,
		log:           log,
		transferTopic: transferTopic,
		securityTopic: securityTopic,
	}
}

// TransferChanged publica o estado atual da transferência, chaveado pelo id
func (p *Producer) TransferChanged(ctx context.Context, t model.TransferRequest) {
	evt := events.TransferEvent{
		TransferID:  t.ID,
		FromUserID:  t.FromOwnerID,
		ToUserID:    t.ToOwnerID,
		AmountCents: t.AmountCents,
		Status:      string(t.Status),
		FraudScore:  t.FraudScore,
		Admin:       t.Admin,
		Ts:          t.UpdatedAt,
	}
	p.publish(ctx, p.transfers, p.transferTopic, t.ID, evt)
}

// PublishSecurity espelha a entrada de auditoria, chaveada pelo dono para manter a ordem por carteira
func (p *Producer) PublishSecurity(ctx context.Context, e model.SecurityLogEntry) {
	evt := events.SecurityEvent{
		EntryID:   e.ID,
		UserID:    e.OwnerID,
		Action:    e.Action,
		Details:   e.Details,
		RiskLevel: string(e.RiskLevel),
		IPAddress: e.IPAddress,
		Ts:        e.Timestamp,
	}
	p.publish(ctx, p.security, p.securityTopic, e.OwnerID, evt)
}

func (p *Producer) publish(ctx context.Context, w kafka.MessageWriter, topic, key string, v any) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	err := kafka.WriteJSON(ctx, w, key, v)
	if err != nil {
		p.log.Error("kafka publish failed", zap.String("topic", topic), zap.String("key", key), zap.Error(err))
	}
	if p.OnPublish != nil {
		p.OnPublish(topic, err)
	}
}
