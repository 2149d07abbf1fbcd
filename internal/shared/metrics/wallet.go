package metrics

import "github.com/prometheus/client_golang/prometheus"

// Wallet agrupa os contadores do wallet-service; são alimentados por callbacks
// (OnOutcome, OnRetry, OnRequest, OnPublish) para os pacotes de domínio não dependerem do Prometheus
type Wallet struct {
	TransferOutcomes *prometheus.CounterVec
	StoreRetries     prometheus.Counter
	HTTPRequests     *prometheus.CounterVec
	KafkaPublish     *prometheus.CounterVec
}

func NewWallet(reg prometheus.Registerer) *Wallet {
	m := &Wallet{
		TransferOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_transfer_outcomes_total", Help: "transferências por resultado",
		}, []string{"outcome"}),
		StoreRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wallet_store_retries_total", Help: "transações repetidas por conflito de concorrência",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_http_requests_total", Help: "requisições por rota e status",
		}, []string{"route", "status"}),
		KafkaPublish: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_kafka_publish_total", Help: "publicações por tópico e resultado",
		}, []string{"topic", "result"}),
	}
	reg.MustRegister(m.TransferOutcomes, m.StoreRetries, m.HTTPRequests, m.KafkaPublish)
	return m
}

func (m *Wallet) Outcome(o string) { m.TransferOutcomes.WithLabelValues(o).Inc() }

func (m *Wallet) Retry(uint, error) { m.StoreRetries.Inc() }

func (m *Wallet) Request(route string, status int) {
	m.HTTPRequests.WithLabelValues(route, statusClass(status)).Inc()
}

func (m *Wallet) Publish(topic string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.KafkaPublish.WithLabelValues(topic, result).Inc()
}

// PaymentWorker são os contadores do consumidor de pagamentos
type PaymentWorker struct {
	Consumed prometheus.Counter
	Applied  *prometheus.CounterVec
	Errors   *prometheus.CounterVec
}

func NewPaymentWorker(reg prometheus.Registerer) *PaymentWorker {
	m := &PaymentWorker{
		Consumed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "payment_worker_messages_consumed_total", Help: "mensagens consumidas",
		}),
		Applied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payment_worker_applied_total", Help: "movimentos aplicados por tipo e resultado",
		}, []string{"kind", "result"}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payment_worker_errors_total", Help: "erros por estágio",
		}, []string{"stage"}),
	}
	reg.MustRegister(m.Consumed, m.Applied, m.Errors)
	return m
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
