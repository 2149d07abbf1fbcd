package events

import "time"

// Mensagem enviada para a DLQ quando o worker desiste de processar o evento original.
type DeadLetter struct {
	Topic     string    `json:"topic"`
	Partition int       `json:"partition"`
	Offset    int64     `json:"offset"`
	Key       string    `json:"key,omitempty"`
	Payload   string    `json:"payload"`
	Stage     string    `json:"stage"` // "decode" | "validate" | "apply"
	Error     string    `json:"error"`
	Attempts  uint      `json:"attempts"`
	Ts        time.Time `json:"ts"`
}
