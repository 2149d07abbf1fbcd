package audit

import "context"

// ClientInfo são sinais opacos do cliente usados em auditoria e fraude
type ClientInfo struct {
	IPAddress         string
	UserAgent         string
	Location          string
	DeviceFingerprint string
}

type clientKey struct{}

// WithClient anexa os sinais do cliente ao contexto (preenchido pelo middleware HTTP)
func WithClient(ctx context.Context, ci ClientInfo) context.Context {
	return context.WithValue(ctx, clientKey{}, ci)
}

// ClientFrom recupera os sinais do cliente; vazio para chamadas internas (workers, admin CLI)
func ClientFrom(ctx context.Context) ClientInfo {
	ci, _ := ctx.Value(clientKey{}).(ClientInfo)
	return ci
}
