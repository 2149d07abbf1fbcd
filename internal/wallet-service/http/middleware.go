package httpapi

import (
	"crypto/subtle"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/radieske/bingo-wallet/internal/wallet-service/audit"
	"github.com/radieske/bingo-wallet/internal/wallet-service/dto"
)

const (
	headerAdminToken  = "X-Admin-Token"
	headerFingerprint = "X-Device-Fingerprint"
	headerLocation    = "X-Client-Location"
	headerUserID      = "X-User-ID"
)

// clientSignals copia IP, user agent, localização e fingerprint para o contexto (auditoria e fraude)
func clientSignals(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}
		ctx := audit.WithClient(r.Context(), audit.ClientInfo{
			IPAddress:         ip,
			UserAgent:         r.UserAgent(),
			Location:          r.Header.Get(headerLocation),
			DeviceFingerprint: r.Header.Get(headerFingerprint),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAdmin compara o token estático em tempo constante
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get(headerAdminToken)
		if s.opts.AdminToken == "" || subtle.ConstantTimeCompare([]byte(got), []byte(s.opts.AdminToken)) != 1 {
			writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "admin token required", Code: "UNAUTHORIZED"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// observe registra status por rota após o handler
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		if s.opts.OnRequest != nil {
			s.opts.OnRequest(route, ww.Status())
		}
		if ww.Status() >= http.StatusInternalServerError {
			s.log.Warn("request completed with server error",
				zap.String("route", route),
				zap.Int("status", ww.Status()),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		}
	})
}

func itoa(n int) string { return strconv.Itoa(n) }
