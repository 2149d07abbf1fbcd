package httpapi

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/bingo-wallet/internal/wallet-service/dto"
)

// RateLimiter é a janela fixa com bloqueio temporário (implementado por cache.Cache sobre Redis)
type RateLimiter interface {
	IncrWithExpire(ctx context.Context, key string, window time.Duration) (int64, error)
	Block(ctx context.Context, key string, d time.Duration) error
	BlockedFor(ctx context.Context, key string) (time.Duration, error)
}

// rateLimit limita criações de transferência por usuário (ou IP, sem X-User-ID).
// Falha do Redis não bloqueia tráfego.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.opts.Limiter == nil || s.opts.TransfersPerMin <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		ctx := r.Context()
		key := "wallet:ratelimit:transfers:" + clientKey(r)

		if ttl, err := s.opts.Limiter.BlockedFor(ctx, key); err == nil && ttl > 0 {
			tooMany(w, ttl)
			return
		}

		count, err := s.opts.Limiter.IncrWithExpire(ctx, key, time.Minute)
		if err != nil {
			s.log.Warn("rate limiter unavailable", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		if count > int64(s.opts.TransfersPerMin) {
			block := s.opts.BlockWindow
			if block <= 0 {
				block = time.Minute
			}
			_ = s.opts.Limiter.Block(ctx, key, block)
			tooMany(w, block)
			return
		}

		w.Header().Set("X-RateLimit-Remaining", itoa(s.opts.TransfersPerMin-int(count)))
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	if uid := r.Header.Get(headerUserID); uid != "" {
		return "uid:" + uid
	}
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return "ip:" + ip
}

func tooMany(w http.ResponseWriter, wait time.Duration) {
	w.Header().Set("Retry-After", strconv.Itoa(int(wait.Seconds())))
	writeJSON(w, http.StatusTooManyRequests, dto.ErrorResponse{Error: "too many transfer requests", Code: "RATE_LIMITED"})
}
