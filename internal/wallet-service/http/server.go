package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/radieske/bingo-wallet/internal/wallet-service/admin"
	"github.com/radieske/bingo-wallet/internal/wallet-service/audit"
	"github.com/radieske/bingo-wallet/internal/wallet-service/bonus"
	"github.com/radieske/bingo-wallet/internal/wallet-service/funds"
	"github.com/radieske/bingo-wallet/internal/wallet-service/ledger"
	"github.com/radieske/bingo-wallet/internal/wallet-service/store"
	"github.com/radieske/bingo-wallet/internal/wallet-service/transfer"
	"github.com/radieske/bingo-wallet/internal/wallet-service/wallet"
)

// Services agrupa os componentes de domínio expostos pela API
type Services struct {
	Wallets   *wallet.Store
	Ledger    *ledger.Ledger
	Audit     *audit.Log
	Transfers *transfer.Workflow
	Admin     *admin.Override
	Funds     *funds.Service
	Bonus     *bonus.Service
}

// Options configura as bordas HTTP (autenticação admin, rate limit, websocket)
type Options struct {
	AdminToken string

	Limiter         RateLimiter // nil desliga o rate limit de transferências
	TransfersPerMin int
	BlockWindow     time.Duration

	WS http.Handler // nil não registra /ws

	OnRequest func(route string, status int) // métricas
}

// Server expõe a API REST da carteira
type Server struct {
	log  *zap.Logger
	svc  Services
	opts Options
}

func NewServer(log *zap.Logger, svc Services, opts Options) *Server {
	return &Server{log: log, svc: svc, opts: opts}
}

// Router retorna o roteador chi com todas as rotas da carteira
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Admin-Token", "X-Device-Fingerprint", "X-Client-Location", "X-User-ID"},
		ExposedHeaders:   []string{"Retry-After", "X-RateLimit-Remaining"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(s.observe)
	r.Use(clientSignals)

	if s.opts.WS != nil {
		r.Get("/ws", s.opts.WS.ServeHTTP)
	}

	r.Route("/v1", func(v chi.Router) {
		v.Route("/wallets/{ownerId}", func(wr chi.Router) {
			wr.Get("/", s.getWallet)
			wr.Post("/lock", s.lockWallet)
			wr.Post("/unlock", s.unlockWallet)
			wr.Post("/device", s.registerDevice)
			wr.Get("/transactions", s.listTransactions)
			wr.Get("/security-logs", s.listSecurityLogs)
			wr.Get("/transfers", s.listWalletTransfers)
		})

		v.Route("/transfers", func(tr chi.Router) {
			tr.With(s.rateLimit).Post("/", s.requestTransfer)
			tr.Get("/{id}", s.getTransfer)
			tr.With(s.requireAdmin).Post("/{id}/approve", s.approveTransfer)
			tr.With(s.requireAdmin).Post("/{id}/reject", s.rejectTransfer)
		})

		v.Route("/admin", func(ar chi.Router) {
			ar.Use(s.requireAdmin)
			ar.Get("/transfers/pending", s.listPending)
			ar.Post("/transfers", s.adminTransfer)
			ar.Post("/bonus", s.adminBonus)
			ar.Put("/wallets/{ownerId}/limits", s.setLimits)
			ar.Put("/wallets/{ownerId}/status", s.setStatus)
			ar.Get("/security-logs", s.listAllSecurityLogs)
		})

		// callbacks de sistemas já autenticados na borda (gateway, servidor de jogos)
		v.Post("/payments/deposit", s.deposit)
		v.Post("/payments/withdrawal", s.withdraw)
		v.Post("/games/bet", s.gameMovement(s.svc.Funds.Bet))
		v.Post("/games/win", s.gameMovement(s.svc.Funds.Win))
		v.Post("/games/refund", s.gameMovement(s.svc.Funds.Refund))
		v.Post("/invitations", s.processInvitation)
	})

	return r
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// page lê limit e before da query string
func page(r *http.Request) (int, *store.Cursor, error) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return 0, nil, errBadRequest("limit must be a non-negative integer")
		}
		limit = n
	}
	before, err := store.ParseCursor(r.URL.Query().Get("before"))
	if err != nil {
		return 0, nil, errBadRequest(err.Error())
	}
	return store.ClampLimit(limit), before, nil
}
