package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/radieske/bingo-wallet/internal/wallet-service/dto"
	"github.com/radieske/bingo-wallet/internal/wallet-service/model"
	"github.com/radieske/bingo-wallet/internal/wallet-service/store"
)

func ownerParam(r *http.Request) (string, error) {
	id := strings.TrimSpace(chi.URLParam(r, "ownerId"))
	if id == "" {
		return "", errBadRequest("ownerId is required")
	}
	return id, nil
}

// GET /v1/wallets/{ownerId}
func (s *Server) getWallet(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	wal, err := s.svc.Wallets.GetOrCreate(r.Context(), owner)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewWalletResponse(wal, s.svc.Wallets.Today()))
}

// POST /v1/wallets/{ownerId}/lock
func (s *Server) lockWallet(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req dto.LockRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, errBadRequest("invalid json"))
		return
	}
	if strings.TrimSpace(req.Reason) == "" {
		s.writeError(w, r, errBadRequest("reason is required"))
		return
	}
	wal, err := s.svc.Wallets.Lock(r.Context(), owner, req.Reason)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewWalletResponse(wal, s.svc.Wallets.Today()))
}

// POST /v1/wallets/{ownerId}/unlock
func (s *Server) unlockWallet(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	wal, err := s.svc.Wallets.Unlock(r.Context(), owner)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewWalletResponse(wal, s.svc.Wallets.Today()))
}

// POST /v1/wallets/{ownerId}/device
func (s *Server) registerDevice(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req dto.DeviceRequest
	if err := decode(r, &req); err != nil || strings.TrimSpace(req.Fingerprint) == "" {
		s.writeError(w, r, errBadRequest("fingerprint is required"))
		return
	}
	wal, err := s.svc.Wallets.RegisterDevice(r.Context(), owner, req.Fingerprint)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewWalletResponse(wal, s.svc.Wallets.Today()))
}

// GET /v1/wallets/{ownerId}/transactions?limit&before
func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	limit, before, err := page(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	txs, err := s.svc.Ledger.Query(r.Context(), owner, limit, before)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := dto.Page[dto.TransactionResponse]{Items: make([]dto.TransactionResponse, 0, len(txs))}
	for _, t := range txs {
		out.Items = append(out.Items, dto.NewTransactionResponse(t))
	}
	if len(txs) == limit {
		last := txs[len(txs)-1]
		out.NextBefore = store.EncodeCursor(last.CreatedAt, last.ID)
	}
	writeJSON(w, http.StatusOK, out)
}

// GET /v1/wallets/{ownerId}/security-logs?limit&before
func (s *Server) listSecurityLogs(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.securityLogs(w, r, owner)
}

// GET /v1/admin/security-logs (todas as carteiras)
func (s *Server) listAllSecurityLogs(w http.ResponseWriter, r *http.Request) {
	s.securityLogs(w, r, r.URL.Query().Get("ownerId"))
}

func (s *Server) securityLogs(w http.ResponseWriter, r *http.Request, owner string) {
	limit, before, err := page(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	logs, err := s.svc.Audit.Query(r.Context(), owner, limit, before)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := dto.Page[dto.SecurityLogResponse]{Items: make([]dto.SecurityLogResponse, 0, len(logs))}
	for _, e := range logs {
		out.Items = append(out.Items, dto.NewSecurityLogResponse(e))
	}
	if len(logs) == limit {
		last := logs[len(logs)-1]
		out.NextBefore = store.EncodeCursor(last.Timestamp, last.ID)
	}
	writeJSON(w, http.StatusOK, out)
}

// GET /v1/wallets/{ownerId}/transfers?direction=sent|received
func (s *Server) listWalletTransfers(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	limit, _, err := page(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var list []model.TransferRequest
	switch dir := r.URL.Query().Get("direction"); dir {
	case "", "sent":
		list, err = s.svc.Transfers.ListSent(r.Context(), owner, limit)
	case "received":
		list, err = s.svc.Transfers.ListReceived(r.Context(), owner, limit)
	default:
		err = errBadRequest("direction must be sent or received")
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewTransferList(list))
}
