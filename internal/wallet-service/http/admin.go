package httpapi

import (
	"net/http"

	"github.com/radieske/bingo-wallet/internal/wallet-service/dto"
	"github.com/radieske/bingo-wallet/internal/wallet-service/model"
)

// POST /v1/admin/bonus
func (s *Server) adminBonus(w http.ResponseWriter, r *http.Request) {
	var req dto.BonusRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, errBadRequest("invalid json"))
		return
	}
	amount, err := model.ParseAmount(req.Amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := s.svc.Admin.AddBonus(r.Context(), req.OwnerID, amount, req.Reason)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewTransactionResponse(t))
}

// PUT /v1/admin/wallets/{ownerId}/limits
func (s *Server) setLimits(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req dto.LimitsRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, errBadRequest("invalid json"))
		return
	}
	daily, err := model.ParseAmount(req.DailyTransferLimit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	perTransfer, err := model.ParseAmount(req.TransferLimit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	wal, err := s.svc.Wallets.SetLimits(r.Context(), owner, daily, perTransfer)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewWalletResponse(wal, s.svc.Wallets.Today()))
}

// PUT /v1/admin/wallets/{ownerId}/status
func (s *Server) setStatus(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req dto.StatusRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, errBadRequest("invalid json"))
		return
	}
	status := model.WalletStatus(req.Status)
	switch status {
	case model.WalletActive, model.WalletSuspended, model.WalletClosed:
	default:
		s.writeError(w, r, errBadRequest("status must be active, suspended or closed"))
		return
	}
	wal, err := s.svc.Wallets.SetStatus(r.Context(), owner, status, req.Reason)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewWalletResponse(wal, s.svc.Wallets.Today()))
}
