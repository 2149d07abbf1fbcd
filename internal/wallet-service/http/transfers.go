package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/radieske/bingo-wallet/internal/wallet-service/dto"
	"github.com/radieske/bingo-wallet/internal/wallet-service/model"
	"github.com/radieske/bingo-wallet/internal/wallet-service/transfer"
)

// POST /v1/transfers
// 200 quando executada na hora, 202 quando ficou pendente de revisão
func (s *Server) requestTransfer(w http.ResponseWriter, r *http.Request) {
	var req dto.TransferRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, errBadRequest("invalid json"))
		return
	}
	amount, err := model.ParseAmount(req.Amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	t, err := s.svc.Transfers.Request(r.Context(), transfer.RequestInput{
		FromOwnerID:  req.FromOwnerID,
		ToOwnerID:    req.ToOwnerID,
		AmountCents:  amount,
		Reason:       req.Reason,
		SecurityCode: req.SecurityCode,
	})
	if err != nil {
		// t.ID só vem preenchido quando a transferência foi persistida e a aprovação automática falhou
		status, body := s.errorBody(w, r, err)
		body.TransferID = t.ID
		writeJSON(w, status, body)
		return
	}

	status := http.StatusAccepted
	if t.Status == model.TransferCompleted {
		status = http.StatusOK
	}
	writeJSON(w, status, dto.NewTransferResponse(t))
}

// GET /v1/transfers/{id}
func (s *Server) getTransfer(w http.ResponseWriter, r *http.Request) {
	t, err := s.svc.Transfers.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewTransferResponse(t))
}

// POST /v1/transfers/{id}/approve (admin)
func (s *Server) approveTransfer(w http.ResponseWriter, r *http.Request) {
	s.review(w, r, s.svc.Transfers.Approve)
}

// POST /v1/transfers/{id}/reject (admin)
func (s *Server) rejectTransfer(w http.ResponseWriter, r *http.Request) {
	s.review(w, r, s.svc.Transfers.Reject)
}

type reviewFunc func(ctx context.Context, id, notes string) (model.TransferRequest, error)

func (s *Server) review(w http.ResponseWriter, r *http.Request, fn reviewFunc) {
	var req dto.ReviewRequest
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			s.writeError(w, r, errBadRequest("invalid json"))
			return
		}
	}
	t, err := fn(r.Context(), chi.URLParam(r, "id"), req.Notes)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewTransferResponse(t))
}

// GET /v1/admin/transfers/pending
func (s *Server) listPending(w http.ResponseWriter, r *http.Request) {
	limit, _, err := page(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	list, err := s.svc.Transfers.ListPending(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewTransferList(list))
}

// POST /v1/admin/transfers
func (s *Server) adminTransfer(w http.ResponseWriter, r *http.Request) {
	var req dto.TransferRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, errBadRequest("invalid json"))
		return
	}
	amount, err := model.ParseAmount(req.Amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := s.svc.Admin.Transfer(r.Context(), req.FromOwnerID, req.ToOwnerID, amount, req.Reason)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewTransferResponse(t))
}
