package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/radieske/bingo-wallet/internal/wallet-service/dto"
	"github.com/radieske/bingo-wallet/internal/wallet-service/model"
)

// POST /v1/payments/deposit
func (s *Server) deposit(w http.ResponseWriter, r *http.Request) {
	s.payment(w, r, s.svc.Funds.Deposit)
}

// POST /v1/payments/withdrawal
func (s *Server) withdraw(w http.ResponseWriter, r *http.Request) {
	s.payment(w, r, s.svc.Funds.Withdraw)
}

type paymentFunc func(ctx context.Context, ownerID string, cents int64, ref, method string) (model.Transaction, error)

func (s *Server) payment(w http.ResponseWriter, r *http.Request, fn paymentFunc) {
	var req dto.PaymentRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, errBadRequest("invalid json"))
		return
	}
	if req.UserID == "" || req.ExternalRef == "" {
		s.writeError(w, r, errBadRequest("userId and externalRef are required"))
		return
	}
	amount, err := model.ParseAmount(req.Amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := fn(r.Context(), req.UserID, amount, req.ExternalRef, req.Method)
	s.movementResult(w, r, t, err)
}

type gameFunc func(ctx context.Context, ownerID, gameID string, cents int64) (model.Transaction, error)

// POST /v1/games/bet|win|refund
func (s *Server) gameMovement(fn gameFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dto.GameRequest
		if err := decode(r, &req); err != nil {
			s.writeError(w, r, errBadRequest("invalid json"))
			return
		}
		if req.UserID == "" || req.GameID == "" {
			s.writeError(w, r, errBadRequest("userId and gameId are required"))
			return
		}
		amount, err := model.ParseAmount(req.Amount)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		t, err := fn(r.Context(), req.UserID, req.GameID, amount)
		s.movementResult(w, r, t, err)
	}
}

// movementResult trata reentrega do mesmo externalRef como sucesso, devolvendo o lançamento original
func (s *Server) movementResult(w http.ResponseWriter, r *http.Request, t model.Transaction, err error) {
	switch {
	case errors.Is(err, model.ErrDuplicate) && t.ID != "":
		writeJSON(w, http.StatusOK, dto.NewTransactionResponse(t))
	case err != nil:
		s.writeError(w, r, err)
	default:
		writeJSON(w, http.StatusCreated, dto.NewTransactionResponse(t))
	}
}

// POST /v1/invitations
func (s *Server) processInvitation(w http.ResponseWriter, r *http.Request) {
	var req dto.InvitationRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, errBadRequest("invalid json"))
		return
	}
	res, err := s.svc.Bonus.ProcessInvitation(r.Context(), req.InviterID, req.InviteeID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := dto.InvitationResponse{
		InviterID:      res.Counter.InviterID,
		Count:          res.Counter.Count,
		RewardsGranted: res.Counter.RewardsGranted,
		BonusGranted:   res.Granted,
	}
	if res.Granted {
		b := dto.NewTransactionResponse(res.Bonus)
		out.Bonus = &b
	}
	writeJSON(w, http.StatusOK, out)
}
