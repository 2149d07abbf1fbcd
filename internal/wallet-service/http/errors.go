package httpapi

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/radieske/bingo-wallet/internal/wallet-service/dto"
	"github.com/radieske/bingo-wallet/internal/wallet-service/model"
)

type badRequest struct{ msg string }

func (e badRequest) Error() string { return e.msg }

func errBadRequest(msg string) error { return badRequest{msg: msg} }

// statusFor traduz erros de domínio em status HTTP e código estável para clientes
func statusFor(err error) (int, string) {
	var br badRequest
	switch {
	case errors.As(err, &br):
		return http.StatusBadRequest, "BAD_REQUEST"
	case errors.Is(err, model.ErrInvalidAmount):
		return http.StatusBadRequest, "INVALID_AMOUNT"
	case errors.Is(err, model.ErrInvalidRecipient):
		return http.StatusBadRequest, "INVALID_RECIPIENT"
	case errors.Is(err, model.ErrWalletNotFound):
		return http.StatusNotFound, "WALLET_NOT_FOUND"
	case errors.Is(err, model.ErrTransferNotFound):
		return http.StatusNotFound, "TRANSFER_NOT_FOUND"
	case errors.Is(err, model.ErrAlreadyProcessed):
		return http.StatusConflict, "ALREADY_PROCESSED"
	case errors.Is(err, model.ErrDuplicate):
		return http.StatusConflict, "DUPLICATE"
	case errors.Is(err, model.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity, "INSUFFICIENT_BALANCE"
	case errors.Is(err, model.ErrDailyLimitExceeded):
		return http.StatusUnprocessableEntity, "DAILY_LIMIT_EXCEEDED"
	case errors.Is(err, model.ErrWalletInactive):
		return http.StatusUnprocessableEntity, "WALLET_INACTIVE"
	case errors.Is(err, model.ErrWalletLocked):
		return http.StatusLocked, "WALLET_LOCKED"
	case errors.Is(err, model.ErrConcurrencyConflict):
		return http.StatusServiceUnavailable, "CONCURRENCY_CONFLICT"
	case errors.Is(err, model.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "STORE_UNAVAILABLE"
	}
	return http.StatusInternalServerError, "INTERNAL"
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := s.errorBody(w, r, err)
	writeJSON(w, status, body)
}

func (s *Server) errorBody(w http.ResponseWriter, r *http.Request, err error) (int, dto.ErrorResponse) {
	status, code := statusFor(err)
	if errors.Is(err, model.ErrConcurrencyConflict) {
		w.Header().Set("Retry-After", "1")
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		msg = "internal error"
	}
	return status, dto.ErrorResponse{Error: msg, Code: code}
}
