package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/bingo-wallet/internal/wallet-service/dto"
	httpapi "github.com/radieske/bingo-wallet/internal/wallet-service/http"
	"github.com/radieske/bingo-wallet/internal/wallet-service/model"
	"github.com/radieske/bingo-wallet/internal/wallet-service/testenv"
	"github.com/radieske/bingo-wallet/internal/wallet-service/transfer"
)

const adminToken = "secret-admin"

type fakeLimiter struct {
	mu      sync.Mutex
	counts  map[string]int64
	blocked map[string]time.Duration
	fail    bool
}

func newFakeLimiter() *fakeLimiter {
	return &fakeLimiter{counts: map[string]int64{}, blocked: map[string]time.Duration{}}
}

func (f *fakeLimiter) IncrWithExpire(_ context.Context, key string, _ time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return 0, errors.New("redis down")
	}
	f.counts[key]++
	return f.counts[key], nil
}

func (f *fakeLimiter) Block(_ context.Context, key string, d time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blocked[key] = d
	return nil
}

func (f *fakeLimiter) BlockedFor(_ context.Context, key string) (time.Duration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return 0, errors.New("redis down")
	}
	return f.blocked[key], nil
}

type harness struct {
	env    *testenv.Env
	router http.Handler
}

func newHarness(t *testing.T, limiter httpapi.RateLimiter, opts ...testenv.Option) *harness {
	t.Helper()
	env := testenv.New(t, opts...)
	srv := httpapi.NewServer(zap.NewNop(), httpapi.Services{
		Wallets:   env.Wallets,
		Ledger:    env.Ledger,
		Audit:     env.Audit,
		Transfers: env.Transfers,
		Admin:     env.Admin,
		Funds:     env.Funds,
		Bonus:     env.Bonus,
	}, httpapi.Options{
		AdminToken:      adminToken,
		Limiter:         limiter,
		TransfersPerMin: 2,
		BlockWindow:     time.Minute,
	})
	return &harness{env: env, router: srv.Router()}
}

func (h *harness) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func admin() map[string]string { return map[string]string{"X-Admin-Token": adminToken} }

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestGetWallet_CreatesLazilyWithDefaults(t *testing.T) {
	h := newHarness(t, nil)

	rec := h.do(t, http.MethodGet, "/v1/wallets/alice", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	w := decodeBody[dto.WalletResponse](t, rec)
	assert.Equal(t, "alice", w.OwnerID)
	assert.Equal(t, "0.00", w.Balance)
	assert.Equal(t, "ETB", w.Currency)
	assert.Equal(t, "5000.00", w.DailyTransferLimit)
	assert.Equal(t, "active", w.Status)
}

func TestTransfer_AutoApprovedReturns200(t *testing.T) {
	h := newHarness(t, nil)
	h.env.Fund(t, "alice", testenv.Units(1000))

	rec := h.do(t, http.MethodPost, "/v1/transfers", dto.TransferRequest{
		FromOwnerID: "alice", ToOwnerID: "bob", Amount: "500.00", Reason: "lunch",
	}, map[string]string{"X-Device-Fingerprint": "dev-1", "User-Agent": "bingo-app/1.0"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	tr := decodeBody[dto.TransferResponse](t, rec)
	assert.Equal(t, "completed", tr.Status)
	assert.Equal(t, "500.00", tr.Amount)
	assert.Equal(t, testenv.Units(500), h.env.Balance(t, "alice"))
	assert.Equal(t, testenv.Units(500), h.env.Balance(t, "bob"))

	logs := h.do(t, http.MethodGet, "/v1/wallets/alice/security-logs", nil, nil)
	require.Equal(t, http.StatusOK, logs.Code)
	page := decodeBody[dto.Page[dto.SecurityLogResponse]](t, logs)
	require.NotEmpty(t, page.Items)
	assert.Equal(t, "bingo-app/1.0", page.Items[0].UserAgent)
	assert.Equal(t, "dev-1", page.Items[0].DeviceFingerprint)
}

func TestTransfer_HighScoreIsAcceptedPendingThenApprovedByAdmin(t *testing.T) {
	h := newHarness(t, nil)
	h.env.Fund(t, "alice", testenv.Units(7000))
	limits := h.do(t, http.MethodPut, "/v1/admin/wallets/alice/limits",
		dto.LimitsRequest{DailyTransferLimit: "10000", TransferLimit: "10000"}, admin())
	require.Equal(t, http.StatusOK, limits.Code, limits.Body.String())

	rec := h.do(t, http.MethodPost, "/v1/transfers", dto.TransferRequest{
		FromOwnerID: "alice", ToOwnerID: "bob", Amount: "6000", Reason: "rent",
	}, nil)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	tr := decodeBody[dto.TransferResponse](t, rec)
	assert.Equal(t, "pending", tr.Status)
	assert.Equal(t, 50, tr.FraudScore)
	assert.Equal(t, testenv.Units(7000), h.env.Balance(t, "alice"))

	pending := h.do(t, http.MethodGet, "/v1/admin/transfers/pending", nil, admin())
	require.Equal(t, http.StatusOK, pending.Code)
	list := decodeBody[[]dto.TransferResponse](t, pending)
	require.Len(t, list, 1)
	assert.Equal(t, tr.ID, list[0].ID)

	// sem token
	denied := h.do(t, http.MethodPost, "/v1/transfers/"+tr.ID+"/approve", dto.ReviewRequest{Notes: "ok"}, nil)
	assert.Equal(t, http.StatusUnauthorized, denied.Code)

	ok := h.do(t, http.MethodPost, "/v1/transfers/"+tr.ID+"/approve", dto.ReviewRequest{Notes: "ok"}, admin())
	require.Equal(t, http.StatusOK, ok.Code, ok.Body.String())
	assert.Equal(t, "completed", decodeBody[dto.TransferResponse](t, ok).Status)

	again := h.do(t, http.MethodPost, "/v1/transfers/"+tr.ID+"/reject", nil, admin())
	assert.Equal(t, http.StatusConflict, again.Code)
	assert.Equal(t, "ALREADY_PROCESSED", decodeBody[dto.ErrorResponse](t, again).Code)

	received := h.do(t, http.MethodGet, "/v1/wallets/bob/transfers?direction=received", nil, nil)
	require.Equal(t, http.StatusOK, received.Code)
	assert.Len(t, decodeBody[[]dto.TransferResponse](t, received), 1)
}

func TestTransfer_ErrorMapping(t *testing.T) {
	h := newHarness(t, nil)
	h.env.Fund(t, "alice", testenv.Units(100))
	h.env.Fund(t, "locked", testenv.Units(100))
	_, err := h.env.Wallets.Lock(context.Background(), "locked", "lost phone")
	require.NoError(t, err)

	cases := []struct {
		name   string
		req    dto.TransferRequest
		status int
		code   string
	}{
		{"zero amount", dto.TransferRequest{FromOwnerID: "alice", ToOwnerID: "bob", Amount: "0"}, http.StatusBadRequest, "INVALID_AMOUNT"},
		{"bad decimal", dto.TransferRequest{FromOwnerID: "alice", ToOwnerID: "bob", Amount: "1.005"}, http.StatusBadRequest, "INVALID_AMOUNT"},
		{"beyond int64 cents", dto.TransferRequest{FromOwnerID: "alice", ToOwnerID: "bob", Amount: "184467440737095521.16"}, http.StatusBadRequest, "INVALID_AMOUNT"},
		{"exponent overflow", dto.TransferRequest{FromOwnerID: "alice", ToOwnerID: "bob", Amount: "1e30"}, http.StatusBadRequest, "INVALID_AMOUNT"},
		{"self", dto.TransferRequest{FromOwnerID: "alice", ToOwnerID: "alice", Amount: "1"}, http.StatusBadRequest, "INVALID_RECIPIENT"},
		{"insufficient", dto.TransferRequest{FromOwnerID: "alice", ToOwnerID: "bob", Amount: "200"}, http.StatusUnprocessableEntity, "INSUFFICIENT_BALANCE"},
		{"locked", dto.TransferRequest{FromOwnerID: "locked", ToOwnerID: "bob", Amount: "1"}, http.StatusLocked, "WALLET_LOCKED"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := h.do(t, http.MethodPost, "/v1/transfers", tc.req, nil)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
			assert.Equal(t, tc.code, decodeBody[dto.ErrorResponse](t, rec).Code)
		})
	}

	missing := h.do(t, http.MethodGet, "/v1/transfers/does-not-exist", nil, nil)
	assert.Equal(t, http.StatusNotFound, missing.Code)

	badJSON := httptest.NewRequest(http.MethodPost, "/v1/transfers", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, badJSON)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransfer_ConflictMapsTo503WithRetryAfter(t *testing.T) {
	h := newHarness(t, nil)
	h.env.Fund(t, "alice", testenv.Units(100))
	h.env.Store.InjectConflicts(100)

	rec := h.do(t, http.MethodPost, "/v1/transfers", dto.TransferRequest{
		FromOwnerID: "alice", ToOwnerID: "bob", Amount: "10",
	}, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Equal(t, "CONCURRENCY_CONFLICT", decodeBody[dto.ErrorResponse](t, rec).Code)
}

type publisherFunc func(ctx context.Context, t model.TransferRequest)

func (f publisherFunc) TransferChanged(ctx context.Context, t model.TransferRequest) { f(ctx, t) }

func TestTransfer_FailedAutoApprovalReturnsPendingID(t *testing.T) {
	var h *harness
	h = newHarness(t, nil, func(d *transfer.Deps) {
		d.Publisher = publisherFunc(func(_ context.Context, tr model.TransferRequest) {
			if tr.Status == model.TransferPending {
				h.env.Store.InjectConflicts(100)
			}
		})
	})
	h.env.Fund(t, "alice", testenv.Units(100))

	rec := h.do(t, http.MethodPost, "/v1/transfers", dto.TransferRequest{
		FromOwnerID: "alice", ToOwnerID: "bob", Amount: "10",
	}, nil)
	h.env.Store.InjectConflicts(0)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code, rec.Body.String())
	body := decodeBody[dto.ErrorResponse](t, rec)
	assert.Equal(t, "CONCURRENCY_CONFLICT", body.Code)
	require.NotEmpty(t, body.TransferID)

	got := h.do(t, http.MethodGet, "/v1/transfers/"+body.TransferID, nil, nil)
	require.Equal(t, http.StatusOK, got.Code)
	assert.Equal(t, "pending", decodeBody[dto.TransferResponse](t, got).Status)
	assert.Equal(t, testenv.Units(100), h.env.Balance(t, "alice"))

	plain := h.do(t, http.MethodPost, "/v1/transfers", dto.TransferRequest{
		FromOwnerID: "alice", ToOwnerID: "alice", Amount: "1",
	}, nil)
	assert.Empty(t, decodeBody[dto.ErrorResponse](t, plain).TransferID)
}

func TestLockUnlock(t *testing.T) {
	h := newHarness(t, nil)

	rec := h.do(t, http.MethodPost, "/v1/wallets/alice/lock", dto.LockRequest{Reason: "suspicious login"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	w := decodeBody[dto.WalletResponse](t, rec)
	assert.True(t, w.IsLocked)
	assert.Equal(t, "suspicious login", w.LockReason)

	noReason := h.do(t, http.MethodPost, "/v1/wallets/alice/lock", dto.LockRequest{}, nil)
	assert.Equal(t, http.StatusBadRequest, noReason.Code)

	rec = h.do(t, http.MethodPost, "/v1/wallets/alice/unlock", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeBody[dto.WalletResponse](t, rec).IsLocked)

	assert.Equal(t, []string{model.ActionWalletCreated, model.ActionWalletLocked, model.ActionWalletUnlocked},
		h.env.Actions(t, "alice"))
}

func TestPaymentCallbacks_IdempotentByExternalRef(t *testing.T) {
	h := newHarness(t, nil)
	body := dto.PaymentRequest{UserID: "alice", Amount: "250.50", ExternalRef: "chapa-123", Method: "chapa"}

	first := h.do(t, http.MethodPost, "/v1/payments/deposit", body, nil)
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	second := h.do(t, http.MethodPost, "/v1/payments/deposit", body, nil)
	require.Equal(t, http.StatusOK, second.Code)

	assert.Equal(t, decodeBody[dto.TransactionResponse](t, first).ID, decodeBody[dto.TransactionResponse](t, second).ID)
	assert.Equal(t, int64(25050), h.env.Balance(t, "alice"))

	wd := h.do(t, http.MethodPost, "/v1/payments/withdrawal",
		dto.PaymentRequest{UserID: "alice", Amount: "300", ExternalRef: "chapa-124", Method: "chapa"}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, wd.Code)

	missingRef := h.do(t, http.MethodPost, "/v1/payments/deposit", dto.PaymentRequest{UserID: "alice", Amount: "1"}, nil)
	assert.Equal(t, http.StatusBadRequest, missingRef.Code)
}

func TestGameCallbacks(t *testing.T) {
	h := newHarness(t, nil)
	h.env.Fund(t, "alice", testenv.Units(50))

	bet := h.do(t, http.MethodPost, "/v1/games/bet", dto.GameRequest{UserID: "alice", GameID: "g-1", Amount: "10"}, nil)
	require.Equal(t, http.StatusCreated, bet.Code)
	assert.Equal(t, "-10.00", decodeBody[dto.TransactionResponse](t, bet).Amount)

	win := h.do(t, http.MethodPost, "/v1/games/win", dto.GameRequest{UserID: "alice", GameID: "g-1", Amount: "40"}, nil)
	require.Equal(t, http.StatusCreated, win.Code)
	assert.Equal(t, testenv.Units(80), h.env.Balance(t, "alice"))

	txs := h.do(t, http.MethodGet, "/v1/wallets/alice/transactions?limit=1", nil, nil)
	require.Equal(t, http.StatusOK, txs.Code)
	page := decodeBody[dto.Page[dto.TransactionResponse]](t, txs)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "win", page.Items[0].Type)
	require.NotEmpty(t, page.NextBefore)

	next := h.do(t, http.MethodGet, "/v1/wallets/alice/transactions?limit=1&before="+page.NextBefore, nil, nil)
	require.Equal(t, http.StatusOK, next.Code)
	assert.Equal(t, "bet", decodeBody[dto.Page[dto.TransactionResponse]](t, next).Items[0].Type)

	bad := h.do(t, http.MethodGet, "/v1/wallets/alice/transactions?before=garbage", nil, nil)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestInvitations_GrantBonusOnThreshold(t *testing.T) {
	h := newHarness(t, nil)

	first := h.do(t, http.MethodPost, "/v1/invitations", dto.InvitationRequest{InviterID: "alice", InviteeID: "bob"}, nil)
	require.Equal(t, http.StatusOK, first.Code)
	assert.False(t, decodeBody[dto.InvitationResponse](t, first).BonusGranted)

	second := h.do(t, http.MethodPost, "/v1/invitations", dto.InvitationRequest{InviterID: "alice", InviteeID: "carol"}, nil)
	require.Equal(t, http.StatusOK, second.Code)
	res := decodeBody[dto.InvitationResponse](t, second)
	assert.True(t, res.BonusGranted)
	assert.Equal(t, 2, res.Count)
	require.NotNil(t, res.Bonus)
	assert.Equal(t, "10.00", res.Bonus.Amount)

	dup := h.do(t, http.MethodPost, "/v1/invitations", dto.InvitationRequest{InviterID: "alice", InviteeID: "bob"}, nil)
	assert.Equal(t, http.StatusConflict, dup.Code)
}

func TestAdminRoutes(t *testing.T) {
	h := newHarness(t, nil)
	h.env.Fund(t, "alice", testenv.Units(20000))

	assert.Equal(t, http.StatusUnauthorized,
		h.do(t, http.MethodPost, "/v1/admin/bonus", dto.BonusRequest{OwnerID: "bob", Amount: "5"}, nil).Code)

	bonus := h.do(t, http.MethodPost, "/v1/admin/bonus", dto.BonusRequest{OwnerID: "bob", Amount: "5", Reason: "promo"}, admin())
	require.Equal(t, http.StatusOK, bonus.Code, bonus.Body.String())
	assert.Equal(t, "admin_bonus", decodeBody[dto.TransactionResponse](t, bonus).Type)

	// acima do teto global: permitido para admin
	tr := h.do(t, http.MethodPost, "/v1/admin/transfers",
		dto.TransferRequest{FromOwnerID: "alice", ToOwnerID: "bob", Amount: "15000", Reason: "settlement"}, admin())
	require.Equal(t, http.StatusOK, tr.Code, tr.Body.String())
	assert.True(t, decodeBody[dto.TransferResponse](t, tr).Admin)
	assert.Equal(t, testenv.Units(15005), h.env.Balance(t, "bob"))

	limits := h.do(t, http.MethodPut, "/v1/admin/wallets/bob/limits",
		dto.LimitsRequest{DailyTransferLimit: "100", TransferLimit: "50"}, admin())
	require.Equal(t, http.StatusOK, limits.Code)
	assert.Equal(t, "50.00", decodeBody[dto.WalletResponse](t, limits).TransferLimit)

	status := h.do(t, http.MethodPut, "/v1/admin/wallets/bob/status", dto.StatusRequest{Status: "suspended", Reason: "kyc"}, admin())
	require.Equal(t, http.StatusOK, status.Code)

	blocked := h.do(t, http.MethodPost, "/v1/transfers", dto.TransferRequest{FromOwnerID: "bob", ToOwnerID: "alice", Amount: "10"}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, blocked.Code)
	assert.Equal(t, "WALLET_INACTIVE", decodeBody[dto.ErrorResponse](t, blocked).Code)

	invalid := h.do(t, http.MethodPut, "/v1/admin/wallets/bob/status", dto.StatusRequest{Status: "deleted"}, admin())
	assert.Equal(t, http.StatusBadRequest, invalid.Code)

	logs := h.do(t, http.MethodGet, "/v1/admin/security-logs?limit=5", nil, admin())
	require.Equal(t, http.StatusOK, logs.Code)
	assert.Len(t, decodeBody[dto.Page[dto.SecurityLogResponse]](t, logs).Items, 5)
}

func TestRateLimit_BlocksAfterLimitAndFailsOpen(t *testing.T) {
	lim := newFakeLimiter()
	h := newHarness(t, lim)
	h.env.Fund(t, "alice", testenv.Units(100))
	hdr := map[string]string{"X-User-ID": "alice"}
	req := dto.TransferRequest{FromOwnerID: "alice", ToOwnerID: "bob", Amount: "1"}

	for i := 0; i < 2; i++ {
		rec := h.do(t, http.MethodPost, "/v1/transfers", req, hdr)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	rec := h.do(t, http.MethodPost, "/v1/transfers", req, hdr)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	// ainda bloqueado
	rec = h.do(t, http.MethodPost, "/v1/transfers", req, hdr)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// outro usuário não é afetado
	other := h.do(t, http.MethodGet, "/v1/wallets/alice", nil, hdr)
	assert.Equal(t, http.StatusOK, other.Code)

	lim.fail = true
	rec = h.do(t, http.MethodPost, "/v1/transfers", req, map[string]string{"X-User-ID": "carol"})
	assert.NotEqual(t, http.StatusTooManyRequests, rec.Code)

	assert.Equal(t, testenv.Units(98), h.env.Balance(t, "alice"))
}

func TestAdminRoutes_RefuseWhenTokenUnset(t *testing.T) {
	env := testenv.New(t)
	router := httpapi.NewServer(zap.NewNop(), httpapi.Services{
		Wallets: env.Wallets, Ledger: env.Ledger, Audit: env.Audit, Transfers: env.Transfers,
		Admin: env.Admin, Funds: env.Funds, Bonus: env.Bonus,
	}, httpapi.Options{}).Router()

	for _, token := range []string{"", "change-me"} {
		req := httptest.NewRequest(http.MethodPost, "/v1/admin/bonus",
			bytes.NewBufferString(`{"ownerId":"alice","amount":"5","reason":"x"}`))
		req.Header.Set("X-Admin-Token", token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, token)
	}
	_, err := env.Store.ReadWallet(context.Background(), "alice")
	assert.ErrorIs(t, err, model.ErrWalletNotFound)
}
