// Package walletclient é o cliente HTTP da API administrativa da carteira (usado pelo walletctl).
package walletclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/radieske/bingo-wallet/internal/wallet-service/dto"
)

// APIError é a resposta de erro da API com o status HTTP
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("wallet api %d %s: %s", e.Status, e.Code, e.Message)
}

type Client struct {
	BaseURL    string
	AdminToken string
	HTTP       *http.Client
}

func New(base, adminToken string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		BaseURL:    base,
		AdminToken: adminToken,
		HTTP:       &http.Client{Timeout: timeout},
	}
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.AdminToken != "" {
		req.Header.Set("X-Admin-Token", c.AdminToken)
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		var e dto.ErrorResponse
		_ = json.NewDecoder(res.Body).Decode(&e)
		return &APIError{Status: res.StatusCode, Code: e.Code, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}

func (c *Client) Wallet(ctx context.Context, owner string) (dto.WalletResponse, error) {
	var out dto.WalletResponse
	err := c.do(ctx, http.MethodGet, "/v1/wallets/"+url.PathEscape(owner), nil, &out)
	return out, err
}

func (c *Client) Lock(ctx context.Context, owner, reason string) (dto.WalletResponse, error) {
	var out dto.WalletResponse
	err := c.do(ctx, http.MethodPost, "/v1/wallets/"+url.PathEscape(owner)+"/lock", dto.LockRequest{Reason: reason}, &out)
	return out, err
}

func (c *Client) Unlock(ctx context.Context, owner string) (dto.WalletResponse, error) {
	var out dto.WalletResponse
	err := c.do(ctx, http.MethodPost, "/v1/wallets/"+url.PathEscape(owner)+"/unlock", nil, &out)
	return out, err
}

func (c *Client) SetLimits(ctx context.Context, owner, daily, perTransfer string) (dto.WalletResponse, error) {
	var out dto.WalletResponse
	err := c.do(ctx, http.MethodPut, "/v1/admin/wallets/"+url.PathEscape(owner)+"/limits",
		dto.LimitsRequest{DailyTransferLimit: daily, TransferLimit: perTransfer}, &out)
	return out, err
}

func (c *Client) SetStatus(ctx context.Context, owner, status, reason string) (dto.WalletResponse, error) {
	var out dto.WalletResponse
	err := c.do(ctx, http.MethodPut, "/v1/admin/wallets/"+url.PathEscape(owner)+"/status",
		dto.StatusRequest{Status: status, Reason: reason}, &out)
	return out, err
}

func (c *Client) PendingTransfers(ctx context.Context, limit int) ([]dto.TransferResponse, error) {
	var out []dto.TransferResponse
	err := c.do(ctx, http.MethodGet, "/v1/admin/transfers/pending?limit="+strconv.Itoa(limit), nil, &out)
	return out, err
}

func (c *Client) Approve(ctx context.Context, id, notes string) (dto.TransferResponse, error) {
	var out dto.TransferResponse
	err := c.do(ctx, http.MethodPost, "/v1/transfers/"+url.PathEscape(id)+"/approve", dto.ReviewRequest{Notes: notes}, &out)
	return out, err
}

func (c *Client) Reject(ctx context.Context, id, notes string) (dto.TransferResponse, error) {
	var out dto.TransferResponse
	err := c.do(ctx, http.MethodPost, "/v1/transfers/"+url.PathEscape(id)+"/reject", dto.ReviewRequest{Notes: notes}, &out)
	return out, err
}

func (c *Client) AdminTransfer(ctx context.Context, from, to, amount, reason string) (dto.TransferResponse, error) {
	var out dto.TransferResponse
	err := c.do(ctx, http.MethodPost, "/v1/admin/transfers",
		dto.TransferRequest{FromOwnerID: from, ToOwnerID: to, Amount: amount, Reason: reason}, &out)
	return out, err
}

func (c *Client) AddBonus(ctx context.Context, owner, amount, reason string) (dto.TransactionResponse, error) {
	var out dto.TransactionResponse
	err := c.do(ctx, http.MethodPost, "/v1/admin/bonus", dto.BonusRequest{OwnerID: owner, Amount: amount, Reason: reason}, &out)
	return out, err
}

// SecurityLogs lista o log de segurança; owner vazio traz todas as carteiras
func (c *Client) SecurityLogs(ctx context.Context, owner string, limit int, before string) (dto.Page[dto.SecurityLogResponse], error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	if before != "" {
		q.Set("before", before)
	}
	path := "/v1/admin/security-logs?"
	if owner != "" {
		q.Set("ownerId", owner)
	}
	var out dto.Page[dto.SecurityLogResponse]
	err := c.do(ctx, http.MethodGet, path+q.Encode(), nil, &out)
	return out, err
}
