package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"order_of_ash/internal/domain"
)

// Client — клиент внешнего платежного бэкенда (JSON over HTTPS).
// Все вызовы ограничены таймаутом: зависший платежный API не должен
// подвешивать поллер.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient создает клиент платежного API
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Invoice — ответ бэкенда на создание счета
type Invoice struct {
	ID         string `json:"invoiceId"`
	PaymentURL string `json:"paymentUrl"`
}

// InvoiceStatus — статус счета при поллинге
type InvoiceStatus struct {
	Paid   bool   `json:"paid"`
	Status string `json:"status"`
}

type createInvoiceRequest struct {
	TgID       int64  `json:"tg_id"`
	AmountNano int64  `json:"amount_nano"`
	Comment    string `json:"comment,omitempty"`
}

// CreateInvoice выставляет счет на фиксированную сумму
func (c *Client) CreateInvoice(ctx context.Context, tgID, amountNano int64, comment string) (*Invoice, error) {
	body, _ := json.Marshal(createInvoiceRequest{TgID: tgID, AmountNano: amountNano, Comment: comment})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/invoices", bytes.NewReader(body))
	if err != nil {
		return nil, domain.WrapError(domain.KindTransient, "не удалось собрать запрос", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.WrapError(domain.KindTransient, "платежный бэкенд недоступен", err)
	}
	defer resp.Body.Close()

	if err := apiError(resp); err != nil {
		return nil, err
	}

	var inv Invoice
	if err := json.NewDecoder(resp.Body).Decode(&inv); err != nil {
		return nil, domain.WrapError(domain.KindTransient, "неразборчивый ответ платежного API", err)
	}
	if inv.ID == "" {
		return nil, domain.NewError(domain.KindTransient, "платежный API вернул пустой invoiceId")
	}
	return &inv, nil
}

// GetInvoiceStatus опрашивает статус счета
func (c *Client) GetInvoiceStatus(ctx context.Context, invoiceID string) (*InvoiceStatus, error) {
	reqURL := fmt.Sprintf("%s/invoices/%s", c.baseURL, invoiceID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, domain.WrapError(domain.KindTransient, "не удалось собрать запрос", err)
	}
	c.setAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.WrapError(domain.KindTransient, "платежный бэкенд недоступен", err)
	}
	defer resp.Body.Close()

	if err := apiError(resp); err != nil {
		return nil, err
	}

	var st InvoiceStatus
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return nil, domain.WrapError(domain.KindTransient, "неразборчивый ответ платежного API", err)
	}
	return &st, nil
}

func (c *Client) setAuthHeader(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// apiError превращает не-2xx ответ в ошибку с кодом.
// 401/403 — ошибка аутентификации, у нее отдельная обработка на фронте.
func apiError(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return domain.Errorf(domain.KindAuth, "платежный API отклонил авторизацию: %s", resp.Status)
	}
	return domain.Errorf(domain.KindTransient, "ошибка платежного API: %s - %s", resp.Status, string(body))
}
