package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/radieske/game-gateway-poc/internal/launch-gateway/vendor"
)

// Client fala com o ledger interno: ingestão de transações e leitura de saldo.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(base string) *Client {
	return &Client{
		BaseURL: base,
		// timeout próprio de batch, maior que o do caminho de launch
		HTTP: &http.Client{Timeout: 15 * time.Second},
	}
}

type ingestRequest struct {
	Records []vendor.TransactionRecord `json:"records"`
}

// IngestBatch entrega um batch de registros novos ao ledger.
// O contrato de resposta é só o status HTTP; o ledger é idempotente
// por (agency, serial_number, timestamp, member_account).
func (c *Client) IngestBatch(ctx context.Context, records []vendor.TransactionRecord) error {
	body, _ := json.Marshal(ingestRequest{Records: records})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/transactions/ingest", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("ledger ingest: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		return fmt.Errorf("ledger ingest http %d", res.StatusCode)
	}
	return nil
}

type balanceResponse struct {
	UserID   string  `json:"user_id"`
	Balance  float64 `json:"balance"`
	Currency string  `json:"currency"`
}

// Balance consulta o saldo corrente derivado pelo ledger.
func (c *Client) Balance(ctx context.Context, userID string) (float64, error) {
	url := fmt.Sprintf("%s/balance?userId=%s", c.BaseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return 0, fmt.Errorf("ledger balance: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		return 0, fmt.Errorf("ledger balance http %d", res.StatusCode)
	}

	var out balanceResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("ledger balance parse: %w", err)
	}
	return out.Balance, nil
}
