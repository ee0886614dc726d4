package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// LaunchPayload é o corpo enviado ao endpoint de launch do provider.
type LaunchPayload struct {
	Agency        string `json:"agency"`
	GameID        string `json:"game_id"`
	MemberAccount string `json:"member_account"`
	Timestamp     int64  `json:"timestamp"` // unix ms
	CreditAmount  string `json:"credit_amount"`
	Currency      string `json:"currency"`
	Language      string `json:"language"`
	Platform      int    `json:"platform"` // 1=web, 2=mobile
	HomeURL       string `json:"home_url"`
	TransferID    string `json:"transfer_id"` // idempotência do lado do provider
}

type launchResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Payload struct {
		GameLaunchURL string `json:"game_launch_url"`
	} `json:"payload"`
}

// Error carrega o código e a mensagem humana devolvidos pelo provider
// quando code != 0.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider launch code %d: %s", e.Code, e.Message)
}

// Client pede ao provider uma URL de sessão de jogo.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(base string) *Client {
	return &Client{
		BaseURL: base,
		// caminho de launch acontece com o usuário esperando; falhar rápido
		HTTP: &http.Client{Timeout: 10 * time.Second},
	}
}

// Launch envia o payload e devolve a URL de redirecionamento.
// code != 0 vira *Error com a mensagem do provider; nenhum outro efeito.
func (c *Client) Launch(ctx context.Context, p LaunchPayload) (string, error) {
	body, _ := json.Marshal(p)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/launch", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("provider launch: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		return "", fmt.Errorf("provider launch http %d", res.StatusCode)
	}

	var out launchResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("provider launch parse: %w", err)
	}
	if out.Code != 0 {
		return "", &Error{Code: out.Code, Message: out.Message}
	}
	if out.Payload.GameLaunchURL == "" {
		return "", fmt.Errorf("provider launch: empty game_launch_url")
	}
	return out.Payload.GameLaunchURL, nil
}
