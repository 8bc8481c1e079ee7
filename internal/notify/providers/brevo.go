package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	notify "empverify/internal/notify/models"
)

const brevoEndpoint = "https://api.brevo.com/v3/smtp/email"

// Brevo delivers through the Brevo transactional email REST API.
type Brevo struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

// NewBrevo builds a Brevo provider. endpoint may be empty for the public API.
func NewBrevo(apiKey, endpoint string, client *http.Client) *Brevo {
	if endpoint == "" {
		endpoint = brevoEndpoint
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Brevo{apiKey: apiKey, endpoint: endpoint, client: client}
}

func (p *Brevo) Name() string { return NameBrevo }

type brevoAddress struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type brevoRequest struct {
	Sender      brevoAddress   `json:"sender"`
	To          []brevoAddress `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
	TextContent string         `json:"textContent,omitempty"`
}

type brevoResponse struct {
	MessageID string `json:"messageId"`
	Message   string `json:"message"`
}

func (p *Brevo) Send(ctx context.Context, email notify.Email) (string, error) {
	if p.apiKey == "" {
		return "", fmt.Errorf("brevo: %w", ErrNotConfigured)
	}

	body := brevoRequest{
		Sender:      brevoAddress{Name: email.FromName, Email: email.FromAddress},
		Subject:     email.Subject,
		HTMLContent: email.HTML,
		TextContent: email.Text,
	}
	for _, to := range email.To {
		body.To = append(body.To, brevoAddress{Email: to})
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("brevo: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("brevo: build request: %w", err)
	}
	req.Header.Set("api-key", p.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("brevo: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("brevo: read response: %w", err)
	}
	var out brevoResponse
	_ = json.Unmarshal(raw, &out)

	if resp.StatusCode >= 300 {
		if out.Message != "" {
			return "", fmt.Errorf("brevo: status %d: %s", resp.StatusCode, out.Message)
		}
		return "", fmt.Errorf("brevo: status %d", resp.StatusCode)
	}
	if out.MessageID != "" {
		return out.MessageID, nil
	}
	return "brevo-" + strconv.FormatInt(time.Now().UnixMilli(), 10), nil
}
