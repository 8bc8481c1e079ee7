package providers

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	notify "empverify/internal/notify/models"
)

const sendGridHost = "https://api.sendgrid.com"

// SendGrid delivers through the SendGrid v3 mail API.
type SendGrid struct {
	apiKey string
	host   string
}

// NewSendGrid builds a SendGrid provider. host overrides the API base URL and
// may be empty.
func NewSendGrid(apiKey, host string) *SendGrid {
	if host == "" {
		host = sendGridHost
	}
	return &SendGrid{apiKey: apiKey, host: host}
}

// client builds a fresh client per send; sendgrid.Client keeps the body on the
// shared request and is not safe for concurrent use.
func (p *SendGrid) client() *sendgrid.Client {
	req := sendgrid.GetRequest(p.apiKey, "/v3/mail/send", p.host)
	req.Method = rest.Post
	return &sendgrid.Client{Request: req}
}

func (p *SendGrid) Name() string { return NameSendGrid }

func (p *SendGrid) Send(ctx context.Context, email notify.Email) (string, error) {
	if p.apiKey == "" {
		return "", fmt.Errorf("sendgrid: %w", ErrNotConfigured)
	}

	msg := mail.NewV3Mail()
	msg.SetFrom(mail.NewEmail(email.FromName, email.FromAddress))
	msg.Subject = email.Subject
	personalization := mail.NewPersonalization()
	for _, to := range email.To {
		personalization.AddTos(mail.NewEmail("", to))
	}
	msg.AddPersonalizations(personalization)
	if email.Text != "" {
		msg.AddContent(mail.NewContent("text/plain", email.Text))
	}
	msg.AddContent(mail.NewContent("text/html", email.HTML))

	resp, err := p.client().SendWithContext(ctx, msg)
	if err != nil {
		return "", fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("sendgrid: status %d: %s", resp.StatusCode, resp.Body)
	}
	if ids := resp.Headers["X-Message-Id"]; len(ids) > 0 && ids[0] != "" {
		return ids[0], nil
	}
	return "sg-" + strconv.FormatInt(time.Now().UnixMilli(), 10), nil
}
