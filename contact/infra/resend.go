package infra

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"contact-gateway/contact/domain"

	"github.com/resend/resend-go/v2"
)

// ResendProvider entrega pela API HTTP da Resend.
type ResendProvider struct {
	client *resend.Client
}

type ResendOption func(*resend.Client) error

// WithResendBaseURL aponta o client para outro endpoint (ex: servidor de teste).
func WithResendBaseURL(raw string) ResendOption {
	return func(c *resend.Client) error {
		if !strings.HasSuffix(raw, "/") {
			raw += "/"
		}
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("resend base url: %w", err)
		}
		c.BaseURL = u
		return nil
	}
}

// NewResendProvider falha com domain.ErrMissingAPIKey quando a chave está vazia.
func NewResendProvider(apiKey string, opts ...ResendOption) (*ResendProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, domain.ErrMissingAPIKey
	}
	client := resend.NewClient(apiKey)
	for _, opt := range opts {
		if err := opt(client); err != nil {
			return nil, err
		}
	}
	return &ResendProvider{client: client}, nil
}

// Send implementa domain.Provider. Chave revogada aparece aqui como erro comum.
func (p *ResendProvider) Send(ctx context.Context, msg domain.Message) (string, error) {
	req := &resend.SendEmailRequest{
		From:    msg.From,
		To:      msg.To,
		Cc:      msg.Cc,
		ReplyTo: msg.ReplyTo,
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	}

	sent, err := p.client.Emails.SendWithContext(ctx, req)
	if err != nil {
		return "", fmt.Errorf("resend send: %w", err)
	}
	return sent.Id, nil
}
