package email

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v3"
)

// ResendConfig holds the configuration for the Resend email sender.
type ResendConfig struct {
	APIKey        string
	SenderAddress string
	SenderName    string
}

// ResendSender implements Sender using the Resend API.
type ResendSender struct {
	client *resend.Client
	config ResendConfig
}

// NewResendSender creates a new ResendSender.
func NewResendSender(cfg ResendConfig) (*ResendSender, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("resend: API key is required")
	}
	if cfg.SenderAddress == "" {
		return nil, fmt.Errorf("resend: sender address is required")
	}
	return &ResendSender{
		client: resend.NewClient(cfg.APIKey),
		config: cfg,
	}, nil
}

// Send sends an email via the Resend API.
func (s *ResendSender) Send(ctx context.Context, msg Message) error {
	from := s.config.SenderAddress
	if s.config.SenderName != "" {
		from = fmt.Sprintf("%s <%s>", s.config.SenderName, s.config.SenderAddress)
	}

	req := &resend.SendEmailRequest{
		From:    from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTMLBody,
		Text:    msg.TextBody,
	}

	if _, err := s.client.Emails.SendWithContext(ctx, req); err != nil {
		return &DeliveryError{Provider: "resend", Err: err}
	}
	return nil
}
