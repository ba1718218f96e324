package mailer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const sendPath = "/send"

var ErrNotConfigured = errors.New("mail relay is not configured")

type Email struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

type relayRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

// Mailer posts transactional emails to an HTTP mail relay.
type Mailer struct {
	from   string
	client *resty.Client
}

func NewMailer(relayAddress, from, apiKey string) *Mailer {
	if relayAddress == "" {
		return &Mailer{from: from}
	}

	client := resty.New()

	client.
		SetBaseURL(relayAddress).
		SetTimeout(10 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(2 * time.Second).
		SetRetryMaxWaitTime(10 * time.Second).
		SetHeader("Content-Type", "application/json")

	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}

	return &Mailer{
		from:   from,
		client: client,
	}
}

func (m *Mailer) Send(ctx context.Context, email Email) error {
	if m.client == nil {
		return ErrNotConfigured
	}

	if email.To == "" {
		return errors.New("email recipient is empty")
	}

	response, err := m.client.R().
		SetContext(ctx).
		SetBody(relayRequest{
			From:    m.from,
			To:      email.To,
			Subject: email.Subject,
			Text:    email.Text,
		}).
		Post(sendPath)
	if err != nil {
		return fmt.Errorf("error send email: %w", err)
	}

	if response.IsError() {
		return fmt.Errorf("error send email, invalid status: %v", response.Status())
	}

	return nil
}
