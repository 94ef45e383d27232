package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Provider delivers a message, such as a password reset token, to a recipient.
type Provider interface {
	Send(ctx context.Context, message, recipient string) error
}

// NewProvider picks a provider by kind: "noop" (default), "log" for local
// development, or an http(s) URL that receives a JSON webhook.
func NewProvider(kind, token string, logger logrus.FieldLogger) Provider {
	switch kind {
	case "", "noop":
		return noopProvider{}
	case "stub", "log":
		logger.Warn("reset notifier writes tokens to the log; do not use in production")
		return logProvider{logger: logger}
	default:
		if strings.HasPrefix(kind, "http://") || strings.HasPrefix(kind, "https://") {
			return webhookProvider{
				url:    kind,
				token:  token,
				client: &http.Client{Timeout: 5 * time.Second},
			}
		}
		logger.WithField("kind", kind).Warn("unknown notifier, reset tokens will not be delivered")
		return noopProvider{}
	}
}

// logProvider writes the message to the log. Development only: the message
// may carry a reset token.
type logProvider struct {
	logger logrus.FieldLogger
}

func (p logProvider) Send(ctx context.Context, message, recipient string) error {
	p.logger.WithFields(logrus.Fields{
		"recipient": recipient,
		"message":   message,
	}).Debug("notification")
	return nil
}

type noopProvider struct{}

func (noopProvider) Send(ctx context.Context, message, recipient string) error {
	return nil
}

type webhookProvider struct {
	url    string
	token  string
	client *http.Client
}

func (p webhookProvider) Send(ctx context.Context, message, recipient string) error {
	payload := map[string]string{
		"channel":   "email",
		"recipient": recipient,
		"message":   message,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	}
	return nil
}

var ErrRejected = errors.New("provider rejected request")
