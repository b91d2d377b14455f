package notify

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/codeGROOVE-dev/retry"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"
)

// DefaultBrevoURL is the Brevo v3 API root.
const DefaultBrevoURL = "https://api.brevo.com/v3"

// brevoClient holds what the email and SMS endpoints share.
type brevoClient struct {
	apiKey   string
	baseURL  string
	client   *http.Client
	logger   *zap.Logger
	attempts uint
	delay    time.Duration
}

// BrevoOption configures a Brevo provider.
type BrevoOption func(*brevoClient)

// WithBrevoURL points the provider at a different API root.
func WithBrevoURL(u string) BrevoOption {
	return func(c *brevoClient) { c.baseURL = u }
}

// WithHTTPClient replaces the default 30 second client.
func WithHTTPClient(hc *http.Client) BrevoOption {
	return func(c *brevoClient) { c.client = hc }
}

// WithRetry sets the attempt count and initial backoff for transient
// failures.
func WithRetry(attempts uint, delay time.Duration) BrevoOption {
	return func(c *brevoClient) {
		c.attempts = attempts
		c.delay = delay
	}
}

func newBrevoClient(apiKey string, logger *zap.Logger, opts []BrevoOption) brevoClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := brevoClient{
		apiKey:   apiKey,
		baseURL:  DefaultBrevoURL,
		client:   &http.Client{Timeout: 30 * time.Second},
		logger:   logger,
		attempts: 3,
		delay:    time.Second,
	}
	for _, o := range opts {
		o(&c)
	}
	return c
}

// post sends payload to endpoint, retrying network errors and 5xx/429
// responses. Other 4xx responses are not retried.
func (c *brevoClient) post(ctx context.Context, endpoint string, payload any, fields ...zap.Field) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	return retry.Do(
		func() error {
			start := time.Now()
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+endpoint, bytes.NewReader(data))
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("create request: %w", err))
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Accept", "application/json")
			req.Header.Set("api-key", c.apiKey)

			resp, err := c.client.Do(req)
			duration := time.Since(start)
			if err != nil {
				c.logger.Warn("Brevo API request failed",
					append(fields, zap.String("endpoint", endpoint), zap.Int64("duration_ms", duration.Milliseconds()), zap.Error(err))...)
				return err
			}
			defer func() {
				if closeErr := resp.Body.Close(); closeErr != nil {
					c.logger.Warn("failed to close response body", zap.Error(closeErr))
				}
			}()

			switch {
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
			case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
				c.logger.Warn("Brevo API returned retryable status",
					append(fields, zap.String("endpoint", endpoint), zap.Int("status_code", resp.StatusCode))...)
				return fmt.Errorf("brevo %s: HTTP %d", endpoint, resp.StatusCode)
			default:
				return retry.Unrecoverable(fmt.Errorf("brevo %s: HTTP %d", endpoint, resp.StatusCode))
			}

			c.logger.Debug("Brevo API request completed",
				append(fields, zap.String("endpoint", endpoint), zap.Int64("duration_ms", duration.Milliseconds()))...)
			return nil
		},
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.MaxDelay(30*time.Second),
		retry.MaxJitter(c.delay),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Info("retrying Brevo request", zap.String("endpoint", endpoint), zap.Uint("attempt", n), zap.Error(err))
		}),
	)
}

// BrevoEmailProvider sends email through Brevo's transactional API.
type BrevoEmailProvider struct {
	c        brevoClient
	fromAddr string
	fromName string
}

// NewBrevoEmailProvider creates a Brevo email provider.
func NewBrevoEmailProvider(apiKey, fromAddr, fromName string, logger *zap.Logger, opts ...BrevoOption) *BrevoEmailProvider {
	return &BrevoEmailProvider{
		c:        newBrevoClient(apiKey, logger, opts),
		fromAddr: fromAddr,
		fromName: fromName,
	}
}

type brevoContact struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type brevoEmailRequest struct {
	Sender  brevoContact   `json:"sender"`
	To      []brevoContact `json:"to"`
	Subject string         `json:"subject"`
	HTML    string         `json:"htmlContent"`
}

func (b *BrevoEmailProvider) Send(ctx context.Context, to, subject, htmlBody string) error {
	req := brevoEmailRequest{
		Sender:  brevoContact{Email: b.fromAddr, Name: b.fromName},
		To:      []brevoContact{{Email: to}},
		Subject: subject,
		HTML:    htmlBody,
	}
	return b.c.post(ctx, "smtp/email", req, zap.String("to", to))
}

// BrevoSMSProvider sends text messages through Brevo's transactional SMS
// API.
type BrevoSMSProvider struct {
	c      brevoClient
	sender string
}

// NewBrevoSMSProvider creates a Brevo SMS provider. sender is the
// alphanumeric sender name shown to recipients.
func NewBrevoSMSProvider(apiKey, sender string, logger *zap.Logger, opts ...BrevoOption) *BrevoSMSProvider {
	return &BrevoSMSProvider{c: newBrevoClient(apiKey, logger, opts), sender: sender}
}

type brevoSMSRequest struct {
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Content   string `json:"content"`
	Type      string `json:"type"`
}

func (b *BrevoSMSProvider) SendSMS(ctx context.Context, to, content string) error {
	req := brevoSMSRequest{
		Sender:    b.sender,
		Recipient: to,
		Content:   content,
		Type:      "transactional",
	}
	return b.c.post(ctx, "transactionalSMS/sms", req, zap.String("to", to))
}
