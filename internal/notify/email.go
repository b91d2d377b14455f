package notify

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// EmailProvider sends a single email.
type EmailProvider interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SMSProvider sends a single text message.
type SMSProvider interface {
	SendSMS(ctx context.Context, to, content string) error
}

// Message is a delivery captured by a mock provider.
type Message struct {
	To      string
	Subject string
	Body    string
}

// MockEmailProvider logs emails instead of sending them.
type MockEmailProvider struct {
	logger *zap.Logger

	mu   sync.Mutex
	sent []Message
}

// NewMockEmailProvider creates a mock email provider.
func NewMockEmailProvider(logger *zap.Logger) *MockEmailProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MockEmailProvider{logger: logger}
}

func (m *MockEmailProvider) Send(_ context.Context, to, subject, htmlBody string) error {
	m.logger.Info("mock email",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.Int("body_length", len(htmlBody)))

	m.mu.Lock()
	m.sent = append(m.sent, Message{To: to, Subject: subject, Body: htmlBody})
	m.mu.Unlock()
	return nil
}

// Sent returns a copy of every email seen so far.
func (m *MockEmailProvider) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.sent...)
}

// MockSMSProvider logs text messages instead of sending them.
type MockSMSProvider struct {
	logger *zap.Logger

	mu   sync.Mutex
	sent []Message
}

// NewMockSMSProvider creates a mock SMS provider.
func NewMockSMSProvider(logger *zap.Logger) *MockSMSProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MockSMSProvider{logger: logger}
}

func (m *MockSMSProvider) SendSMS(_ context.Context, to, content string) error {
	m.logger.Info("mock sms", zap.String("to", to), zap.Int("length", len(content)))

	m.mu.Lock()
	m.sent = append(m.sent, Message{To: to, Body: content})
	m.mu.Unlock()
	return nil
}

// Sent returns a copy of every message seen so far.
func (m *MockSMSProvider) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.sent...)
}
