package common

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Email is a rendered message handed to an EmailSender.
type Email struct {
	To      string
	Subject string
	Body    string
}

// EmailSender delivers rendered messages. Delivery itself lives outside this service.
type EmailSender interface {
	Send(ctx context.Context, msg Email) error
}

// LogEmailSender writes messages to the log instead of delivering them.
type LogEmailSender struct {
	Logger zerolog.Logger
}

// Send implements EmailSender.
func (s LogEmailSender) Send(_ context.Context, msg Email) error {
	s.Logger.Info().Str("to", msg.To).Str("subject", msg.Subject).Int("body_bytes", len(msg.Body)).Msg("email queued for delivery")
	return nil
}

// InMemoryEmail records messages for tests.
type InMemoryEmail struct {
	mu     sync.Mutex
	outbox []Email
}

// Send implements EmailSender.
func (m *InMemoryEmail) Send(_ context.Context, msg Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outbox = append(m.outbox, msg)
	return nil
}

// Outbox returns a copy of the recorded messages.
func (m *InMemoryEmail) Outbox() []Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Email(nil), m.outbox...)
}
