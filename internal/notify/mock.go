package notify

import (
	"context"
	"log/slog"
	"time"
)

// MockSender is a sender implementation that logs emails and always succeeds.
// It simulates a 10ms delay to mimic real sending latency.
type MockSender struct {
	logger *slog.Logger
}

// NewMockSender creates a new mock sender.
func NewMockSender(logger *slog.Logger) *MockSender {
	return &MockSender{logger: logger}
}

// Name returns the name of this sender.
func (s *MockSender) Name() string {
	return "mock"
}

// Send logs the email details and simulates a 10ms sending delay.
func (s *MockSender) Send(ctx context.Context, email *Email) error {
	time.Sleep(10 * time.Millisecond)

	s.logger.InfoContext(ctx, "mock sender: email sent",
		slog.String("to", email.To),
		slog.String("subject", email.Subject),
	)

	return nil
}
