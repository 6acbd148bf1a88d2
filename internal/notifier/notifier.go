package notifier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// Message is one outbound chat notification.
type Message struct {
	ChatID    int64
	Text      string
	ParseMode string
}

// Service delivers notifications to a chat recipient. Send returning nil means
// delivered; ErrRecipientUnreachable means the recipient rejected or blocked
// the message. Callers that only need at-least-once semantics treat both as
// "attempted".
type Service interface {
	Send(ctx context.Context, msg Message) error
}

var (
	// ErrNotImplemented indicates no real delivery channel is configured.
	ErrNotImplemented = errors.New("notifier: not implemented")
	// ErrRecipientUnreachable indicates the sink rejected the recipient.
	ErrRecipientUnreachable = errors.New("notifier: recipient unreachable")
)

// LoggerService writes notification intents to the log. Used during bootstrap
// and in tests when no bot token is configured.
type LoggerService struct {
	logger *slog.Logger
}

// NewLoggerService creates a log-only notification service.
func NewLoggerService(logger *slog.Logger) *LoggerService {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &LoggerService{logger: logger}
}

// Send records the notification request.
func (s *LoggerService) Send(ctx context.Context, msg Message) error {
	if msg.ChatID == 0 {
		return fmt.Errorf("chat id is required")
	}
	s.logger.InfoContext(ctx, "chat notification", "chat_id", msg.ChatID, "text", msg.Text)
	return ErrNotImplemented
}
