package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const defaultTelegramAPIBase = "https://api.telegram.org"

// TelegramOptions configure the Bot API client.
type TelegramOptions struct {
	Token   string
	APIBase string // override for tests; defaults to api.telegram.org
	Timeout time.Duration
	Logger  *slog.Logger
}

// TelegramService delivers messages through the Telegram Bot API. Transient
// failures (network errors, 5xx, 429) are retried with exponential backoff;
// other 4xx responses mean the recipient cannot be reached and are not
// retried.
type TelegramService struct {
	token   string
	apiBase string
	client  *http.Client
	logger  *slog.Logger
}

// NewTelegramService constructs a Bot API backed notifier.
func NewTelegramService(opts TelegramOptions) (*TelegramService, error) {
	if strings.TrimSpace(opts.Token) == "" {
		return nil, fmt.Errorf("telegram token is required")
	}
	base := strings.TrimRight(opts.APIBase, "/")
	if base == "" {
		base = defaultTelegramAPIBase
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &TelegramService{
		token:   opts.Token,
		apiBase: base,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}, nil
}

type sendMessageRequest struct {
	ChatID    int64  `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

// Send posts a sendMessage call, retrying transient failures.
func (s *TelegramService) Send(ctx context.Context, msg Message) error {
	if msg.ChatID == 0 {
		return fmt.Errorf("chat id is required")
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	return backoff.Retry(func() error {
		return s.sendOnce(ctx, msg)
	}, policy)
}

func (s *TelegramService) sendOnce(ctx context.Context, msg Message) error {
	body, err := json.Marshal(sendMessageRequest{ChatID: msg.ChatID, Text: msg.Text, ParseMode: msg.ParseMode})
	if err != nil {
		return backoff.Permanent(err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.apiBase, s.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err // network error, retryable
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return nil
	}

	var apiResp apiResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(raw, &apiResp)

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return fmt.Errorf("telegram api status %d: %s", resp.StatusCode, apiResp.Description)
	}

	s.logger.WarnContext(ctx, "telegram recipient unreachable",
		"chat_id", msg.ChatID, "status", resp.StatusCode, "description", apiResp.Description)
	return backoff.Permanent(fmt.Errorf("%w: status %d", ErrRecipientUnreachable, resp.StatusCode))
}
