package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// UpdateSource yields incoming updates starting after the given offset.
type UpdateSource interface {
	Updates(ctx context.Context, offset int64) ([]Update, error)
}

// longPollClient fetches updates from the Telegram getUpdates endpoint using
// long polling.
type longPollClient struct {
	httpClient *http.Client
	base       string
	token      string
	timeout    time.Duration
}

// ClientOptions configure the long-poll client.
type ClientOptions struct {
	Token   string
	APIBase string
	// Timeout is the long-poll hold duration passed to getUpdates.
	Timeout time.Duration
}

// NewLongPollClient creates the Telegram update source.
func NewLongPollClient(opts ClientOptions) (UpdateSource, error) {
	if opts.Token == "" {
		return nil, fmt.Errorf("bot: token is required")
	}
	base := strings.TrimRight(opts.APIBase, "/")
	if base == "" {
		base = "https://api.telegram.org"
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &longPollClient{
		// HTTP timeout must exceed the long-poll hold or every call expires
		httpClient: &http.Client{Timeout: timeout + 10*time.Second},
		base:       base,
		token:      opts.Token,
		timeout:    timeout,
	}, nil
}

func (c *longPollClient) Updates(ctx context.Context, offset int64) ([]Update, error) {
	query := url.Values{}
	query.Set("timeout", strconv.Itoa(int(c.timeout.Seconds())))
	query.Set("allowed_updates", `["message"]`)
	if offset > 0 {
		query.Set("offset", strconv.FormatInt(offset, 10))
	}

	endpoint := fmt.Sprintf("%s/bot%s/getUpdates?%s", c.base, c.token, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build getUpdates request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("getUpdates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("getUpdates: unexpected status %d", resp.StatusCode)
	}

	var payload struct {
		OK          bool     `json:"ok"`
		Result      []Update `json:"result"`
		Description string   `json:"description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode getUpdates response: %w", err)
	}
	if !payload.OK {
		return nil, fmt.Errorf("getUpdates rejected: %s", payload.Description)
	}
	return payload.Result, nil
}
