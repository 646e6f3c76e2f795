package summary

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/sadopc/timesetor/internal/config"
)

const defaultModel = "claude-3-haiku-20240307"

// Client wraps the Anthropic SDK with a retry loop.
type Client struct {
	model      string
	maxTokens  int
	maxRetries int
	baseDelay  time.Duration
	client     anthropic.Client
}

// NewClient builds a client from the ai config section. The API key falls
// back to ANTHROPIC_API_KEY.
func NewClient(cfg config.AIConfig, opts ...option.RequestOption) (*Client, error) {
	key := cfg.APIKey
	if key == "" {
		key = os.Getenv("ANTHROPIC_API_KEY")
	}
	if key == "" {
		return nil, errors.New("summary: no API key: set ai.api_key or ANTHROPIC_API_KEY")
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 500
	}

	// Retries are ours; the SDK's own retry loop would multiply them.
	opts = append([]option.RequestOption{option.WithAPIKey(key), option.WithMaxRetries(0)}, opts...)
	return &Client{
		model:      model,
		maxTokens:  maxTokens,
		maxRetries: max(0, cfg.MaxRetries),
		baseDelay:  time.Second,
		client:     anthropic.NewClient(opts...),
	}, nil
}

// Complete sends one system and user prompt, retrying rate limits, server
// errors and timeouts with exponential backoff.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.baseDelay * time.Duration(math.Pow(2, float64(attempt-1)))
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}

		out, err := c.do(ctx, system, user)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !isRetryable(err) {
			return "", err
		}
	}
	return "", fmt.Errorf("summary: max retries exceeded: %w", lastErr)
}

func (c *Client) do(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(c.maxTokens),
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("summary request: %w", err)
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return strings.TrimSpace(b.String()), nil
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	s := err.Error()
	return strings.Contains(s, "rate_limit") ||
		strings.Contains(s, "timeout") ||
		strings.Contains(s, "deadline")
}
