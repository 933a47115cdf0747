package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"shelfmark/internal/config"
	"shelfmark/internal/services"
)

const defaultTimeout = 30 * time.Second

// Client implements Oracle against the Anthropic Messages API.
type Client struct {
	api     anthropic.Client
	baseURL string
	model   string
	timeout time.Duration
}

// Option customizes the client.
type Option func(*Client)

// WithBaseURL overrides the API base (useful for tests/mocks).
func WithBaseURL(base string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSpace(base)
	}
}

// NewClient constructs an oracle client from configuration.
func NewClient(cfg config.Oracle, opts ...Option) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "oracle", "new", "api key required", nil)
	}
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		model:   strings.TrimSpace(cfg.Model),
		timeout: timeout,
	}
	for _, opt := range opts {
		opt(client)
	}
	requestOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if client.baseURL != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(client.baseURL))
	}
	client.api = anthropic.NewClient(requestOpts...)
	return client, nil
}

// Verify asks the model to rule on the proposed identity. Transport and API
// failures come back tagged ErrUnavailable so the pipeline retries rather
// than treating the oracle as having voted.
func (c *Client) Verify(ctx context.Context, req Request) (*Response, error) {
	if req.Proposed.IsEmpty() {
		return nil, services.Wrap(services.ErrValidation, "oracle", "verify", "proposed identity is empty", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	message, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: verificationPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildUserPrompt(req))),
		},
	})
	if err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "oracle", "verify", "request failed", err)
	}

	var content string
	for _, block := range message.Content {
		if block.Type == "text" {
			content = block.Text
			break
		}
	}
	if content == "" {
		return nil, services.Wrap(services.ErrUnavailable, "oracle", "verify", "no text content in response", nil)
	}

	resp, err := decodeResponse(content)
	if err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "oracle", "verify",
			fmt.Sprintf("unparseable verdict: %s", summarize(content)), err)
	}
	return resp, nil
}

// IsUnavailable reports whether an oracle error means "retry later" rather
// than "wrong answer".
func IsUnavailable(err error) bool {
	return errors.Is(err, services.ErrUnavailable)
}

func summarize(content string) string {
	clean := strings.Join(strings.Fields(content), " ")
	const limit = 120
	if len(clean) > limit {
		return clean[:limit] + "..."
	}
	return clean
}
