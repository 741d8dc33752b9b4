// Package anthropic adapts the Anthropic Messages API to the model service
// contracts. The Messages API exposes no token logprobs, so scoring parses
// the integer rating from the response text. The adapter performs no retries
// of its own; the pipelines apply the single bounded retry.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/hupe1980/innerthoughts/model"
)

// Options configures the Anthropic adapter (model id, temperature, max
// tokens, API key).
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Client wraps the Anthropic Messages API behind the model.Generator and
// model.Scorer interfaces.
type Client struct {
	client *anthropic.Client
	opts   Options
}

// Interface compliance (compile-time assertions)
var (
	_ model.Generator = (*Client)(nil)
	_ model.Scorer    = (*Client)(nil)
)

// New creates an adapter using the official client.
func New(optFns ...func(o *Options)) *Client {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)
	return &Client{client: &client, opts: opts}
}

// NewFromClient creates an adapter from an existing client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Client {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Client{client: client, opts: opts}
}

func defaultOptions() Options {
	return Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   1024,
	}
}

// Generate implements model.Generator.
func (c *Client) Generate(ctx context.Context, req model.Request) (string, error) {
	resp, err := c.client.Messages.New(ctx, c.buildParams(req))
	if err != nil {
		return "", fmt.Errorf("anthropic message: %w", err)
	}
	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.AsText().Text)
		}
	}
	return sb.String(), nil
}

// Score implements model.Scorer by generating and parsing the rating text.
func (c *Client) Score(ctx context.Context, req model.Request) (float64, error) {
	text, err := c.Generate(ctx, req)
	if err != nil {
		return 0, err
	}
	return model.ParseRating(text)
}

func (c *Client) buildParams(req model.Request) anthropic.MessageNewParams {
	temp := req.Temperature
	if temp == 0 {
		temp = c.opts.Temperature
	}
	input := req.Input
	if req.JSON {
		// the Messages API has no response-format switch; reinforce in-prompt
		input += "\n\nRespond with a single JSON object and nothing else."
	}
	return anthropic.MessageNewParams{
		Model:       c.opts.Model,
		MaxTokens:   c.opts.MaxTokens,
		Temperature: anthropic.Float(temp),
		System:      []anthropic.TextBlockParam{{Text: req.Instructions}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(input)),
		},
	}
}
