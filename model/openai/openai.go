// Package openai adapts the OpenAI API to the model service contracts:
// chat completions for generation, logprobs-weighted completions for scoring
// and the embeddings API for vector production. The adapter performs no
// retries of its own; the pipelines apply the single bounded retry.
package openai

import (
	"context"
	"fmt"
	"math"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"

	"github.com/hupe1980/innerthoughts/model"
)

// Options configures the OpenAI adapter. Fields mirror a minimal subset of
// the API parameters; extend via functional options without breaking callers.
type Options struct {
	Model               openai.ChatModel
	EmbeddingModel      openai.EmbeddingModel
	Temperature         float64
	MaxCompletionTokens int64
}

// Client wraps the OpenAI API behind the model.Generator, model.Scorer and
// model.Embedder interfaces.
type Client struct {
	client *openai.Client
	opts   Options
}

// Interface compliance (compile-time assertions)
var (
	_ model.Generator = (*Client)(nil)
	_ model.Scorer    = (*Client)(nil)
	_ model.Embedder  = (*Client)(nil)
)

// New creates an adapter using the default OpenAI client (API key from env).
func New(optFns ...func(o *Options)) *Client {
	client := openai.NewClient()
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates an adapter from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Client {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		EmbeddingModel:      openai.EmbeddingModelTextEmbedding3Small,
		Temperature:         0.7,
		MaxCompletionTokens: 1024,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Client{client: client, opts: opts}
}

// Generate implements model.Generator via a non-streaming chat completion.
func (c *Client) Generate(ctx context.Context, req model.Request) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, c.buildParams(req))
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai completion: empty choice set")
	}
	return resp.Choices[0].Message.Content, nil
}

// Score implements model.Scorer. The completion is requested with token
// logprobs so the integer rating can be replaced by its probability-weighted
// expectation over the top alternatives, smoothing single-token jitter. When
// no rating token is found the textual parse is used.
func (c *Client) Score(ctx context.Context, req model.Request) (float64, error) {
	params := c.buildParams(req)
	params.Logprobs = openai.Bool(true)
	params.TopLogprobs = openai.Int(5)

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return 0, fmt.Errorf("openai scoring: %w", err)
	}
	if len(resp.Choices) == 0 {
		return 0, fmt.Errorf("openai scoring: empty choice set")
	}
	choice := resp.Choices[0]
	if weighted, ok := weightedRating(choice.Logprobs.Content); ok {
		return weighted, nil
	}
	return model.ParseRating(choice.Message.Content)
}

// Embed implements model.Embedder.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: []string{text}},
		Model: c.opts.EmbeddingModel,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai embedding: empty data")
	}
	vec := make([]float32, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}

func (c *Client) buildParams(req model.Request) openai.ChatCompletionNewParams {
	temp := req.Temperature
	if temp == 0 {
		temp = c.opts.Temperature
	}
	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.Instructions),
			openai.UserMessage(req.Input),
		},
		Model:               c.opts.Model,
		Temperature:         openai.Float(temp),
		MaxCompletionTokens: openai.Int(c.opts.MaxCompletionTokens),
	}
	if req.JSON {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}
	return params
}

// weightedRating scans the emitted tokens from the end for the rating digit
// and returns its expectation over the top logprob alternatives in [1,5].
func weightedRating(tokens []openai.ChatCompletionTokenLogprob) (float64, bool) {
	for i := len(tokens) - 1; i >= 0 && i >= len(tokens)-6; i-- {
		tok := tokens[i]
		if !isRatingToken(tok.Token) {
			continue
		}
		var weightedSum, probSum float64
		for _, alt := range tok.TopLogprobs {
			if !isRatingToken(alt.Token) {
				continue
			}
			p := math.Exp(alt.Logprob)
			weightedSum += float64(alt.Token[0]-'0') * p
			probSum += p
		}
		if probSum > 0 {
			return weightedSum / probSum, true
		}
		return float64(tok.Token[0] - '0'), true
	}
	return 0, false
}

func isRatingToken(tok string) bool {
	return len(tok) == 1 && tok[0] >= '1' && tok[0] <= '5'
}
