package assist

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"
)

const defaultMaxTokens = 256

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-sonnet-4-20250514"

// Options configures the Anthropic analyzer.
type Options struct {
	Model     string
	MaxTokens int64
	APIKey    string
	// RequestOptions are passed to the client as is, e.g. a base URL in tests.
	RequestOptions []option.RequestOption
	Logger         *zap.Logger
}

// AnthropicAnalyzer answers field requests with the Anthropic Messages API.
type AnthropicAnalyzer struct {
	client *anthropic.Client
	opts   Options
}

// NewAnthropicAnalyzer creates an analyzer. An empty API key is rejected
// rather than falling back to the environment.
func NewAnthropicAnalyzer(optFns ...func(o *Options)) (*AnthropicAnalyzer, error) {
	opts := Options{
		Model:     DefaultModel,
		MaxTokens: defaultMaxTokens,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.APIKey == "" {
		return nil, errors.New("anthropic API key is required")
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	clientOpts := append([]option.RequestOption{option.WithAPIKey(opts.APIKey)}, opts.RequestOptions...)
	client := anthropic.NewClient(clientOpts...)

	return &AnthropicAnalyzer{client: &client, opts: opts}, nil
}

// AnalyzeField sends one prompt and parses the first text block of the reply.
func (a *AnthropicAnalyzer) AnalyzeField(ctx context.Context, req FieldRequest) (Suggestion, error) {
	resp, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.opts.Model),
		MaxTokens: a.opts.MaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(BuildPrompt(req))),
		},
	})
	if err != nil {
		return Suggestion{}, fmt.Errorf("anthropic api error: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text = block.AsText().Text
			break
		}
	}

	suggestion, err := ParseResponse(text, req.AvailableKeys)
	if err != nil {
		a.opts.Logger.Warn("Unparseable field analysis", zap.String("text", text), zap.Error(err))
		return Suggestion{}, err
	}
	a.opts.Logger.Debug("Field analyzed",
		zap.String("label", req.Label),
		zap.Float64("confidence", suggestion.Confidence),
	)
	return suggestion, nil
}
